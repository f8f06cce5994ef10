package entities

// Record keys mirror what the dashboard keeps per user.
const (
	KeyUser          = "user"
	KeyFarmData      = "farmData"
	KeyLands         = "lands"
	KeySprinklers    = "sprinklers"
	KeyDeviceURL     = "deviceUrl"
	KeyDeviceToken   = "deviceToken"
	KeyLanguage      = "language"
	KeyNotifications = "notifications"
)

// SystemOwner owns records written by the server itself, such as the
// last known controller URL.
const SystemOwner = "system"

// RecordKeys lists every key a client may write.
var RecordKeys = []string{
	KeyUser, KeyFarmData, KeyLands, KeySprinklers,
	KeyDeviceURL, KeyDeviceToken, KeyLanguage, KeyNotifications,
}

// Record is an opaque JSON blob stored under (owner, key). Writes replace.
type Record struct {
	OwnerID   string `gorm:"primaryKey;type:varchar(36)" json:"owner_id"`
	Key       string `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string `gorm:"type:text" json:"value"`
	UpdatedAt string `json:"updated_at"`
}
