package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommandLog records every command relayed to the controller.
type CommandLog struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DeviceURL string         `json:"device_url" gorm:"index;type:varchar(255)"`
	Command   string         `json:"command" gorm:"type:varchar(64)"` // toggle, rotate, calibrate
	Params    string         `json:"params" gorm:"type:text"`
	Success   bool           `json:"success"`
	Response  string         `json:"response" gorm:"type:text"`
	CreatedAt string         `json:"created_at" gorm:"index;type:varchar(64)"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (c *CommandLog) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = Timestamp(time.Now())
	}
	return nil
}
