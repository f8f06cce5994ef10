package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PinWet      = "WET"
	PinDry      = "DRY"
	ValveOpen   = "OPEN"
	ValveClosed = "CLOSED"
	Unknown     = "UNKNOWN"
)

// SensorReading is one sample of the three-depth moisture probe and valve.
type SensorReading struct {
	ID        string         `gorm:"primaryKey" json:"id,omitempty"`
	DeviceURL string         `gorm:"index" json:"deviceUrl,omitempty"`
	Deep1     string         `json:"deep1"`
	Deep2     string         `json:"deep2"`
	Deep3     string         `json:"deep3"`
	Valve     string         `json:"valve"`
	Timestamp string         `json:"timestamp,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *SensorReading) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = Timestamp(time.Now())
	return
}

// DryCount is the number of probe depths reporting DRY.
func (r SensorReading) DryCount() int {
	n := 0
	for _, p := range []string{r.Deep1, r.Deep2, r.Deep3} {
		if p == PinDry {
			n++
		}
	}
	return n
}

// SameLevels reports whether two readings agree on every pin and the valve.
func (r SensorReading) SameLevels(o SensorReading) bool {
	return r.Deep1 == o.Deep1 && r.Deep2 == o.Deep2 && r.Deep3 == o.Deep3 && r.Valve == o.Valve
}
