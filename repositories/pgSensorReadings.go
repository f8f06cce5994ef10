package repositories

import (
	"sprinklex-server/db"
	"sprinklex-server/entities"
)

type sensorReadingPgRepository struct {
	db db.Database
}

func NewSensorReadingPgRepository(database db.Database) SensorReadingRepository {
	return &sensorReadingPgRepository{db: database}
}

func (r *sensorReadingPgRepository) CreateBatch(readings []entities.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	return r.db.GetDB().Create(&readings).Error
}

func (r *sensorReadingPgRepository) GetByDeviceURL(deviceURL string, limit int) ([]entities.SensorReading, error) {
	if limit <= 0 {
		limit = 100
	}
	var readings []entities.SensorReading
	err := r.db.GetDB().Where("device_url = ?", deviceURL).Order("created_at DESC").Limit(limit).Find(&readings).Error
	return readings, err
}
