package repositories

import (
	"errors"

	"sprinklex-server/entities"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository interface {
	Create(user *entities.User) error
	GetByID(id string) (*entities.User, error)
	GetByEmail(email string) (*entities.User, error)
	GetByPhone(phone string) (*entities.User, error)
	Update(user *entities.User) error
}

// RecordRepository stores opaque JSON blobs keyed by (owner, key).
// Put replaces any existing value.
type RecordRepository interface {
	Put(rec *entities.Record) error
	Get(ownerID, key string) (*entities.Record, error)
	List(ownerID string) ([]entities.Record, error)
	Delete(ownerID string, keys ...string) error
}

type SensorReadingRepository interface {
	CreateBatch(readings []entities.SensorReading) error
	GetByDeviceURL(deviceURL string, limit int) ([]entities.SensorReading, error)
}

type CommandLogRepository interface {
	Create(entry *entities.CommandLog) error
	Recent(limit int) ([]entities.CommandLog, error)
}
