package repositories

import (
	"errors"
	"time"

	"sprinklex-server/db"
	"sprinklex-server/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recordPgRepository struct {
	db db.Database
}

func NewRecordPgRepository(database db.Database) RecordRepository {
	return &recordPgRepository{db: database}
}

func (r *recordPgRepository) Put(rec *entities.Record) error {
	rec.UpdatedAt = entities.Timestamp(time.Now())
	return r.db.GetDB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(rec).Error
}

func (r *recordPgRepository) Get(ownerID, key string) (*entities.Record, error) {
	var rec entities.Record
	err := r.db.GetDB().Where("owner_id = ? AND key = ?", ownerID, key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordPgRepository) List(ownerID string) ([]entities.Record, error) {
	var recs []entities.Record
	err := r.db.GetDB().Where("owner_id = ?", ownerID).Order("key ASC").Find(&recs).Error
	return recs, err
}

func (r *recordPgRepository) Delete(ownerID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.GetDB().Where("owner_id = ? AND key IN ?", ownerID, keys).Delete(&entities.Record{}).Error
}
