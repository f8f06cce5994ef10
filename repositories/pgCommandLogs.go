package repositories

import (
	"sprinklex-server/db"
	"sprinklex-server/entities"
)

type commandLogPgRepository struct {
	db db.Database
}

func NewCommandLogPgRepository(database db.Database) CommandLogRepository {
	return &commandLogPgRepository{db: database}
}

func (r *commandLogPgRepository) Create(entry *entities.CommandLog) error {
	return r.db.GetDB().Create(entry).Error
}

func (r *commandLogPgRepository) Recent(limit int) ([]entities.CommandLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []entities.CommandLog
	err := r.db.GetDB().Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
