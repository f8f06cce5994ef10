package repositories

import "sprinklex-server/db"

// NewPgStores returns postgres-backed repositories sharing one connection.
func NewPgStores(database db.Database) *Stores {
	return &Stores{
		Users:    NewUserPgRepository(database),
		Records:  NewRecordPgRepository(database),
		Readings: NewSensorReadingPgRepository(database),
		Commands: NewCommandLogPgRepository(database),
	}
}
