package usecases

import (
	"encoding/json"
	"errors"
	"fmt"

	"sprinklex-server/entities"
	"sprinklex-server/repositories"
)

var (
	ErrUnknownKey   = errors.New("unknown record key")
	ErrInvalidValue = errors.New("record value must be valid JSON")
)

type RecordsUseCase struct {
	repo repositories.RecordRepository
}

func NewRecordsUseCase(r repositories.RecordRepository) *RecordsUseCase {
	return &RecordsUseCase{repo: r}
}

func knownKey(key string) bool {
	for _, k := range entities.RecordKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Put replaces the value stored under key. The last writer wins.
func (uc *RecordsUseCase) Put(ownerID, key string, value json.RawMessage) (*entities.Record, error) {
	if !knownKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, ErrInvalidValue
	}
	rec := &entities.Record{OwnerID: ownerID, Key: key, Value: string(value)}
	if err := uc.repo.Put(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (uc *RecordsUseCase) Get(ownerID, key string) (*entities.Record, error) {
	if !knownKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return uc.repo.Get(ownerID, key)
}

func (uc *RecordsUseCase) List(ownerID string) ([]entities.Record, error) {
	return uc.repo.List(ownerID)
}

// Delete succeeds whether or not the record existed.
func (uc *RecordsUseCase) Delete(ownerID, key string) error {
	if !knownKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return uc.repo.Delete(ownerID, key)
}
