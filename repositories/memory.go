package repositories

import (
	"sort"
	"sync"
	"time"

	"sprinklex-server/entities"

	"github.com/google/uuid"
)

// Stores bundles one repository per entity, backed either by postgres or
// by process memory.
type Stores struct {
	Users    UserRepository
	Records  RecordRepository
	Readings SensorReadingRepository
	Commands CommandLogRepository
}

// NewMemoryStores returns in-memory repositories. Nothing survives a restart.
func NewMemoryStores() *Stores {
	return &Stores{
		Users:    &userMemRepository{byID: make(map[string]entities.User)},
		Records:  &recordMemRepository{byOwner: make(map[string]map[string]entities.Record)},
		Readings: &sensorReadingMemRepository{},
		Commands: &commandLogMemRepository{},
	}
}

func now() string { return entities.Timestamp(time.Now()) }

type userMemRepository struct {
	mu   sync.RWMutex
	byID map[string]entities.User
}

func (r *userMemRepository) Create(user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email || u.Phone == user.Phone {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = *user
	return nil
}

func (r *userMemRepository) find(match func(entities.User) bool) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *userMemRepository) GetByID(id string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.ID == id })
}

func (r *userMemRepository) GetByEmail(email string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.Email == email })
}

func (r *userMemRepository) GetByPhone(phone string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.Phone == phone })
}

func (r *userMemRepository) Update(user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return ErrNotFound
	}
	for id, u := range r.byID {
		if id != user.ID && (u.Email == user.Email || u.Phone == user.Phone) {
			return ErrDuplicate
		}
	}
	user.UpdatedAt = now()
	r.byID[user.ID] = *user
	return nil
}

type recordMemRepository struct {
	mu      sync.RWMutex
	byOwner map[string]map[string]entities.Record
}

func (r *recordMemRepository) Put(rec *entities.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.UpdatedAt = now()
	if r.byOwner[rec.OwnerID] == nil {
		r.byOwner[rec.OwnerID] = make(map[string]entities.Record)
	}
	r.byOwner[rec.OwnerID][rec.Key] = *rec
	return nil
}

func (r *recordMemRepository) Get(ownerID, key string) (*entities.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byOwner[ownerID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *recordMemRepository) List(ownerID string) ([]entities.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := make([]entities.Record, 0, len(r.byOwner[ownerID]))
	for _, rec := range r.byOwner[ownerID] {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Key < recs[j].Key })
	return recs, nil
}

func (r *recordMemRepository) Delete(ownerID string, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.byOwner[ownerID], k)
	}
	return nil
}

type sensorReadingMemRepository struct {
	mu       sync.RWMutex
	readings []entities.SensorReading
}

func (r *sensorReadingMemRepository) CreateBatch(readings []entities.SensorReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range readings {
		if rd.ID == "" {
			rd.ID = uuid.New().String()
		}
		rd.CreatedAt = now()
		r.readings = append(r.readings, rd)
	}
	return nil
}

func (r *sensorReadingMemRepository) GetByDeviceURL(deviceURL string, limit int) ([]entities.SensorReading, error) {
	if limit <= 0 {
		limit = 100
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entities.SensorReading
	for i := len(r.readings) - 1; i >= 0 && len(out) < limit; i-- {
		if r.readings[i].DeviceURL == deviceURL {
			out = append(out, r.readings[i])
		}
	}
	return out, nil
}

type commandLogMemRepository struct {
	mu      sync.RWMutex
	entries []entities.CommandLog
}

func (r *commandLogMemRepository) Create(entry *entities.CommandLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *commandLogMemRepository) Recent(limit int) ([]entities.CommandLog, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.CommandLog, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
