package repositories

import (
	"errors"
	"time"

	"sprinklex-server/db"
	"sprinklex-server/entities"

	"gorm.io/gorm"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(user *entities.User) error {
	err := r.db.GetDB().Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *userPgRepository) first(query string, arg string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userPgRepository) GetByID(id string) (*entities.User, error) {
	return r.first("id = ?", id)
}

func (r *userPgRepository) GetByEmail(email string) (*entities.User, error) {
	return r.first("email = ?", email)
}

func (r *userPgRepository) GetByPhone(phone string) (*entities.User, error) {
	return r.first("phone = ?", phone)
}

func (r *userPgRepository) Update(user *entities.User) error {
	user.UpdatedAt = entities.Timestamp(time.Now())
	err := r.db.GetDB().Save(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
