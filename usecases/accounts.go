package usecases

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sprinklex-server/entities"
	"sprinklex-server/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrAccountExists      = errors.New("an account with this email or phone already exists")
)

// ValidationError is a request that is well-formed JSON but missing
// something the account flow needs.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

type RegisterInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Session is what register and login hand back to the dashboard.
type Session struct {
	Token   string           `json:"token"`
	Profile entities.Profile `json:"user"`
}

type AccountsUseCase struct {
	users   repositories.UserRepository
	records repositories.RecordRepository
	secret  []byte
	ttl     time.Duration
}

func NewAccountsUseCase(users repositories.UserRepository, records repositories.RecordRepository, secret []byte, ttl time.Duration) *AccountsUseCase {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AccountsUseCase{users: users, records: records, secret: secret, ttl: ttl}
}

// Register creates the account, stores its profile record and signs a token.
func (uc *AccountsUseCase) Register(in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	for _, f := range []struct{ name, value string }{
		{"name", in.Name}, {"phone", in.Phone}, {"email", in.Email}, {"password", in.Password},
	} {
		if f.value == "" {
			return nil, &ValidationError{Field: f.name}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &entities.User{Name: in.Name, Phone: in.Phone, Email: in.Email, PasswordHash: string(hash)}
	if err := uc.users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	if err := uc.storeProfile(user); err != nil {
		return nil, err
	}
	return uc.session(user)
}

// Login accepts an email (anything containing "@") or a phone number.
func (uc *AccountsUseCase) Login(emailOrPhone, password string) (*Session, error) {
	emailOrPhone = strings.TrimSpace(emailOrPhone)
	if emailOrPhone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		user *entities.User
		err  error
	)
	if strings.Contains(emailOrPhone, "@") {
		user, err = uc.users.GetByEmail(strings.ToLower(emailOrPhone))
	} else {
		user, err = uc.users.GetByPhone(emailOrPhone)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if err := uc.storeProfile(user); err != nil {
		return nil, err
	}
	return uc.session(user)
}

func (uc *AccountsUseCase) GetProfile(userID string) (*entities.Profile, error) {
	user, err := uc.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// UpdateProfile merges the non-empty fields of upd into the account.
func (uc *AccountsUseCase) UpdateProfile(userID string, upd ProfileUpdate) (*entities.Profile, error) {
	user, err := uc.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(upd.Name); v != "" {
		user.Name = v
	}
	if v := strings.TrimSpace(upd.Phone); v != "" {
		user.Phone = v
	}
	if v := strings.ToLower(strings.TrimSpace(upd.Email)); v != "" {
		user.Email = v
	}
	if err := uc.users.Update(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	if err := uc.storeProfile(user); err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// Logout forgets the cached profile and farm data for the user.
func (uc *AccountsUseCase) Logout(userID string) error {
	return uc.records.Delete(userID, entities.KeyUser, entities.KeyFarmData)
}

// ParseToken returns the user id carried by a token this use case signed.
func (uc *AccountsUseCase) ParseToken(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return uc.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("token has no user_id")
	}
	return userID, nil
}

func (uc *AccountsUseCase) session(user *entities.User) (*Session, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(uc.ttl).Unix(),
	})
	signed, err := token.SignedString(uc.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, Profile: user.Profile()}, nil
}

func (uc *AccountsUseCase) storeProfile(user *entities.User) error {
	b, err := json.Marshal(user.Profile())
	if err != nil {
		return err
	}
	return uc.records.Put(&entities.Record{OwnerID: user.ID, Key: entities.KeyUser, Value: string(b)})
}
