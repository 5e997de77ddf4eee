package domain

import (
	"strings"
	"time"
)

// UserRole определяет, от чьего имени пользователь действует в маркетплейсе.
type UserRole string

const (
	// UserRoleConsumer — покупатель, размещает заказы.
	UserRoleConsumer UserRole = "consumer"
	// UserRoleProducer — производитель, ведёт каталог и заказывает перевозки.
	UserRoleProducer UserRole = "producer"
)

// ParseUserRole разбирает роль без учёта регистра.
func ParseUserRole(raw string) (UserRole, error) {
	switch UserRole(strings.ToLower(strings.TrimSpace(raw))) {
	case UserRoleConsumer:
		return UserRoleConsumer, nil
	case UserRoleProducer:
		return UserRoleProducer, nil
	default:
		return "", NewError(ErrInvalidValue, "unknown role %q", raw)
	}
}

// User — запись справочника пользователей.
type User struct {
	ID              string
	FullName        string
	Email           Email
	PasswordHash    PasswordHash
	Role            UserRole
	Description     string
	ProfileImageURL string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUser создаёт пользователя с проверкой обязательных полей.
func NewUser(id, fullName string, email Email, hash PasswordHash, role UserRole, now time.Time) (User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return User{}, NewError(ErrInvalidValue, "full name is required")
	}
	if email == "" {
		return User{}, NewError(ErrInvalidValue, "email is required")
	}
	if hash == "" {
		return User{}, NewError(ErrInvalidValue, "password hash is required")
	}
	if role != UserRoleConsumer && role != UserRoleProducer {
		return User{}, NewError(ErrInvalidValue, "unknown role %q", role)
	}
	return User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasRole проверяет роль пользователя.
func (u User) HasRole(role UserRole) bool {
	return u.Role == role
}

// UpdateProfile обновляет публичные данные профиля.
func (u *User) UpdateProfile(fullName, description, profileImageURL string, now time.Time) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return NewError(ErrInvalidValue, "full name is required")
	}
	u.FullName = fullName
	u.Description = strings.TrimSpace(description)
	u.ProfileImageURL = strings.TrimSpace(profileImageURL)
	u.UpdatedAt = now
	return nil
}

// ChangePassword заменяет хеш пароля.
func (u *User) ChangePassword(hash PasswordHash, now time.Time) error {
	if hash == "" {
		return NewError(ErrInvalidValue, "password hash is required")
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	return nil
}
