// Package auth регистрирует пользователей, выдаёт и проверяет JWT.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const (
	// MinPasswordLength — минимальная длина пароля.
	MinPasswordLength = 6
	defaultTokenTTL   = 24 * time.Hour
)

// Identity — проверенный вызывающий, извлечённый из токена.
type Identity struct {
	UserID string
	Role   domain.UserRole
}

// Token — выданный access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      string
	Role        domain.UserRole
}

// ProfileUpdate — изменения профиля производителя. Nil-поля не меняются.
type ProfileUpdate struct {
	FullName        string
	Description     *string
	ProfileImageURL *string
	NewPassword     *string
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Config — параметры подписи токенов и хеширования паролей.
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник текущего времени, в том числе для проверки exp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service — регистрация, вход и профиль пользователя.
type Service struct {
	users  domain.UserRepository
	secret []byte
	ttl    time.Duration
	cost   int
	logger *log.Entry
	now    func() time.Time
}

// NewService создаёт сервис аутентификации.
func NewService(users domain.UserRepository, cfg Config, options ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: users repository is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range", cfg.BcryptCost)
	}
	s := &Service{
		users:  users,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		cost:   cfg.BcryptCost,
		logger: log.WithField("component", "auth"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Register создаёт пользователя и возвращает его идентификатор.
func (s *Service) Register(fullName, email, password, role string) (string, error) {
	addr, err := domain.NewEmail(email)
	if err != nil {
		return "", err
	}
	parsedRole, err := domain.ParseUserRole(role)
	if err != nil {
		return "", err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return "", err
	}

	if _, exists, err := s.users.FindByEmail(addr); err != nil {
		return "", err
	} else if exists {
		return "", domain.NewError(domain.ErrEmailTaken, "%s", addr)
	}

	user, err := domain.NewUser(uuid.NewString(), fullName, addr, hash, parsedRole, s.now())
	if err != nil {
		return "", err
	}
	if err := s.users.Create(user); err != nil {
		return "", err
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")
	return user.ID, nil
}

// Login проверяет пароль и выдаёт токен.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(email, password string) (Token, error) {
	addr, err := domain.NewEmail(email)
	if err != nil {
		return Token{}, domain.NewError(domain.ErrInvalidCredentials, "")
	}
	user, ok, err := s.users.FindByEmail(addr)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, domain.NewError(domain.ErrInvalidCredentials, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, domain.NewError(domain.ErrInvalidCredentials, "")
	}
	return s.issue(user)
}

// ParseToken проверяет подпись и срок действия токена.
func (s *Service) ParseToken(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, domain.NewError(domain.ErrInvalidCredentials, "token is required")
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, domain.NewError(domain.ErrInvalidCredentials, "invalid token: %v", err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Identity{}, domain.NewError(domain.ErrInvalidCredentials, "invalid token claims")
	}
	role, err := domain.ParseUserRole(c.Role)
	if err != nil {
		return Identity{}, domain.NewError(domain.ErrInvalidCredentials, "invalid role in token")
	}
	return Identity{UserID: c.Subject, Role: role}, nil
}

// GetProfile возвращает пользователя по идентификатору.
func (s *Service) GetProfile(userID string) (domain.User, error) {
	user, ok, err := s.users.Find(strings.TrimSpace(userID))
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.NewError(domain.ErrUserNotFound, "user %s", userID)
	}
	return user, nil
}

// UpdateProducerProfile обновляет профиль производителя и, если передан, пароль.
func (s *Service) UpdateProducerProfile(userID string, in ProfileUpdate) (domain.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return domain.User{}, err
	}
	if !user.HasRole(domain.UserRoleProducer) {
		return domain.User{}, domain.NewError(domain.ErrInvalidActor, "user %s is not a producer", user.ID)
	}

	description := user.Description
	if in.Description != nil {
		description = *in.Description
	}
	imageURL := user.ProfileImageURL
	if in.ProfileImageURL != nil {
		imageURL = *in.ProfileImageURL
	}
	now := s.now()
	if err := user.UpdateProfile(in.FullName, description, imageURL, now); err != nil {
		return domain.User{}, err
	}
	if in.NewPassword != nil {
		hash, err := s.hashPassword(*in.NewPassword)
		if err != nil {
			return domain.User{}, err
		}
		if err := user.ChangePassword(hash, now); err != nil {
			return domain.User{}, err
		}
	}

	if err := s.users.Save(user); err != nil {
		return domain.User{}, err
	}
	user.Version++
	s.logger.WithField("user_id", user.ID).Info("producer profile updated")
	return user, nil
}

func (s *Service) hashPassword(password string) (domain.PasswordHash, error) {
	if len(password) < MinPasswordLength {
		return "", domain.NewError(domain.ErrInvalidValue, "password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return domain.NewPasswordHash(string(hash))
}

func (s *Service) issue(user domain.User) (Token, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	c := claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, ExpiresAt: expires, UserID: user.ID, Role: user.Role}, nil
}
