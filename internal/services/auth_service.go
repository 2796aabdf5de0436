package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/farellandr/runnershive/internal/clock"
	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/models"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByLogin(ctx context.Context, login string) (*models.User, error)
}

// Claims is the payload of the login token.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users      userRepository
	secret     []byte
	expiration time.Duration
	clock      clock.Clock
	logger     *zap.Logger
}

func NewAuthService(users userRepository, secret string, expiration time.Duration, clk clock.Clock, logger *zap.Logger) *AuthService {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, secret: []byte(secret), expiration: expiration, clock: clk, logger: logger}
}

func (s *AuthService) Expiration() time.Duration {
	return s.expiration
}

// Register creates an account. A taken username or email is reported as a
// field error.
func (s *AuthService) Register(ctx context.Context, input *forms.RegisterInput) (*models.User, forms.FieldErrors, error) {
	errs := forms.ValidateRegister(input)
	if len(errs) > 0 {
		return nil, errs, errdef.NewBadRequest("invalid registration")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash the password: %w", err)
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashedPassword),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errdef.IsDuplicated(err) {
			errs.Add("username", "A user with that username or email already exists.")
			return nil, errs, err
		}
		return nil, nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))

	return user, nil, nil
}

// Login checks the credentials by username or email.
func (s *AuthService) Login(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errdef.NewUnauthorized("invalid credentials")
	}

	return user, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, errdef.NewUnauthorized("invalid token: %v", err)
	}
	if claims.UserID == uuid.Nil {
		return nil, errdef.NewUnauthorized("invalid token: missing user")
	}

	return claims, nil
}
