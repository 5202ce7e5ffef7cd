package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"urbangear/internal/models"
	"urbangear/internal/store"
	"urbangear/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service handles signup, login and token verification
type Service struct {
	store    *store.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewService creates an auth service
func NewService(store *store.Store, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   util.GetLogger(),
	}
}

// SignUp registers a new user and returns a signed token
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.SignUp")
	defer span.End()

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, token, nil
}

// LogIn verifies credentials and returns a signed token
func (s *Service) LogIn(ctx context.Context, email, password string) (*models.User, string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.LogIn")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return user, token, nil
}

// IssueToken signs a token for a user id
func (s *Service) IssueToken(userID int64, email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Audience:  jwt.ClaimStrings{email},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a signed token and returns the user id
func (s *Service) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
