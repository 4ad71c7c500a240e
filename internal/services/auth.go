package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"alfredoptarigan/candidate-screener/internal/logger"
	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
)

// AuthService registers recruiters and trades credentials for bearer tokens.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*models.TokenResponse, error)
	// ValidateToken returns the recruiter username carried by a bearer token.
	ValidateToken(token string) (string, error)
}

type AuthOptions struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type authService struct {
	repo   repositories.RecruiterRepository
	secret []byte
	ttl    time.Duration
	cost   int
	log    *zap.Logger
}

func NewAuthService(repo repositories.RecruiterRepository, opts AuthOptions, log *zap.Logger) AuthService {
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &authService{
		repo:   repo,
		secret: []byte(opts.Secret),
		ttl:    opts.TokenTTL,
		cost:   cost,
		log:    logger.OrNop(log),
	}
}

func (a *authService) Register(ctx context.Context, username, password string) error {
	existing, err := a.repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.repo.Create(ctx, &models.Recruiter{Username: username, PasswordHash: string(hash)}); err != nil {
		return err
	}

	a.log.Info("recruiter registered", zap.String("username", username))
	return nil
}

func (a *authService) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	recruiter, err := a.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(recruiter.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := signHS256(&recruiterClaims{
		Username:         recruiter.Username,
		RegisteredClaims: registeredClaims(a.ttl),
	}, a.secret)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		Token:     token,
		Username:  recruiter.Username,
		ExpiresIn: int64(a.ttl.Seconds()),
	}, nil
}

func (a *authService) ValidateToken(token string) (string, error) {
	claims := &recruiterClaims{}
	if err := parseHS256(token, a.secret, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.Username == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Username, nil
}
