package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"alfredoptarigan/candidate-screener/internal/models"
)

// sessionClaims bind a browser to one interview session.
type sessionClaims struct {
	SessionID   uuid.UUID `json:"session_id"`
	CandidateID string    `json:"candidate_id,omitempty"`
	jwt.RegisteredClaims
}

// recruiterClaims identify a logged-in recruiter.
type recruiterClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionSigner issues and checks the signed credential handed to the
// candidate's browser when an interview session is created.
type SessionSigner interface {
	Issue(session *models.InterviewSession) (string, error)
	Verify(token string) (uuid.UUID, error)
}

type sessionSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionSigner(secret string, ttl time.Duration) SessionSigner {
	return &sessionSigner{secret: []byte(secret), ttl: ttl}
}

func (s *sessionSigner) Issue(session *models.InterviewSession) (string, error) {
	claims := &sessionClaims{
		SessionID:        session.ID,
		RegisteredClaims: registeredClaims(s.ttl),
	}
	if session.CandidateID != nil {
		claims.CandidateID = session.CandidateID.String()
	}
	return signHS256(claims, s.secret)
}

func (s *sessionSigner) Verify(token string) (uuid.UUID, error) {
	claims := &sessionClaims{}
	if err := parseHS256(token, s.secret, claims); err != nil {
		return uuid.Nil, err
	}
	return claims.SessionID, nil
}

func registeredClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func signHS256(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func parseHS256(tokenString string, secret []byte, claims jwt.Claims) error {
	if tokenString == "" {
		return errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("token expired: %w", err)
		}
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("token is not valid")
	}
	return nil
}
