package service

import (
	"context"
	"time"

	"krishi/internal/domain"
	"krishi/internal/models"

	"github.com/google/uuid"
)

// SessionService issues and resolves login tokens backed by the session
// repository.
type SessionService struct {
	repo domain.SessionRepository
}

func NewSessionService(repo domain.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Create issues a fresh token for the user.
func (s *SessionService) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}
	if err := s.repo.SetSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Resolve returns the session for a token, or nil when absent or expired.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.repo.GetSession(ctx, token)
}

// Destroy invalidates a token.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	return s.repo.ClearSession(ctx, token)
}

// CheckRateLimit reports whether the key is still within its request budget
// for the window. Counters live in the session repository, so with Redis the
// budget spans instances and survives restarts.
func (s *SessionService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return s.repo.CheckRateLimit(ctx, key, limit, window)
}
