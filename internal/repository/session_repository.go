package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kommand-console/internal/domain"
)

// SessionKey is the fixed storage key of the persisted session
const SessionKey = "kommandai_user"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCorruptSession  = errors.New("persisted session is unreadable")
)

// SessionRepository defines durable local storage for the console session
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	Load(ctx context.Context) (*domain.Session, error)
	Delete(ctx context.Context) error
}

// encodeSession serializes the session exactly as it was received
func encodeSession(session *domain.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("failed to encode session: %w", domain.ErrInvalidSession)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

// decodeSession rehydrates a persisted session verbatim
func decodeSession(data []byte) (*domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return &session, nil
}
