package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/dmitrijs2005/proofofplace/internal/server/auth"
	"github.com/dmitrijs2005/proofofplace/internal/server/config"
)

// Session is a short-lived bearer token for an npub that has already proven
// key ownership with NIP-98.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type SessionService struct {
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	now                         func() time.Time
}

func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		now:                         time.Now,
	}
}

// Issue mints a session token for npub.
func (s *SessionService) Issue(ctx context.Context, npub string) (*Session, error) {
	if !nostrx.ValidNpub(npub) {
		return nil, fmt.Errorf("%w: invalid npub format", common.ErrInvalidInput)
	}
	expiresAt := s.now().Add(s.accessTokenValidityDuration)
	token, err := auth.GenerateToken(npub, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt.UTC()}, nil
}
