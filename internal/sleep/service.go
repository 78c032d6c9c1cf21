package sleep

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/doselog/internal/domain"
)

// Service selects the active sleep source and owns the token lifecycle
// around it. A failed fetch triggers one token refresh followed by a single
// re-fetch; a second failure surfaces to the caller.
type Service struct {
	providers    map[string]Provider
	tokens       TokenStore
	activeSource string
	logger       *slog.Logger
}

func NewService(activeSource string, tokens TokenStore, logger *slog.Logger, providers ...Provider) *Service {
	byS := make(map[string]Provider, len(providers))
	for _, provider := range providers {
		byS[provider.Source()] = provider
	}
	return &Service{
		providers:    byS,
		tokens:       tokens,
		activeSource: activeSource,
		logger:       logger,
	}
}

// ActiveSource returns the configured source name, or "" when sleep
// tracking is disabled.
func (s *Service) ActiveSource() string {
	return s.activeSource
}

func (s *Service) provider(source string) (Provider, error) {
	provider, ok := s.providers[source]
	if !ok {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown sleep source %q", source),
		}
	}
	return provider, nil
}

// AuthURL returns the provider's authorization URL with a fresh state
// parameter.
func (s *Service) AuthURL(source string) (string, error) {
	provider, err := s.provider(source)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("rand.Read > %w", err)
	}
	state := fmt.Sprintf("%s_%d_%s", source, time.Now().UnixMilli(), hex.EncodeToString(nonce))
	return provider.AuthURL(state), nil
}

// HandleCallback exchanges the authorization code and persists the tokens.
func (s *Service) HandleCallback(ctx context.Context, source, code string) error {
	provider, err := s.provider(source)
	if err != nil {
		return err
	}
	if code == "" {
		return &domain.ValidationError{Message: "authorization code is required"}
	}

	tokens, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("provider.ExchangeCode > %w", err)
	}
	if err := s.tokens.Save(source, tokens); err != nil {
		return fmt.Errorf("tokens.Save > %w", err)
	}
	return nil
}

// Connected reports whether the source has stored tokens.
func (s *Service) Connected(source string) (bool, error) {
	if _, err := s.provider(source); err != nil {
		return false, err
	}
	tokens, err := s.tokens.Load(source)
	if err != nil {
		return false, fmt.Errorf("tokens.Load > %w", err)
	}
	return tokens != nil, nil
}

// Logout drops the source's stored tokens.
func (s *Service) Logout(source string) error {
	if _, err := s.provider(source); err != nil {
		return err
	}
	if err := s.tokens.Delete(source); err != nil {
		return fmt.Errorf("tokens.Delete > %w", err)
	}
	return nil
}

// Fetch returns the active source's sleep window for the date, or nil when
// no source is active or no sleep was recorded. ErrNotAuthenticated is
// returned when the active source has no stored tokens.
func (s *Service) Fetch(ctx context.Context, date time.Time) (*Window, error) {
	provider, ok := s.providers[s.activeSource]
	if !ok {
		return nil, nil
	}

	tokens, err := s.tokens.Load(s.activeSource)
	if err != nil {
		return nil, fmt.Errorf("tokens.Load > %w", err)
	}
	if tokens == nil || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, ErrNotAuthenticated
	}

	window, err := provider.SleepWindow(ctx, date, tokens.AccessToken)
	if err == nil {
		return window, nil
	}
	s.logger.Warn("sleep fetch failed, refreshing tokens",
		"source", s.activeSource,
		"error", err,
	)

	refreshed, err := provider.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("provider.Refresh > %w", err)
	}
	// WHOOP omits the refresh token when it has not rotated.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tokens.RefreshToken
	}
	if err := s.tokens.Save(s.activeSource, refreshed); err != nil {
		return nil, fmt.Errorf("tokens.Save > %w", err)
	}

	window, err = provider.SleepWindow(ctx, date, refreshed.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("provider.SleepWindow > %w", err)
	}
	return window, nil
}
