// Package sleep integrates third-party fitness trackers as sleep data
// sources. A fetched sleep window is turned into two synthetic supplement
// markers so the journal treats sleep and wake times like any other
// supplement.
package sleep

import (
	"context"
	"errors"
	"time"

	"github.com/at-ishikawa/doselog/internal/supplement"
)

//go:generate mockgen -source=provider.go -destination=../mocks/sleep/mock_provider.go -package=mock_sleep

const (
	SourceFitbit = "fitbit"
	SourceWhoop  = "whoop"

	// DefaultMaxRetryAttempts bounds retries of transient provider failures.
	DefaultMaxRetryAttempts uint = 2
)

// ErrNotAuthenticated is returned when the active source has no stored
// tokens.
var ErrNotAuthenticated = errors.New("sleep source is not authenticated")

// Tokens holds one source's OAuth2 tokens.
type Tokens struct {
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
}

// Window is one night's sleep as reported by a provider.
type Window struct {
	Start      time.Time
	End        time.Time
	Efficiency *float64
}

// Markers returns the synthetic supplements representing this window. The
// marker name embeds the time of day so equal times on different days
// deduplicate to the same supplement.
func (w Window) Markers() []Marker {
	return []Marker{
		{Name: "Sleep start " + w.Start.Format("15:04"), Type: supplement.TypeSleepStart},
		{Name: "Sleep end " + w.End.Format("15:04"), Type: supplement.TypeSleepEnd},
	}
}

// Marker is a synthetic supplement derived from a sleep window.
type Marker struct {
	Name string
	Type string
}

// Provider is the OAuth2 + sleep data contract each tracker implements.
type Provider interface {
	Source() string
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
	// SleepWindow returns nil without an error when the provider has no
	// sleep recorded for the date.
	SleepWindow(ctx context.Context, date time.Time, accessToken string) (*Window, error)
}

// TokenStore persists per-source OAuth tokens.
type TokenStore interface {
	Load(source string) (*Tokens, error)
	Save(source string, tokens Tokens) error
	Delete(source string) error
}
