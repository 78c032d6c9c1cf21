package sleep_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/doselog/internal/domain"
	mock_sleep "github.com/at-ishikawa/doselog/internal/mocks/sleep"
	"github.com/at-ishikawa/doselog/internal/sleep"
	"github.com/at-ishikawa/doselog/internal/supplement"
)

func newTestService(t *testing.T, activeSource string) (*sleep.Service, *mock_sleep.MockProvider, *mock_sleep.MockTokenStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	provider := mock_sleep.NewMockProvider(ctrl)
	provider.EXPECT().Source().Return(sleep.SourceFitbit).AnyTimes()
	tokens := mock_sleep.NewMockTokenStore(ctrl)

	service := sleep.NewService(activeSource, tokens, slog.Default(), provider)
	return service, provider, tokens
}

func TestService_Fetch(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	window := &sleep.Window{
		Start: time.Date(2025, 2, 28, 23, 45, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC),
	}
	stored := &sleep.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}

	tests := []struct {
		name         string
		activeSource string
		setup        func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore)
		wantWindow   *sleep.Window
		wantErr      error
		wantAnyErr   bool
	}{
		{
			name:         "fetches with the stored access token",
			activeSource: sleep.SourceFitbit,
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				tokens.EXPECT().Load(sleep.SourceFitbit).Return(stored, nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-1").Return(window, nil)
			},
			wantWindow: window,
		},
		{
			name:         "refreshes tokens and retries once on failure",
			activeSource: sleep.SourceFitbit,
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				tokens.EXPECT().Load(sleep.SourceFitbit).Return(stored, nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-1").
					Return(nil, fmt.Errorf("response error 401"))
				provider.EXPECT().Refresh(gomock.Any(), "refresh-1").
					Return(sleep.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil)
				tokens.EXPECT().Save(sleep.SourceFitbit,
					sleep.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}).Return(nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-2").Return(window, nil)
			},
			wantWindow: window,
		},
		{
			name:         "keeps the old refresh token when the provider omits it",
			activeSource: sleep.SourceFitbit,
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				tokens.EXPECT().Load(sleep.SourceFitbit).Return(stored, nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-1").
					Return(nil, fmt.Errorf("response error 401"))
				provider.EXPECT().Refresh(gomock.Any(), "refresh-1").
					Return(sleep.Tokens{AccessToken: "access-2"}, nil)
				tokens.EXPECT().Save(sleep.SourceFitbit,
					sleep.Tokens{AccessToken: "access-2", RefreshToken: "refresh-1"}).Return(nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-2").Return(nil, nil)
			},
			wantWindow: nil,
		},
		{
			name:         "second failure surfaces",
			activeSource: sleep.SourceFitbit,
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				tokens.EXPECT().Load(sleep.SourceFitbit).Return(stored, nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-1").
					Return(nil, fmt.Errorf("response error 401"))
				provider.EXPECT().Refresh(gomock.Any(), "refresh-1").
					Return(sleep.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil)
				tokens.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-2").
					Return(nil, fmt.Errorf("response error 500"))
			},
			wantAnyErr: true,
		},
		{
			name:         "failed refresh surfaces",
			activeSource: sleep.SourceFitbit,
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				tokens.EXPECT().Load(sleep.SourceFitbit).Return(stored, nil)
				provider.EXPECT().SleepWindow(gomock.Any(), date, "access-1").
					Return(nil, fmt.Errorf("response error 401"))
				provider.EXPECT().Refresh(gomock.Any(), "refresh-1").
					Return(sleep.Tokens{}, fmt.Errorf("response error 400"))
			},
			wantAnyErr: true,
		},
		{
			name:         "no stored tokens",
			activeSource: sleep.SourceFitbit,
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				tokens.EXPECT().Load(sleep.SourceFitbit).Return(nil, nil)
			},
			wantErr: sleep.ErrNotAuthenticated,
		},
		{
			name:         "no active source",
			activeSource: "",
			setup:        func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {},
			wantWindow:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, provider, tokens := newTestService(t, tt.activeSource)
			tt.setup(provider, tokens)

			got, err := service.Fetch(context.Background(), date)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.wantAnyErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWindow, got)
		})
	}
}

func TestService_AuthURL(t *testing.T) {
	t.Run("embeds a source-prefixed state", func(t *testing.T) {
		service, provider, _ := newTestService(t, sleep.SourceFitbit)
		provider.EXPECT().AuthURL(gomock.Any()).DoAndReturn(func(state string) string {
			assert.Contains(t, state, sleep.SourceFitbit+"_")
			return "https://example.com/auth?state=" + state
		})

		got, err := service.AuthURL(sleep.SourceFitbit)
		require.NoError(t, err)
		assert.Contains(t, got, "https://example.com/auth?state=fitbit_")
	})

	t.Run("unknown source", func(t *testing.T) {
		service, _, _ := newTestService(t, sleep.SourceFitbit)
		_, err := service.AuthURL("garmin")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestService_HandleCallback(t *testing.T) {
	tests := []struct {
		name           string
		source         string
		code           string
		setup          func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore)
		wantValidation bool
		wantErr        bool
	}{
		{
			name:   "exchanges and persists tokens",
			source: sleep.SourceFitbit,
			code:   "code-abc",
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				exchanged := sleep.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}
				provider.EXPECT().ExchangeCode(gomock.Any(), "code-abc").Return(exchanged, nil)
				tokens.EXPECT().Save(sleep.SourceFitbit, exchanged).Return(nil)
			},
		},
		{
			name:           "missing code",
			source:         sleep.SourceFitbit,
			code:           "",
			setup:          func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {},
			wantValidation: true,
		},
		{
			name:   "exchange failure",
			source: sleep.SourceFitbit,
			code:   "code-abc",
			setup: func(provider *mock_sleep.MockProvider, tokens *mock_sleep.MockTokenStore) {
				provider.EXPECT().ExchangeCode(gomock.Any(), "code-abc").
					Return(sleep.Tokens{}, fmt.Errorf("response error 400"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, provider, tokens := newTestService(t, sleep.SourceFitbit)
			tt.setup(provider, tokens)

			err := service.HandleCallback(context.Background(), tt.source, tt.code)
			if tt.wantValidation {
				assert.True(t, domain.IsValidation(err))
				return
			}
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestService_Connected(t *testing.T) {
	service, _, tokens := newTestService(t, sleep.SourceFitbit)
	tokens.EXPECT().Load(sleep.SourceFitbit).Return(&sleep.Tokens{AccessToken: "a"}, nil)

	connected, err := service.Connected(sleep.SourceFitbit)
	require.NoError(t, err)
	assert.True(t, connected)
}

func TestWindow_Markers(t *testing.T) {
	window := sleep.Window{
		Start: time.Date(2025, 2, 28, 23, 45, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC),
	}

	got := window.Markers()
	require.Len(t, got, 2)
	assert.Equal(t, sleep.Marker{Name: "Sleep start 23:45", Type: supplement.TypeSleepStart}, got[0])
	assert.Equal(t, sleep.Marker{Name: "Sleep end 07:30", Type: supplement.TypeSleepEnd}, got[1])
}
