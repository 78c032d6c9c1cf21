package sleep

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/doselog/internal/config"
)

func fitbitTestConfig() config.SleepProviderConfig {
	return config.SleepProviderConfig{ClientID: "fitbit-id", ClientSecret: "fitbit-secret"}
}

func newTestFitbitClient(server *httptest.Server) *FitbitClient {
	return &FitbitClient{
		httpClient:       resty.New().SetBaseURL(server.URL),
		authorizeURL:     "https://www.fitbit.com/oauth2/authorize",
		clientID:         "fitbit-id",
		clientSecret:     "fitbit-secret",
		redirectURI:      "http://localhost:8080/api/sleep/fitbit/callback",
		maxRetryAttempts: 1,
	}
}

func TestFitbitClient_AuthURL(t *testing.T) {
	client := NewFitbitClient(fitbitTestConfig(), "http://localhost:8080", 1)

	got := client.AuthURL("state-123")
	assert.Contains(t, got, "https://www.fitbit.com/oauth2/authorize?")
	assert.Contains(t, got, "client_id=fitbit-id")
	assert.Contains(t, got, "response_type=code")
	assert.Contains(t, got, "scope=sleep")
	assert.Contains(t, got, "state=state-123")
	assert.Contains(t, got, "redirect_uri=http%3A%2F%2Flocalhost%3A8080%2Fapi%2Fsleep%2Ffitbit%2Fcallback")
}

func TestFitbitClient_ExchangeCode(t *testing.T) {
	tests := []struct {
		name              string
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantAccessToken   string
		wantError         bool
	}{
		{
			name: "exchanges the code with basic auth",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/oauth2/token", r.URL.Path)
				username, password, ok := r.BasicAuth()
				require.True(t, ok)
				assert.Equal(t, "fitbit-id", username)
				assert.Equal(t, "fitbit-secret", password)

				require.NoError(t, r.ParseForm())
				assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
				assert.Equal(t, "code-abc", r.PostForm.Get("code"))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]interface{}{
					"access_token":  "access-1",
					"refresh_token": "refresh-1",
					"expires_in":    28800,
				})
			},
			wantAccessToken: "access-1",
		},
		{
			name: "token endpoint error",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := newTestFitbitClient(server)
			got, err := client.ExchangeCode(context.Background(), "code-abc")
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccessToken, got.AccessToken)
			assert.Equal(t, "refresh-1", got.RefreshToken)
			assert.True(t, got.ExpiresAt.After(time.Now()))
		})
	}
}

func TestFitbitClient_SleepWindow(t *testing.T) {
	tests := []struct {
		name              string
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantWindow        *Window
		wantNil           bool
		wantError         bool
	}{
		{
			name: "returns the first sleep log of the date",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/1.2/user/-/sleep/date/2025-03-01.json", r.URL.Path)
				assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]interface{}{
					"sleep": []map[string]interface{}{
						{
							"startTime":  "2025-02-28T23:45:00.000",
							"endTime":    "2025-03-01T07:30:00.000",
							"efficiency": 92,
						},
					},
				})
			},
			wantWindow: &Window{
				Start:      time.Date(2025, 2, 28, 23, 45, 0, 0, time.UTC),
				End:        time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC),
				Efficiency: float64Ptr(92),
			},
		},
		{
			name: "no sleep recorded",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]interface{}{"sleep": []interface{}{}})
			},
			wantNil: true,
		},
		{
			name: "unauthorized is not retried",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := newTestFitbitClient(server)
			date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
			got, err := client.SleepWindow(context.Background(), date, "access-1")
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantWindow, got)
		})
	}
}

func TestFitbitClient_SleepWindow_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sleep": []map[string]interface{}{
				{
					"startTime":  "2025-02-28T23:00:00.000",
					"endTime":    "2025-03-01T06:00:00.000",
					"efficiency": 88,
				},
			},
		})
	}))
	defer server.Close()

	client := newTestFitbitClient(server)
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := client.SleepWindow(context.Background(), date, "access-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, calls)
}

func float64Ptr(v float64) *float64 {
	return &v
}
