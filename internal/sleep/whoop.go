package sleep

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/at-ishikawa/doselog/internal/config"
)

// WhoopClient talks to the WHOOP developer API. Unlike Fitbit, token
// endpoints take the application credentials as form fields, and the sleep
// endpoint is a range query that can include naps.
type WhoopClient struct {
	httpClient       *resty.Client
	clientID         string
	clientSecret     string
	redirectURI      string
	maxRetryAttempts uint
}

func NewWhoopClient(cfg config.SleepProviderConfig, redirectBaseURL string, retryAttempts uint) *WhoopClient {
	client := resty.New()
	client.SetBaseURL("https://api.prod.whoop.com")

	return &WhoopClient{
		httpClient:       client,
		clientID:         cfg.ClientID,
		clientSecret:     cfg.ClientSecret,
		redirectURI:      redirectBaseURL + "/api/sleep/whoop/callback",
		maxRetryAttempts: retryAttempts,
	}
}

func (client *WhoopClient) Source() string {
	return SourceWhoop
}

func (client *WhoopClient) AuthURL(state string) string {
	query := url.Values{
		"response_type": {"code"},
		"client_id":     {client.clientID},
		"redirect_uri":  {client.redirectURI},
		"scope":         {"offline read:sleep read:profile"},
		"state":         {state},
	}
	return client.httpClient.BaseURL + "/oauth/oauth2/auth?" + query.Encode()
}

func (client *WhoopClient) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	return client.requestTokens(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  client.redirectURI,
		"client_id":     client.clientID,
		"client_secret": client.clientSecret,
	})
}

func (client *WhoopClient) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	return client.requestTokens(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     client.clientID,
		"client_secret": client.clientSecret,
	})
}

func (client *WhoopClient) requestTokens(ctx context.Context, form map[string]string) (Tokens, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(form).
		SetResult(&oauthTokenResponse{}).
		Post("/oauth/oauth2/token")
	if err != nil {
		return Tokens{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return Tokens{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	body := response.Result().(*oauthTokenResponse)
	if body.AccessToken == "" {
		return Tokens{}, fmt.Errorf("empty access token in response: %s", response.String())
	}
	return body.tokens(time.Now()), nil
}

type whoopSleepCollection struct {
	Records []struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Nap   bool   `json:"nap"`
		Score *struct {
			SleepEfficiencyPercentage float64 `json:"sleep_efficiency_percentage"`
		} `json:"score"`
	} `json:"records"`
}

// SleepWindow fetches the first non-nap sleep activity overlapping the date.
func (client *WhoopClient) SleepWindow(ctx context.Context, date time.Time, accessToken string) (*Window, error) {
	var result *Window
	if err := retry.Do(
		func() error {
			window, err := client.sleepWindow(ctx, date, accessToken)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = window
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
	); err != nil {
		return nil, err
	}
	return result, nil
}

func (client *WhoopClient) sleepWindow(ctx context.Context, date time.Time, accessToken string) (*Window, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParams(map[string]string{
			"start": dayStart.Format(time.RFC3339),
			"end":   dayEnd.Format(time.RFC3339),
		}).
		SetResult(&whoopSleepCollection{}).
		Get("/developer/v2/activity/sleep")
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	body := response.Result().(*whoopSleepCollection)
	for _, record := range body.Records {
		if record.Nap {
			continue
		}
		start, err := time.Parse(time.RFC3339, record.Start)
		if err != nil {
			return nil, fmt.Errorf("time.Parse(%s) > %w", record.Start, err)
		}
		end, err := time.Parse(time.RFC3339, record.End)
		if err != nil {
			return nil, fmt.Errorf("time.Parse(%s) > %w", record.End, err)
		}
		window := &Window{Start: start, End: end}
		if record.Score != nil {
			efficiency := record.Score.SleepEfficiencyPercentage
			window.Efficiency = &efficiency
		}
		return window, nil
	}
	return nil, nil
}
