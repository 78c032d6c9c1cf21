package sleep

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/at-ishikawa/doselog/internal/config"
)

const fitbitTimeLayout = "2006-01-02T15:04:05.000"

// FitbitClient talks to the Fitbit Web API. Sleep windows come from the
// sleep log of the given date; token endpoints use HTTP basic auth with the
// application credentials.
type FitbitClient struct {
	httpClient       *resty.Client
	authorizeURL     string
	clientID         string
	clientSecret     string
	redirectURI      string
	maxRetryAttempts uint
}

func NewFitbitClient(cfg config.SleepProviderConfig, redirectBaseURL string, retryAttempts uint) *FitbitClient {
	client := resty.New()
	client.SetBaseURL("https://api.fitbit.com")

	return &FitbitClient{
		httpClient:       client,
		authorizeURL:     "https://www.fitbit.com/oauth2/authorize",
		clientID:         cfg.ClientID,
		clientSecret:     cfg.ClientSecret,
		redirectURI:      redirectBaseURL + "/api/sleep/fitbit/callback",
		maxRetryAttempts: retryAttempts,
	}
}

func (client *FitbitClient) Source() string {
	return SourceFitbit
}

func (client *FitbitClient) AuthURL(state string) string {
	query := url.Values{
		"response_type": {"code"},
		"client_id":     {client.clientID},
		"redirect_uri":  {client.redirectURI},
		"scope":         {"sleep"},
		"state":         {state},
	}
	return client.authorizeURL + "?" + query.Encode()
}

func (client *FitbitClient) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	return client.requestTokens(ctx, map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": client.redirectURI,
	})
}

func (client *FitbitClient) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	return client.requestTokens(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

type oauthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (body oauthTokenResponse) tokens(now time.Time) Tokens {
	return Tokens{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(body.ExpiresIn) * time.Second),
	}
}

func (client *FitbitClient) requestTokens(ctx context.Context, form map[string]string) (Tokens, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(client.clientID, client.clientSecret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(form).
		SetResult(&oauthTokenResponse{}).
		Post("/oauth2/token")
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

type fitbitSleepResponse struct {
	Sleep []struct {
		StartTime  string `json:"startTime"`
		EndTime    string `json:"endTime"`
		Efficiency int    `json:"efficiency"`
	} `json:"sleep"`
}

// SleepWindow fetches the first sleep log of the date. Transient failures
// are retried with backoff before surfacing an error.
func (client *FitbitClient) SleepWindow(ctx context.Context, date time.Time, accessToken string) (*Window, error) {
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

func (client *FitbitClient) sleepWindow(ctx context.Context, date time.Time, accessToken string) (*Window, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&fitbitSleepResponse{}).
		Get(fmt.Sprintf("/1.2/user/-/sleep/date/%s.json", date.Format("2006-01-02")))
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	body := response.Result().(*fitbitSleepResponse)
	if len(body.Sleep) == 0 {
		return nil, nil
	}
	log := body.Sleep[0]
	start, err := time.Parse(fitbitTimeLayout, log.StartTime)
	if err != nil {
		return nil, fmt.Errorf("time.Parse(%s) > %w", log.StartTime, err)
	}
	end, err := time.Parse(fitbitTimeLayout, log.EndTime)
	if err != nil {
		return nil, fmt.Errorf("time.Parse(%s) > %w", log.EndTime, err)
	}
	efficiency := float64(log.Efficiency)
	return &Window{
		Start:      start,
		End:        end,
		Efficiency: &efficiency,
	}, nil
}

// isRetryableError reports whether a provider request is worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	// Server errors and rate limiting.
	if strings.Contains(errStr, "response error 5") {
		return true
	}
	if strings.Contains(errStr, fmt.Sprintf("response error %d", http.StatusTooManyRequests)) {
		return true
	}
	return false
}
