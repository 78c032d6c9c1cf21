package server_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/doselog/internal/domain"
	"github.com/at-ishikawa/doselog/internal/entry"
	mock_entry "github.com/at-ishikawa/doselog/internal/mocks/entry"
	mock_server "github.com/at-ishikawa/doselog/internal/mocks/server"
	mock_supplement "github.com/at-ishikawa/doselog/internal/mocks/supplement"
	mock_tag "github.com/at-ishikawa/doselog/internal/mocks/tag"
	"github.com/at-ishikawa/doselog/internal/server"
	"github.com/at-ishikawa/doselog/internal/sleep"
	"github.com/at-ishikawa/doselog/internal/supplement"
	"github.com/at-ishikawa/doselog/internal/tag"
)

type handlerMocks struct {
	supplements *mock_supplement.MockSupplementRepository
	entries     *mock_entry.MockEntryRepository
	tags        *mock_tag.MockTagRepository
	sleep       *mock_server.MockSleepService
}

func newTestHandler(t *testing.T) (http.Handler, handlerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mocks := handlerMocks{
		supplements: mock_supplement.NewMockSupplementRepository(ctrl),
		entries:     mock_entry.NewMockEntryRepository(ctrl),
		tags:        mock_tag.NewMockTagRepository(ctrl),
		sleep:       mock_server.NewMockSleepService(ctrl),
	}
	handler := server.NewHandler(mocks.supplements, mocks.entries, mocks.tags, mocks.sleep, slog.Default())
	return handler.Routes(), mocks
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestHandler_Supplements(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().FindAll(gomock.Any(), true).
			Return([]supplement.Supplement{{ID: 1, Name: "creatine", Tags: []tag.Tag{}}}, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/supplements?filter_hidden=true", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var got []supplement.Supplement
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, "creatine", got[0].Name)
	})

	t.Run("create", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().
			Create(gomock.Any(), supplement.CreateParams{Name: "magnesium", Type: "regular"}).
			Return(&supplement.Supplement{ID: 2, Name: "magnesium", Type: "regular"}, nil)

		recorder := doRequest(t, mux, http.MethodPost, "/api/supplements",
			`{"name": "magnesium", "type": "regular"}`)
		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("create with an empty name is a 400", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, &domain.ValidationError{Message: "supplement name must not be empty"})

		recorder := doRequest(t, mux, http.MethodPost, "/api/supplements", `{"name": ""}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("get missing is a 404", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().FindByID(gomock.Any(), int64(42)).Return(nil, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/supplements/42", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("non-numeric id is a 400", func(t *testing.T) {
		mux, _ := newTestHandler(t)
		recorder := doRequest(t, mux, http.MethodGet, "/api/supplements/abc", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("toggle", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().ToggleHidden(gomock.Any(), int64(1)).
			Return(&supplement.Supplement{ID: 1, Hidden: true}, nil)

		recorder := doRequest(t, mux, http.MethodPost, "/api/supplements/1/toggle", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("set tags to empty", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().SetTags(gomock.Any(), int64(1), []int64{}).
			Return(&supplement.Supplement{ID: 1, Tags: []tag.Tag{}}, nil)

		recorder := doRequest(t, mux, http.MethodPut, "/api/supplements/1/tags", `{"tagIds": []}`)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("history", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().RatingHistory(gomock.Any(), int64(1)).
			Return([]supplement.RatingPoint{{Date: 1740787200000, Rating: 8}}, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/supplements/1/history", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var got []supplement.RatingPoint
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, []supplement.RatingPoint{{Date: 1740787200000, Rating: 8}}, got)
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.supplements.EXPECT().FindAll(gomock.Any(), false).
			Return(nil, fmt.Errorf("connection refused"))

		recorder := doRequest(t, mux, http.MethodGet, "/api/supplements", "")
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestHandler_Entries(t *testing.T) {
	t.Run("upsert", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.entries.EXPECT().Upsert(gomock.Any(), entry.UpsertParams{
			DateMillis:    1740787200000,
			Rating:        8,
			Notes:         "good",
			SupplementIDs: []int64{1, 2},
		}).Return(&entry.Entry{ID: 5, Date: 1740787200000, Rating: 8}, nil)

		recorder := doRequest(t, mux, http.MethodPost, "/api/entries",
			`{"date": 1740787200000, "rating": 8, "notes": "good", "supplementIds": [1, 2]}`)
		require.Equal(t, http.StatusCreated, recorder.Code)

		var got entry.Entry
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, int64(5), got.ID)
	})

	t.Run("upsert conflict is a 409", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.entries.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			Return(nil, &domain.ConflictError{Message: "concurrent upsert"})

		recorder := doRequest(t, mux, http.MethodPost, "/api/entries",
			`{"date": 1740787200000, "rating": 8}`)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("upsert with an invalid rating is a 400", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.entries.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			Return(nil, &domain.ValidationError{Message: "rating must be between 1 and 10, got 11"})

		recorder := doRequest(t, mux, http.MethodPost, "/api/entries",
			`{"date": 1740787200000, "rating": 11}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		mux, _ := newTestHandler(t)
		recorder := doRequest(t, mux, http.MethodPost, "/api/entries", "{not json")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("update missing entry is a 404", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.entries.EXPECT().Update(gomock.Any(), int64(99), gomock.Any()).
			Return(nil, &domain.NotFoundError{Resource: "daily_entry", ID: 99})

		recorder := doRequest(t, mux, http.MethodPatch, "/api/entries/99", `{"rating": 5}`)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("delete is a 204", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.entries.EXPECT().Delete(gomock.Any(), int64(3)).Return(nil)

		recorder := doRequest(t, mux, http.MethodDelete, "/api/entries/3", "")
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

func TestHandler_Tags(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.tags.EXPECT().FindAll(gomock.Any()).Return([]tag.Tag{{ID: 1, Name: "morning"}}, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/tags", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("create", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.tags.EXPECT().Create(gomock.Any(), "evening").Return(&tag.Tag{ID: 2, Name: "evening"}, nil)

		recorder := doRequest(t, mux, http.MethodPost, "/api/tags", `{"name": "evening"}`)
		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("delete", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.tags.EXPECT().Delete(gomock.Any(), int64(2)).Return(nil)

		recorder := doRequest(t, mux, http.MethodDelete, "/api/tags/2", "")
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

func TestHandler_Sleep(t *testing.T) {
	window := &sleep.Window{
		Start: time.Date(2025, 2, 28, 23, 45, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC),
	}

	t.Run("missing date is a 400", func(t *testing.T) {
		mux, _ := newTestHandler(t)
		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("no active source", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().ActiveSource().Return("")

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep?date=2025-03-01", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, "none", got["source"])
	})

	t.Run("not authenticated", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().ActiveSource().Return(sleep.SourceFitbit)
		mocks.sleep.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, sleep.ErrNotAuthenticated)

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep?date=2025-03-01", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, "not authenticated", got["error"])
	})

	t.Run("window creates the two synthetic supplements", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().ActiveSource().Return(sleep.SourceFitbit)
		mocks.sleep.EXPECT().Fetch(gomock.Any(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)).
			Return(window, nil)
		mocks.supplements.EXPECT().FindOrCreateByName(gomock.Any(), supplement.CreateParams{
			Name:   "Sleep start 23:45",
			Hidden: true,
			Type:   supplement.TypeSleepStart,
		}).Return(&supplement.Supplement{ID: 10, Name: "Sleep start 23:45"}, nil)
		mocks.supplements.EXPECT().FindOrCreateByName(gomock.Any(), supplement.CreateParams{
			Name:   "Sleep end 07:30",
			Hidden: true,
			Type:   supplement.TypeSleepEnd,
		}).Return(&supplement.Supplement{ID: 11, Name: "Sleep end 07:30"}, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep?date=2025-03-01", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var got struct {
			Source      string                  `json:"source"`
			Supplements []supplement.Supplement `json:"supplements"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, sleep.SourceFitbit, got.Source)
		require.Len(t, got.Supplements, 2)
		assert.Equal(t, int64(10), got.Supplements[0].ID)
		assert.Equal(t, int64(11), got.Supplements[1].ID)
	})

	t.Run("millisecond date parameter", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().ActiveSource().Return(sleep.SourceWhoop)
		mocks.sleep.EXPECT().Fetch(gomock.Any(), time.UnixMilli(1740787200000).UTC()).Return(nil, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep?date=1740787200000", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("auth redirects to the provider", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().AuthURL(sleep.SourceFitbit).
			Return("https://www.fitbit.com/oauth2/authorize?state=abc", nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep/fitbit/auth", "")
		require.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, "https://www.fitbit.com/oauth2/authorize?state=abc", recorder.Header().Get("Location"))
	})

	t.Run("unknown source on auth is a 400", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().AuthURL("garmin").
			Return("", &domain.ValidationError{Message: `unknown sleep source "garmin"`})

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep/garmin/auth", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("callback stores tokens", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().HandleCallback(gomock.Any(), sleep.SourceWhoop, "code-abc").Return(nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep/whoop/callback?code=code-abc", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("status", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().Connected(sleep.SourceFitbit).Return(true, nil)

		recorder := doRequest(t, mux, http.MethodGet, "/api/sleep/fitbit/status", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var got map[string]bool
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.True(t, got["connected"])
	})

	t.Run("logout", func(t *testing.T) {
		mux, mocks := newTestHandler(t)
		mocks.sleep.EXPECT().Logout(sleep.SourceFitbit).Return(nil)

		recorder := doRequest(t, mux, http.MethodPost, "/api/sleep/fitbit/logout", "")
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := server.CORSMiddleware([]string{"http://localhost:3000"}, next)

	t.Run("allows a configured origin", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		request.Header.Set("Origin", "http://localhost:3000")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("ignores an unknown origin", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		request.Header.Set("Origin", "http://evil.example.com")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodOptions, "/api/tags", nil)
		request.Header.Set("Origin", "http://localhost:3000")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}
