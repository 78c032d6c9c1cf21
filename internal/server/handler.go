// Package server provides the JSON HTTP API over the journal repositories
// and the sleep integration.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/at-ishikawa/doselog/internal/domain"
	"github.com/at-ishikawa/doselog/internal/entry"
	"github.com/at-ishikawa/doselog/internal/sleep"
	"github.com/at-ishikawa/doselog/internal/supplement"
	"github.com/at-ishikawa/doselog/internal/tag"
)

//go:generate mockgen -source=handler.go -destination=../mocks/server/mock_sleep_service.go -package=mock_server

// SleepService is the sleep integration surface the handler depends on.
type SleepService interface {
	ActiveSource() string
	AuthURL(source string) (string, error)
	HandleCallback(ctx context.Context, source, code string) error
	Connected(source string) (bool, error)
	Logout(source string) error
	Fetch(ctx context.Context, date time.Time) (*sleep.Window, error)
}

// Handler serves the journal API.
type Handler struct {
	supplements supplement.SupplementRepository
	entries     entry.EntryRepository
	tags        tag.TagRepository
	sleep       SleepService
	logger      *slog.Logger
}

func NewHandler(
	supplements supplement.SupplementRepository,
	entries entry.EntryRepository,
	tags tag.TagRepository,
	sleepService SleepService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		supplements: supplements,
		entries:     entries,
		tags:        tags,
		sleep:       sleepService,
		logger:      logger,
	}
}

// Routes returns the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/supplements", h.listSupplements)
	mux.HandleFunc("POST /api/supplements", h.createSupplement)
	mux.HandleFunc("GET /api/supplements/{id}", h.getSupplement)
	mux.HandleFunc("PATCH /api/supplements/{id}", h.updateSupplement)
	mux.HandleFunc("DELETE /api/supplements/{id}", h.deleteSupplement)
	mux.HandleFunc("POST /api/supplements/{id}/toggle", h.toggleSupplement)
	mux.HandleFunc("PUT /api/supplements/{id}/tags", h.setSupplementTags)
	mux.HandleFunc("GET /api/supplements/{id}/history", h.supplementHistory)

	mux.HandleFunc("GET /api/entries", h.listEntries)
	mux.HandleFunc("POST /api/entries", h.upsertEntry)
	mux.HandleFunc("GET /api/entries/{id}", h.getEntry)
	mux.HandleFunc("PATCH /api/entries/{id}", h.updateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", h.deleteEntry)

	mux.HandleFunc("GET /api/tags", h.listTags)
	mux.HandleFunc("POST /api/tags", h.createTag)
	mux.HandleFunc("DELETE /api/tags/{id}", h.deleteTag)

	mux.HandleFunc("GET /api/sleep", h.getSleep)
	mux.HandleFunc("GET /api/sleep/{source}/auth", h.sleepAuth)
	mux.HandleFunc("GET /api/sleep/{source}/callback", h.sleepCallback)
	mux.HandleFunc("GET /api/sleep/{source}/status", h.sleepStatus)
	mux.HandleFunc("POST /api/sleep/{source}/logout", h.sleepLogout)

	return mux
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsConflict(err):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, body interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("invalid id %q", r.PathValue("id"))}
	}
	return id, nil
}

func (h *Handler) listSupplements(w http.ResponseWriter, r *http.Request) {
	filterHidden, _ := strconv.ParseBool(r.URL.Query().Get("filter_hidden"))
	supplements, err := h.supplements.FindAll(r.Context(), filterHidden)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, supplements)
}

type createSupplementRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Hidden      bool    `json:"hidden"`
	Type        string  `json:"type"`
}

func (h *Handler) createSupplement(w http.ResponseWriter, r *http.Request) {
	var body createSupplementRequest
	if !h.decode(w, r, &body) {
		return
	}
	created, err := h.supplements.Create(r.Context(), supplement.CreateParams{
		Name:        body.Name,
		Description: body.Description,
		Hidden:      body.Hidden,
		Type:        body.Type,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getSupplement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	found, err := h.supplements.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if found == nil {
		h.writeError(w, r, &domain.NotFoundError{Resource: "supplement", ID: id})
		return
	}
	h.writeJSON(w, http.StatusOK, found)
}

type updateSupplementRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Hidden      *bool   `json:"hidden"`
	Type        *string `json:"type"`
	TagIDs      []int64 `json:"tagIds"`
}

func (h *Handler) updateSupplement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body updateSupplementRequest
	if !h.decode(w, r, &body) {
		return
	}
	updated, err := h.supplements.Update(r.Context(), id, supplement.UpdateParams{
		Name:        body.Name,
		Description: body.Description,
		Hidden:      body.Hidden,
		Type:        body.Type,
		TagIDs:      body.TagIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteSupplement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.supplements.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) toggleSupplement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	toggled, err := h.supplements.ToggleHidden(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toggled)
}

type setTagsRequest struct {
	TagIDs []int64 `json:"tagIds"`
}

func (h *Handler) setSupplementTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body setTagsRequest
	if !h.decode(w, r, &body) {
		return
	}
	if body.TagIDs == nil {
		body.TagIDs = []int64{}
	}
	updated, err := h.supplements.SetTags(r.Context(), id, body.TagIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) supplementHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	history, err := h.supplements.RatingHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.FindAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

type upsertEntryRequest struct {
	Date          int64   `json:"date"`
	Rating        int     `json:"rating"`
	Notes         string  `json:"notes"`
	SupplementIDs []int64 `json:"supplementIds"`
}

func (h *Handler) upsertEntry(w http.ResponseWriter, r *http.Request) {
	var body upsertEntryRequest
	if !h.decode(w, r, &body) {
		return
	}
	upserted, err := h.entries.Upsert(r.Context(), entry.UpsertParams{
		DateMillis:    body.Date,
		Rating:        body.Rating,
		Notes:         body.Notes,
		SupplementIDs: body.SupplementIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, upserted)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	found, err := h.entries.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if found == nil {
		h.writeError(w, r, &domain.NotFoundError{Resource: "daily_entry", ID: id})
		return
	}
	h.writeJSON(w, http.StatusOK, found)
}

type updateEntryRequest struct {
	Rating        *int    `json:"rating"`
	Notes         *string `json:"notes"`
	SupplementIDs []int64 `json:"supplementIds"`
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body updateEntryRequest
	if !h.decode(w, r, &body) {
		return
	}
	updated, err := h.entries.Update(r.Context(), id, entry.UpdateParams{
		Rating:        body.Rating,
		Notes:         body.Notes,
		SupplementIDs: body.SupplementIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.entries.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.FindAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tags)
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var body createTagRequest
	if !h.decode(w, r, &body) {
		return
	}
	created, err := h.tags.Create(r.Context(), body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.tags.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

type sleepResponse struct {
	StartTime   *time.Time              `json:"startTime"`
	EndTime     *time.Time              `json:"endTime"`
	Efficiency  *float64                `json:"efficiency"`
	Source      string                  `json:"source"`
	Supplements []supplement.Supplement `json:"supplements,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// getSleep fetches the active source's sleep window for the date and
// find-or-creates the two synthetic supplement markers so the caller can
// attach them to the day's entry.
func (h *Handler) getSleep(w http.ResponseWriter, r *http.Request) {
	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		h.writeError(w, r, &domain.ValidationError{Message: "date parameter is required"})
		return
	}
	date, err := parseDateParam(dateParam)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	source := h.sleep.ActiveSource()
	if source == "" {
		h.writeJSON(w, http.StatusOK, sleepResponse{Source: "none"})
		return
	}

	window, err := h.sleep.Fetch(r.Context(), date)
	if errors.Is(err, sleep.ErrNotAuthenticated) {
		h.writeJSON(w, http.StatusOK, sleepResponse{Source: source, Error: "not authenticated"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if window == nil {
		h.writeJSON(w, http.StatusOK, sleepResponse{Source: source})
		return
	}

	response := sleepResponse{
		StartTime:  &window.Start,
		EndTime:    &window.End,
		Efficiency: window.Efficiency,
		Source:     source,
	}
	for _, marker := range window.Markers() {
		created, err := h.supplements.FindOrCreateByName(r.Context(), supplement.CreateParams{
			Name:   marker.Name,
			Hidden: true,
			Type:   marker.Type,
		})
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		response.Supplements = append(response.Supplements, *created)
	}
	h.writeJSON(w, http.StatusOK, response)
}

// parseDateParam accepts either milliseconds since epoch or a YYYY-MM-DD
// day.
func parseDateParam(value string) (time.Time, error) {
	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Message: fmt.Sprintf("invalid date %q", value)}
	}
	return date, nil
}

func (h *Handler) sleepAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.sleep.AuthURL(r.PathValue("source"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) sleepCallback(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	if err := h.sleep.HandleCallback(r.Context(), source, r.URL.Query().Get("code")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "connected", "source": source})
}

func (h *Handler) sleepStatus(w http.ResponseWriter, r *http.Request) {
	connected, err := h.sleep.Connected(r.PathValue("source"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

func (h *Handler) sleepLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sleep.Logout(r.PathValue("source")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
