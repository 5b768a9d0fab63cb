package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/relocation/internal/chat"
	"github.com/neexbeast/relocation/internal/images"
	"github.com/neexbeast/relocation/internal/voice"
)

const (
	searchLimit  = 20
	maxBodyBytes = 64 << 10
)

// Deps are the collaborators the handlers use. Runtime may be nil when no
// LLM key is configured.
type Deps struct {
	Repo          DestinationRepo
	Sessions      SessionStore
	Dispatcher    ToolDispatcher
	Runtime       ChatRuntime
	Images        ImageSearcher
	Voice         VoiceTokens
	VoiceConfigID string
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	Deps
	log *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(deps Deps, log *slog.Logger) *Handlers {
	return &Handlers{Deps: deps, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListDestinations handles GET /api/v1/destinations.
// ?slug= returns one destination, ?search= a ranked list, neither every enabled one.
func (h *Handlers) ListDestinations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if slug := q.Get("slug"); slug != "" {
		h.writeDestination(w, r, slug)
		return
	}

	if search := q.Get("search"); search != "" {
		dests, err := h.Repo.Search(r.Context(), search, searchLimit)
		if err != nil {
			h.log.Error("destination search failed", "query", search, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, dests)
		return
	}

	dests, err := h.Repo.ListEnabled(r.Context())
	if err != nil {
		h.log.Error("listing destinations failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dests)
}

// GetDestination handles GET /api/v1/destinations/{slug}.
func (h *Handlers) GetDestination(w http.ResponseWriter, r *http.Request) {
	h.writeDestination(w, r, chi.URLParam(r, "slug"))
}

func (h *Handlers) writeDestination(w http.ResponseWriter, r *http.Request, slug string) {
	dest, err := h.Repo.GetBySlug(r.Context(), slug)
	if err != nil {
		h.log.Error("db get failed", "slug", slug, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if dest == nil {
		writeError(w, http.StatusNotFound, "destination not found")
		return
	}
	writeJSON(w, http.StatusOK, dest)
}

// SearchImages handles GET /api/v1/images?query=&count=.
func (h *Handlers) SearchImages(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil {
		count = images.DefaultCount
	}

	writeJSON(w, http.StatusOK, h.Images.Search(r.Context(), query, images.ClampCount(count)))
}

// VoiceToken handles GET /api/v1/voice/token.
func (h *Handlers) VoiceToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.Voice.AccessToken(r.Context())
	if err != nil {
		if errors.Is(err, voice.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "Voice is not configured")
			return
		}
		h.log.Error("voice token fetch failed", "err", err)
		writeError(w, http.StatusBadGateway, "Failed to get access token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": tok})
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.Sessions.Create(r.Context())
	if err != nil {
		h.log.Error("session create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	st, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// loadSession resolves {id}, writing the error response when it cannot.
func (h *Handlers) loadSession(w http.ResponseWriter, r *http.Request) (*chat.State, bool) {
	id := chi.URLParam(r, "id")

	st, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		h.log.Error("session load failed", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return st, true
}

func (h *Handlers) saveSession(ctx context.Context, w http.ResponseWriter, st *chat.State) bool {
	if err := h.Sessions.Save(ctx, st); err != nil {
		h.log.Error("session save failed", "session", st.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	return true
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// InvokeTool handles POST /api/v1/sessions/{id}/tools/{name}.
// The body is the tool's argument object.
func (h *Handlers) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var args map[string]any
	if err := decodeBody(r, &args); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	cmd, err := chat.ParseToolCall(name, args)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	result := h.Dispatcher.Dispatch(r.Context(), st, cmd)
	h.log.Info("tool dispatched", "session", st.ID, "tool", cmd.Tool())

	if !h.saveSession(r.Context(), w, st) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result, "session": st})
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /api/v1/sessions/{id}/chat.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	if h.Runtime == nil {
		writeError(w, http.StatusServiceUnavailable, "Chat is not configured")
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	st, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	reply, err := h.Runtime.Reply(ctx, st, req.Message)
	if err != nil {
		h.log.Error("chat runtime failed", "session", st.ID, "err", err)
		writeError(w, http.StatusBadGateway, "The assistant is unavailable. Please try again.")
		return
	}

	if !h.saveSession(r.Context(), w, st) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": reply, "session": st})
}

// ToggleVoice handles POST /api/v1/sessions/{id}/voice/toggle.
// A failed connect leaves the session idle.
func (h *Handlers) ToggleVoice(w http.ResponseWriter, r *http.Request) {
	st, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	vs := voice.NewSession(h.Voice, h.VoiceConfigID, st.VoiceStatus, h.log.With("session", st.ID))
	conn, err := vs.Toggle(r.Context())
	st.VoiceStatus = vs.Status()

	if errors.Is(err, voice.ErrBusy) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if !h.saveSession(r.Context(), w, st) {
		return
	}

	switch {
	case errors.Is(err, voice.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Voice is not configured")
	case err != nil:
		writeError(w, http.StatusBadGateway, "Failed to connect voice session")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": st.VoiceStatus, "connection": conn})
	}
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc handles GET /api/v1/health. It pings DB and Redis and
// returns 200 if both are ok, 503 otherwise. A nil redis is reported as disabled and does not degrade the status.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "disabled"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if redis != nil {
			redisStatus = "ok"
			if err := redis.Ping(ctx); err != nil {
				log.Error("health check: redis ping failed", "err", err)
				redisStatus = "error"
				status = http.StatusServiceUnavailable
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
