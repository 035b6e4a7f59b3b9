package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"document-gpt/internal/conversation"
	"document-gpt/internal/extract"
	"document-gpt/internal/models"
	"document-gpt/internal/session"
	"document-gpt/internal/store"
)

// DocumentIndexer ingests uploaded files and resets the index.
type DocumentIndexer interface {
	IndexFile(ctx context.Context, path string) error
	Clear(ctx context.Context) error
}

// BackendResponder answers a query over a slice of completed turns.
type BackendResponder interface {
	ConverseBackend(ctx context.Context, prior []conversation.Turn, query string) string
}

// UserStore persists webhook users and their message histories.
type UserStore interface {
	Get(ctx context.Context, senderID string) (*store.User, error)
	Create(ctx context.Context, user *store.User) error
	AppendMessage(ctx context.Context, senderID, query, response string, currentCount int) error
}

// MessageSender delivers outbound replies on the messaging channel.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) error
}

type Handler struct {
	indexer       DocumentIndexer
	sessions      *session.Manager
	engine        BackendResponder
	generator     extract.Generator
	users         UserStore
	gateway       MessageSender
	senders       *session.KeyedMutex
	historyWindow int
}

type Deps struct {
	Indexer   DocumentIndexer
	Sessions  *session.Manager
	Engine    BackendResponder
	Generator extract.Generator
	Users     UserStore
	Gateway   MessageSender
	// HistoryWindow is how many stored exchanges feed the webhook
	// pipeline; defaults to 2.
	HistoryWindow int
}

func NewHandler(d Deps) *Handler {
	if d.HistoryWindow <= 0 {
		d.HistoryWindow = 2
	}
	return &Handler{
		indexer:       d.Indexer,
		sessions:      d.Sessions,
		engine:        d.Engine,
		generator:     d.Generator,
		users:         d.Users,
		gateway:       d.Gateway,
		senders:       session.NewKeyedMutex(),
		historyWindow: d.HistoryWindow,
	}
}

// Upload accepts a single document and indexes it. The file is staged
// in a private temp directory, never in the watched upload dir, so the
// directory watcher cannot pick up a half-written copy. The response is
// a human-readable status string either way; ingestion failures surface
// as their description, not as a 5xx.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// the staged file keeps its original base name so chunk ids stay
	// stable across re-uploads
	staging, err := os.MkdirTemp("", "upload-")
	if err != nil {
		log.Error().Err(err).Msg("creating staging dir failed")
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(staging)

	dst := filepath.Join(staging, filepath.Base(header.Filename))
	out, err := os.Create(dst)
	if err != nil {
		log.Error().Err(err).Str("file", dst).Msg("storing upload failed")
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	_, copyErr := io.Copy(out, file)
	out.Close()
	if copyErr != nil {
		log.Error().Err(copyErr).Str("file", dst).Msg("writing upload failed")
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	if err := h.indexer.IndexFile(r.Context(), dst); err != nil {
		log.Error().Err(err).Str("file", header.Filename).Msg("indexing failed")
		writeText(w, err.Error())
		return
	}
	writeText(w, models.UploadSuccessMessage)
}

// ClearIndex drops the whole vector collection.
func (h *Handler) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.indexer.Clear(r.Context()); err != nil {
		log.Error().Err(err).Msg("clearing index failed")
		http.Error(w, "failed to clear index", http.StatusInternalServerError)
		return
	}
	writeText(w, models.IndexClearedMessage)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Chat answers one interactive turn. Omitting session_id starts a new
// conversation.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message cannot be empty", http.StatusBadRequest)
		return
	}

	sessionID, reply, err := h.sessions.Converse(r.Context(), req.SessionID, req.Message)
	if err != nil {
		log.Error().Err(err).Msg("starting session failed")
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, chatResponse{SessionID: sessionID, Reply: reply})
}

// ChatHistory returns the transcript of an interactive session.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns := h.sessions.History(sessionID)
	if turns == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, turns)
}

type extractRequest struct {
	Question string `json:"question"`
}

// Extract runs the optional location/quantity extraction over a
// question. It never fails; unparseable output yields status -1.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, extract.Extract(r.Context(), h.generator, req.Question))
}

func writeText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(msg))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response failed")
	}
}
