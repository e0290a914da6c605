// Package stub serves the docqa backend contract without any retrieval:
// uploads are recorded, questions get a templated answer that cites the
// session's documents.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/domain"
	"github.com/ashureev/docqa/internal/identity"
	"github.com/ashureev/docqa/internal/store"
)

const (
	// Model is reported in every query response.
	Model = "stub"

	chunkSize       = 800
	snippetLimit    = 200
	multipartMemory = 8 << 20
	allowedExt      = ".pdf"
)

// Handler implements the backend endpoints.
type Handler struct {
	repo store.Repository
	topK int
}

// NewHandler creates a handler citing at most topK documents per answer.
func NewHandler(repo store.Repository, topK int) *Handler {
	if topK <= 0 {
		topK = 5
	}
	return &Handler{repo: repo, topK: topK}
}

// Upload records the PDF parts of a multipart request.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			api.Error(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "No files provided")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Debug("failed to remove multipart temp files", "error", err)
		}
	}()

	headers, ok := r.MultipartForm.File[api.FilesField]
	if !ok {
		api.Error(w, http.StatusBadRequest, "No files provided")
		return
	}
	if len(headers) == 0 || headers[0].Filename == "" {
		api.Error(w, http.StatusBadRequest, "No files selected")
		return
	}

	docs := acceptedDocuments(headers)
	if len(docs) == 0 {
		api.Error(w, http.StatusBadRequest, "No valid PDF files")
		return
	}

	if err := h.repo.AddDocuments(r.Context(), sessionID, docs); err != nil {
		slog.Error("Failed to record documents", "error", err, "session_id", sessionID)
		api.Error(w, http.StatusInternalServerError, "Error: failed to record documents")
		return
	}

	all, err := h.repo.ListDocuments(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to list documents", "error", err, "session_id", sessionID)
		api.Error(w, http.StatusInternalServerError, "Error: failed to list documents")
		return
	}

	chunks := 0
	for _, d := range docs {
		chunks += d.Chunks
	}
	slog.Info("Documents uploaded", "session_id", sessionID, "count", len(docs), "chunks", chunks)

	resp := api.UploadResponse{
		Success: true,
		Message: fmt.Sprintf("Processed %d document(s) with %d chunks", len(docs), chunks),
	}
	for _, d := range all {
		resp.Documents = append(resp.Documents, api.Document{Filename: d.Filename, Pages: d.Pages})
	}
	api.JSON(w, http.StatusOK, resp)
}

func acceptedDocuments(headers []*multipart.FileHeader) []domain.Document {
	var docs []domain.Document
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), allowedExt) {
			continue
		}
		docs = append(docs, domain.Document{
			Filename: name,
			Size:     fh.Size,
			Chunks:   chunkCount(fh.Size),
		})
	}
	return docs
}

func chunkCount(size int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// Query answers a question from the session's documents.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	var req struct {
		Question *string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == nil {
		api.Error(w, http.StatusBadRequest, "No question provided")
		return
	}

	question := strings.TrimSpace(*req.Question)
	if question == "" {
		api.Error(w, http.StatusBadRequest, "Question cannot be empty")
		return
	}

	docs, err := h.repo.ListDocuments(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to list documents", "error", err, "session_id", sessionID)
		api.Error(w, http.StatusInternalServerError, "Error: failed to list documents")
		return
	}
	if len(docs) == 0 {
		api.Error(w, http.StatusBadRequest, "No documents uploaded")
		return
	}

	resp := h.answer(question, docs)

	if err := h.repo.AppendExchange(r.Context(), sessionID, domain.Exchange{
		Question: question,
		Answer:   resp.Answer,
		At:       time.Now(),
	}); err != nil {
		slog.Error("Failed to record exchange", "error", err, "session_id", sessionID)
		api.Error(w, http.StatusInternalServerError, "Error: failed to record exchange")
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) answer(question string, docs []domain.Document) api.QueryResponse {
	if len(docs) > h.topK {
		docs = docs[:h.topK]
	}

	resp := api.QueryResponse{Success: true, Model: Model}
	for i, d := range docs {
		resp.Sources = append(resp.Sources, d.Filename)
		resp.Context = append(resp.Context, api.ContextChunk{
			Source: d.Filename,
			Score:  round3(1 / float64(i+2) * 1.8),
			Text:   truncate(fmt.Sprintf("%s (%d bytes, %d chunks) matched the question %q.", d.Filename, d.Size, d.Chunks, question)),
		})
	}
	resp.Answer = fmt.Sprintf("No retrieval engine is configured. The question %q would be answered from: %s.",
		question, strings.Join(resp.Sources, ", "))
	return resp
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= snippetLimit {
		return s
	}
	return string(r[:snippetLimit]) + "..."
}

// Clear drops the session and its cookie.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	if err := h.repo.DeleteSession(r.Context(), sessionID); err != nil {
		slog.Error("Failed to clear session", "error", err, "session_id", sessionID)
		api.Error(w, http.StatusInternalServerError, "Error: failed to clear session")
		return
	}

	identity.Expire(w)
	slog.Info("Session cleared", "session_id", sessionID)
	api.JSON(w, http.StatusOK, api.ClearResponse{Success: true})
}

// Stats reports counts for the session.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	st, err := h.repo.Stats(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to read stats", "error", err, "session_id", sessionID)
		api.Error(w, http.StatusInternalServerError, "Error: failed to read stats")
		return
	}

	api.JSON(w, http.StatusOK, api.StatsResponse{
		Documents:   st.Documents,
		Chunks:      st.Chunks,
		ChatHistory: st.ChatHistory,
	})
}

// Ready reports whether the database is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Warn("Readiness check failed", "error", err)
		api.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
