package api

import "github.com/ashureev/docqa/internal/domain"

// Backend routes.
const (
	PathUpload = "/upload"
	PathQuery  = "/query"
	PathClear  = "/clear"
	PathStats  = "/stats"
)

// FilesField is the multipart field carrying each uploaded document.
const FilesField = "files"

// Envelope is implemented by response bodies that carry the
// success/error pair.
type Envelope interface {
	OK() bool
	ErrorText() string
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK reports the success flag.
func (r *ErrorResponse) OK() bool { return r.Success }

// ErrorText returns the server-supplied error message.
func (r *ErrorResponse) ErrorText() string { return r.Error }

// Document describes one indexed document.
type Document struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
	Documents []Document `json:"documents,omitempty"`
}

// OK reports the success flag.
func (r *UploadResponse) OK() bool { return r.Success }

// ErrorText returns the server-supplied error message.
func (r *UploadResponse) ErrorText() string { return r.Error }

// DomainDocuments converts the indexed document list.
func (r *UploadResponse) DomainDocuments() []domain.Document {
	if r == nil || len(r.Documents) == 0 {
		return nil
	}
	docs := make([]domain.Document, 0, len(r.Documents))
	for _, d := range r.Documents {
		docs = append(docs, domain.Document{Filename: d.Filename, Pages: d.Pages})
	}
	return docs
}

// QueryRequest is the body sent to POST /query.
type QueryRequest struct {
	Question string `json:"question"`
}

// ContextChunk is a retrieved passage supporting an answer.
type ContextChunk struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Success bool           `json:"success"`
	Answer  string         `json:"answer,omitempty"`
	Sources []string       `json:"sources,omitempty"`
	Context []ContextChunk `json:"context,omitempty"`
	Model   string         `json:"model,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OK reports the success flag.
func (r *QueryResponse) OK() bool { return r.Success }

// ErrorText returns the server-supplied error message.
func (r *QueryResponse) ErrorText() string { return r.Error }

// Entries converts the context chunks for the context panel.
func (r *QueryResponse) Entries() []domain.ContextEntry {
	if r == nil || len(r.Context) == 0 {
		return nil
	}
	entries := make([]domain.ContextEntry, 0, len(r.Context))
	for _, c := range r.Context {
		entries = append(entries, domain.ContextEntry{Source: c.Source, Score: c.Score, Text: c.Text})
	}
	return entries
}

// ClearResponse is the body returned by POST /clear. Clients consult the
// status code only.
type ClearResponse struct {
	Success bool `json:"success"`
}

// StatsResponse is the body returned by GET /stats.
type StatsResponse struct {
	Documents   int `json:"documents"`
	Chunks      int `json:"chunks"`
	ChatHistory int `json:"chat_history"`
}

// Domain converts the response.
func (r *StatsResponse) Domain() domain.Stats {
	return domain.Stats{Documents: r.Documents, Chunks: r.Chunks, ChatHistory: r.ChatHistory}
}
