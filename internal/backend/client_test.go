package backend

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/domain"
	"github.com/ashureev/docqa/internal/store"
	"github.com/ashureev/docqa/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubClient(t *testing.T) *Client {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "stub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	srv := httptest.NewServer(stub.NewRouter(repo, stub.RouterOptions{TopK: 5}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func newRawClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}

func TestUploadSendsOneMultipartRequest(t *testing.T) {
	var got []string
	var contentTypes []string
	c := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathUpload, r.URL.Path)
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			assert.Equal(t, api.FilesField, part.FormName())
			got = append(got, part.FileName())
			contentTypes = append(contentTypes, part.Header.Get("Content-Type"))
		}
		api.JSON(w, http.StatusOK, api.UploadResponse{Success: true, Message: "2 files indexed"})
	})

	resp, err := c.Upload(context.Background(), []domain.File{
		domain.NewMemoryFile("a.pdf", []byte("%PDF-a")),
		domain.NewMemoryFile("b.pdf", []byte("%PDF-b")),
	})

	require.NoError(t, err)
	assert.Equal(t, "2 files indexed", resp.Message)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, got)
	assert.Equal(t, []string{"application/pdf", "application/pdf"}, contentTypes)
}

func TestApplicationFailure(t *testing.T) {
	c := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, api.UploadResponse{Success: false, Error: "bad file"})
	})

	_, err := c.Upload(context.Background(), []domain.File{domain.NewMemoryFile("a.pdf", nil)})

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindApplication, be.Kind)
	assert.Equal(t, "bad file", MessageOf(err, "Upload failed"))
	assert.False(t, IsTransport(err))
}

func TestHTTPFailureCarriesServerMessage(t *testing.T) {
	c := newStubClient(t)

	_, err := c.Query(context.Background(), "What is X?")

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindHTTP, be.Kind)
	assert.Equal(t, http.StatusBadRequest, be.StatusCode)
	assert.Equal(t, "No documents uploaded", MessageOf(err, "Error occurred"))
}

func TestHTTPFailureWithUndecodableBody(t *testing.T) {
	c := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	})

	_, err := c.Query(context.Background(), "q")

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindHTTP, be.Kind)
	assert.Equal(t, "Error occurred", MessageOf(err, "Error occurred"))
}

func TestUnreadableFileIsLocalFailure(t *testing.T) {
	calls := 0
	c := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	path := filepath.Join(t.TempDir(), "gone.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	f, err := domain.FileFromPath(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = c.Upload(context.Background(), []domain.File{f})

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindLocal, be.Kind)
	assert.False(t, IsTransport(err))
	assert.Equal(t, "Cannot read gone.pdf", MessageOf(err, "Upload failed"))
	assert.Zero(t, calls)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), "q")
	assert.True(t, IsTransport(err))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	c := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.Stats(context.Background())

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClearUsesStatusOnly(t *testing.T) {
	c := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.Clear(context.Background()))

	failing := newRawClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := failing.Clear(context.Background())
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindHTTP, be.Kind)
}

func TestSessionCookieSurvivesAcrossCalls(t *testing.T) {
	c := newStubClient(t)
	ctx := context.Background()

	up, err := c.Upload(ctx, []domain.File{domain.NewMemoryFile("doc1.pdf", []byte("%PDF"))})
	require.NoError(t, err)
	assert.Equal(t, []domain.Document{{Filename: "doc1.pdf"}}, up.DomainDocuments())

	q, err := c.Query(ctx, "What is X?")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1.pdf"}, q.Sources)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Documents: 1, Chunks: 1, ChatHistory: 1}, st.Domain())

	require.NoError(t, c.Clear(ctx))
	st, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, st.Domain())
}
