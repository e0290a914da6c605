package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/docqa/internal/backend"
	"github.com/ashureev/docqa/internal/store"
	"github.com/ashureev/docqa/internal/stub"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type harness struct {
	app *App
	out *bytes.Buffer
	err *bytes.Buffer
}

func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "stub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	srv := httptest.NewServer(stub.NewRouter(repo, stub.RouterOptions{TopK: 5}))
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL)
	require.NoError(t, err)

	h := &harness{out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.app = &App{Backend: client, In: strings.NewReader(stdin), Out: h.out, Err: h.err}
	return h
}

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0o644))
	return path
}

func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.err.Reset()
	return h.app.Run(context.Background(), args)
}

func TestUploadAskStatsClear(t *testing.T) {
	h := newHarness(t, "y\n")
	pdf := writePDF(t, "doc1.pdf")

	require.Equal(t, ExitOK, h.run("upload", pdf))
	assert.Contains(t, h.out.String(), "✓ Processed 1 document(s) with 1 chunks")
	assert.Contains(t, h.out.String(), "doc1.pdf")

	require.Equal(t, ExitOK, h.run("ask", "What", "is", "X?"))
	out := h.out.String()
	assert.Contains(t, out, "🤖")
	assert.Contains(t, out, "Sources: doc1.pdf")
	assert.Contains(t, out, "90%")
	assert.Contains(t, out, "model: stub")

	require.Equal(t, ExitOK, h.run("stats"))
	assert.Contains(t, h.out.String(), "documents:  1")
	assert.Contains(t, h.out.String(), "exchanges:  1")

	require.Equal(t, ExitOK, h.run("clear"))
	assert.Contains(t, h.out.String(), "Clear all documents and chat? [y/N]")
	assert.Contains(t, h.out.String(), "Session cleared")

	require.Equal(t, ExitOK, h.run("stats"))
	assert.Contains(t, h.out.String(), "documents:  0")
}

func TestUploadRejectedByServer(t *testing.T) {
	h := newHarness(t, "")
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	assert.Equal(t, ExitFail, h.run("upload", path))
	assert.Contains(t, h.err.String(), "No valid PDF files")
}

func TestUploadMissingFile(t *testing.T) {
	h := newHarness(t, "")

	assert.Equal(t, ExitFail, h.run("upload", filepath.Join(t.TempDir(), "missing.pdf")))
	assert.Contains(t, h.err.String(), "No files selected")
}

func TestAskWithoutDocuments(t *testing.T) {
	h := newHarness(t, "")

	assert.Equal(t, ExitFail, h.run("ask", "What is X?"))
	assert.Contains(t, h.err.String(), "No documents uploaded")
}

func TestAskBlankQuestion(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, ExitUsage, h.run("ask", "  "))
}

func TestClearDeclined(t *testing.T) {
	h := newHarness(t, "n\n")
	pdf := writePDF(t, "doc1.pdf")
	require.Equal(t, ExitOK, h.run("upload", pdf))

	require.Equal(t, ExitOK, h.run("clear"))
	assert.Contains(t, h.out.String(), "Cancelled")

	require.Equal(t, ExitOK, h.run("stats"))
	assert.Contains(t, h.out.String(), "documents:  1")
}

func TestClearWithoutPrompt(t *testing.T) {
	h := newHarness(t, "")
	require.Equal(t, ExitOK, h.run("clear", "-yes"))
	assert.NotContains(t, h.out.String(), "[y/N]")
	assert.Contains(t, h.out.String(), "Session cleared")
}

func TestClearUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	client, err := backend.New(url)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	app := &App{Backend: client, In: strings.NewReader(""), Out: &out, Err: &errOut}

	assert.Equal(t, ExitFail, app.Run(context.Background(), []string{"clear", "-yes"}))
	assert.Contains(t, errOut.String(), "Error")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, ExitUsage, h.run("frobnicate"))
	assert.Contains(t, h.err.String(), "usage:")
	assert.Equal(t, ExitUsage, h.run())
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("ask"))
	assert.False(t, IsCommand("serve"))
}
