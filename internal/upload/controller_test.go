package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/backend"
	"github.com/ashureev/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	calls [][]domain.File
	resp  *api.UploadResponse
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, files []domain.File) (*api.UploadResponse, error) {
	f.calls = append(f.calls, files)
	return f.resp, f.err
}

func pdf(name string) domain.File {
	return domain.NewMemoryFile(name, []byte("%PDF-1.4"))
}

func names(files []domain.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestAddDuplicateLeavesSetUnchanged(t *testing.T) {
	c := New(Options{})
	require.Equal(t, 1, c.AddDropped(pdf("a.pdf")))

	assert.Equal(t, 0, c.AddDropped(pdf("a.pdf")))
	assert.Equal(t, 0, c.AddPicked(pdf("a.pdf")))
	assert.Equal(t, []string{"a.pdf"}, names(c.Files()))
}

func TestDropPathFiltersByExtension(t *testing.T) {
	c := New(Options{})

	added := c.AddDropped(pdf("a.pdf"), pdf("notes.txt"), pdf("B.PDF"))

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"a.pdf", "B.PDF"}, names(c.Files()))
}

func TestPickerPathDoesNotFilterByDefault(t *testing.T) {
	c := New(Options{})
	c.AddPicked(pdf("notes.txt"))
	assert.Equal(t, []string{"notes.txt"}, names(c.Files()))

	filtered := New(Options{FilterPicker: true})
	filtered.AddPicked(pdf("notes.txt"))
	assert.Empty(t, filtered.Files())
}

func TestRemoveKeepsOrder(t *testing.T) {
	c := New(Options{})
	c.AddDropped(pdf("a.pdf"), pdf("b.pdf"), pdf("c.pdf"))

	assert.True(t, c.Remove("b.pdf"))
	assert.False(t, c.Remove("missing.pdf"))
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, names(c.Files()))
}

func TestCanSubmitFollowsPendingSet(t *testing.T) {
	c := New(Options{})
	assert.False(t, c.CanSubmit())

	c.AddDropped(pdf("a.pdf"))
	assert.True(t, c.CanSubmit())

	c.Remove("a.pdf")
	assert.False(t, c.CanSubmit())
}

func TestBeginRefusesWhenEmptyOrBusy(t *testing.T) {
	c := New(Options{})
	_, err := c.Begin()
	assert.ErrorIs(t, err, ErrEmpty)

	c.AddDropped(pdf("a.pdf"))
	files, err := c.Begin()
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, Status{Text: TextProcessing, Kind: StatusLoading}, c.Status())
	assert.False(t, c.CanSubmit())

	_, err = c.Begin()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSubmitSendsAllPendingFiles(t *testing.T) {
	c := New(Options{})
	c.AddDropped(pdf("a.pdf"), pdf("b.pdf"))
	up := &fakeUploader{resp: &api.UploadResponse{Success: true, Message: "2 files indexed"}}

	out, err := c.Submit(context.Background(), up)

	require.NoError(t, err)
	require.Len(t, up.calls, 1)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names(up.calls[0]))
	assert.True(t, out.Succeeded)
	assert.Equal(t, DefaultReloadDelay, out.ReloadAfter)
	assert.Equal(t, Status{Text: "✓ 2 files indexed", Kind: StatusSuccess}, c.Status())
	assert.Empty(t, c.Files())
}

func TestFinishKeepsDocumentsAndDelay(t *testing.T) {
	c := New(Options{ReloadDelay: 3 * time.Second})
	c.AddDropped(pdf("a.pdf"))
	_, err := c.Begin()
	require.NoError(t, err)

	out := c.Finish(&api.UploadResponse{
		Success:   true,
		Message:   "Processed 1 document(s) with 1 chunks",
		Documents: []api.Document{{Filename: "a.pdf", Pages: 2}},
	}, nil)

	assert.Equal(t, 3*time.Second, out.ReloadAfter)
	assert.Equal(t, []domain.Document{{Filename: "a.pdf", Pages: 2}}, c.Documents())
}

func TestFinishApplicationFailureReenablesSubmit(t *testing.T) {
	c := New(Options{})
	c.AddDropped(pdf("a.pdf"))
	_, err := c.Begin()
	require.NoError(t, err)

	out := c.Finish(nil, &backend.Error{Kind: backend.KindApplication, Op: "upload", Message: "bad file"})

	assert.False(t, out.Succeeded)
	assert.Equal(t, Status{Text: "bad file", Kind: StatusError}, c.Status())
	assert.True(t, c.CanSubmit())
	assert.Len(t, c.Files(), 1)
}

func TestFinishHTTPFailureWithoutMessage(t *testing.T) {
	c := New(Options{})
	c.AddDropped(pdf("a.pdf"))
	_, _ = c.Begin()

	c.Finish(nil, &backend.Error{Kind: backend.KindHTTP, Op: "upload", StatusCode: 500})

	assert.Equal(t, Status{Text: TextFailed, Kind: StatusError}, c.Status())
}

func TestFinishTransportFailure(t *testing.T) {
	c := New(Options{})
	c.AddDropped(pdf("a.pdf"))
	_, _ = c.Begin()

	c.Finish(nil, &backend.Error{Kind: backend.KindTransport, Op: "upload", Err: errors.New("connection refused")})

	assert.Equal(t, Status{Text: TextNetworkError, Kind: StatusError}, c.Status())
	assert.True(t, c.CanSubmit())
}

func TestFinishLocalFailureNamesTheFile(t *testing.T) {
	c := New(Options{})
	c.AddPicked(pdf("a.pdf"))
	_, err := c.Begin()
	require.NoError(t, err)

	c.Finish(nil, &backend.Error{Kind: backend.KindLocal, Op: "upload", Message: "Cannot read a.pdf", Err: errors.New("no such file")})

	assert.Equal(t, Status{Text: "Cannot read a.pdf", Kind: StatusError}, c.Status())
	assert.True(t, c.CanSubmit())
}

func TestEditResetsStatusKindButKeepsText(t *testing.T) {
	c := New(Options{})
	c.AddDropped(pdf("a.pdf"))
	_, _ = c.Begin()
	c.Finish(nil, &backend.Error{Kind: backend.KindApplication, Message: "bad file"})

	c.AddDropped(pdf("b.pdf"))

	assert.Equal(t, Status{Text: "bad file", Kind: StatusNeutral}, c.Status())
}
