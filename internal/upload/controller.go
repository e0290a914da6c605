// Package upload holds the pending document set and drives its submission.
package upload

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/backend"
	"github.com/ashureev/docqa/internal/domain"
)

// Status texts.
const (
	TextProcessing   = "Processing..."
	TextFailed       = "Upload failed"
	TextNetworkError = "Network error"
	successPrefix    = "✓ "
)

// Defaults.
const (
	DefaultExtension   = ".pdf"
	DefaultReloadDelay = time.Second
)

var (
	// ErrBusy is returned by Begin while an upload is in flight.
	ErrBusy = errors.New("upload already in progress")
	// ErrEmpty is returned by Begin when nothing is pending.
	ErrEmpty = errors.New("no files selected")
)

// StatusKind is the visual style of the status line.
type StatusKind int

const (
	StatusNeutral StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// Status is the text and style of the status line.
type Status struct {
	Text string
	Kind StatusKind
}

// Uploader sends a batch of files to the backend.
type Uploader interface {
	Upload(ctx context.Context, files []domain.File) (*api.UploadResponse, error)
}

// Options configures a Controller.
type Options struct {
	Extension    string        // accepted suffix on the drop path
	FilterPicker bool          // apply Extension to the picker path too
	ReloadDelay  time.Duration // delay before the view refresh after success
}

// Outcome is the result of a finished upload.
type Outcome struct {
	Succeeded   bool
	ReloadAfter time.Duration
	Documents   []domain.Document
}

// Controller owns the pending file set. It is not safe for concurrent use;
// callers serialize access (the TUI mutates it only from Update).
type Controller struct {
	opts      Options
	files     []domain.File
	busy      bool
	status    Status
	documents []domain.Document
}

// New creates an idle controller with an empty pending set.
func New(opts Options) *Controller {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.ReloadDelay <= 0 {
		opts.ReloadDelay = DefaultReloadDelay
	}
	return &Controller{opts: opts}
}

// AddDropped adds files from the drop path. Only files with the configured
// extension are accepted. It returns how many were added.
func (c *Controller) AddDropped(files ...domain.File) int {
	return c.add(files, true)
}

// AddPicked adds files from the picker path.
func (c *Controller) AddPicked(files ...domain.File) int {
	return c.add(files, c.opts.FilterPicker)
}

func (c *Controller) add(files []domain.File, filter bool) int {
	added := 0
	for _, f := range files {
		if filter && !f.HasExtension(c.opts.Extension) {
			slog.Debug("Ignoring file with unexpected extension", "name", f.Name)
			continue
		}
		if c.index(f.Name) >= 0 {
			continue
		}
		c.files = append(c.files, f)
		added++
	}
	c.status.Kind = StatusNeutral
	return added
}

// Remove drops the file with the given name. It reports whether one was
// removed.
func (c *Controller) Remove(name string) bool {
	i := c.index(name)
	if i < 0 {
		return false
	}
	c.files = append(c.files[:i], c.files[i+1:]...)
	c.status.Kind = StatusNeutral
	return true
}

func (c *Controller) index(name string) int {
	for i, f := range c.files {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Files returns a copy of the pending set in insertion order.
func (c *Controller) Files() []domain.File {
	out := make([]domain.File, len(c.files))
	copy(out, c.files)
	return out
}

// Busy reports whether an upload is in flight.
func (c *Controller) Busy() bool { return c.busy }

// CanSubmit reports whether the submit control is enabled.
func (c *Controller) CanSubmit() bool {
	return len(c.files) > 0 && !c.busy
}

// Status returns the status line.
func (c *Controller) Status() Status { return c.status }

// Documents returns the documents reported by the last successful upload.
func (c *Controller) Documents() []domain.Document { return c.documents }

// Extension returns the suffix accepted on the drop path.
func (c *Controller) Extension() string { return c.opts.Extension }

// ReloadDelay returns the configured delay before the post-upload refresh.
func (c *Controller) ReloadDelay() time.Duration { return c.opts.ReloadDelay }

// Begin moves the controller in flight and returns the files to send.
func (c *Controller) Begin() ([]domain.File, error) {
	if c.busy {
		return nil, ErrBusy
	}
	if len(c.files) == 0 {
		return nil, ErrEmpty
	}
	c.busy = true
	c.status = Status{Text: TextProcessing, Kind: StatusLoading}
	return c.Files(), nil
}

// Finish records the response of the in-flight upload and returns the
// controller to idle.
func (c *Controller) Finish(resp *api.UploadResponse, err error) Outcome {
	c.busy = false

	if err != nil {
		if backend.IsTransport(err) {
			slog.Warn("Upload failed to reach backend", "error", err)
			c.status = Status{Text: TextNetworkError, Kind: StatusError}
		} else {
			slog.Info("Upload rejected", "error", err)
			c.status = Status{Text: domain.CleanText(backend.MessageOf(err, TextFailed)), Kind: StatusError}
		}
		return Outcome{}
	}
	if resp == nil || !resp.Success {
		msg := TextFailed
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		c.status = Status{Text: domain.CleanText(msg), Kind: StatusError}
		return Outcome{}
	}

	c.status = Status{Text: successPrefix + domain.CleanText(resp.Message), Kind: StatusSuccess}
	c.files = nil
	c.documents = resp.DomainDocuments()
	slog.Info("Upload succeeded", "documents", len(c.documents))
	return Outcome{
		Succeeded:   true,
		ReloadAfter: c.opts.ReloadDelay,
		Documents:   c.documents,
	}
}

// Submit runs a whole upload synchronously.
func (c *Controller) Submit(ctx context.Context, up Uploader) (Outcome, error) {
	files, err := c.Begin()
	if err != nil {
		return Outcome{}, err
	}
	resp, err := up.Upload(ctx, files)
	return c.Finish(resp, err), nil
}

// Reset returns a fresh controller with the same options.
func (c *Controller) Reset() *Controller {
	return New(c.opts)
}
