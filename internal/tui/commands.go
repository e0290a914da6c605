package tui

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-shellwords"
)

// Backend is everything the UI needs from the backend client.
type Backend interface {
	Upload(ctx context.Context, files []domain.File) (*api.UploadResponse, error)
	Query(ctx context.Context, question string) (*api.QueryResponse, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*api.StatsResponse, error)
}

// Messages delivered back to Update.
type (
	uploadDoneMsg struct {
		resp *api.UploadResponse
		err  error
		gen  int
	}
	queryDoneMsg struct {
		resp *api.QueryResponse
		err  error
		gen  int
	}
	clearDoneMsg struct{ err error }
	statsMsg     struct {
		stats domain.Stats
		err   error
	}
	dropMsg struct {
		file domain.File
		ok   bool // false once the drop channel is closed
	}
	reloadMsg struct{ gen int }
)

func (m Model) uploadCmd(files []domain.File) tea.Cmd {
	ctx, backend, gen := m.sessCtx, m.backend, m.gen
	return func() tea.Msg {
		resp, err := backend.Upload(ctx, files)
		return uploadDoneMsg{resp: resp, err: err, gen: gen}
	}
}

func (m Model) queryCmd(question string) tea.Cmd {
	ctx, backend, gen := m.sessCtx, m.backend, m.gen
	return func() tea.Msg {
		resp, err := backend.Query(ctx, question)
		return queryDoneMsg{resp: resp, err: err, gen: gen}
	}
}

func (m Model) clearCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		return clearDoneMsg{err: backend.Clear(ctx)}
	}
}

func (m Model) statsCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		resp, err := backend.Stats(ctx)
		if err != nil {
			return statsMsg{err: err}
		}
		return statsMsg{stats: resp.Domain()}
	}
}

func reloadAfter(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return reloadMsg{gen: gen} })
}

// listenDrops waits for the next file from the drop folder.
func listenDrops(drops <-chan domain.File) tea.Cmd {
	if drops == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-drops
		return dropMsg{file: f, ok: ok}
	}
}

// pastedFiles turns pasted text (paths dragged onto the terminal) into file
// handles. file:// URIs are accepted. Entries that do not name a regular file are skipped.
func pastedFiles(text string) []domain.File {
	paths, err := shellwords.Parse(text)
	if err != nil {
		slog.Debug("Pasted text is not a path list", "error", err)
		return nil
	}

	var files []domain.File
	for _, p := range paths {
		if strings.HasPrefix(p, "file://") {
			if u, err := url.Parse(p); err == nil {
				p = u.Path
			}
		}
		f, err := domain.FileFromPath(p)
		if err != nil {
			slog.Debug("Ignoring pasted path", "path", p, "error", err)
			continue
		}
		files = append(files, f)
	}
	return files
}
