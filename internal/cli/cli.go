// Package cli implements the one-shot docqa commands used for scripting.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/chat"
	"github.com/ashureev/docqa/internal/domain"
	"github.com/ashureev/docqa/internal/session"
	"github.com/ashureev/docqa/internal/upload"
	"github.com/fatih/color"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitFail  = 1
	ExitUsage = 2
)

// Backend is the subset of the backend client the commands use.
type Backend interface {
	Upload(ctx context.Context, files []domain.File) (*api.UploadResponse, error)
	Query(ctx context.Context, question string) (*api.QueryResponse, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*api.StatsResponse, error)
}

// App runs one command against a backend.
type App struct {
	Backend Backend
	Upload  upload.Options
	In      io.Reader
	Out     io.Writer
	Err     io.Writer

	ok    *color.Color
	fail  *color.Color
	title *color.Color
	faint *color.Color
}

// Commands lists the subcommands Run understands.
var Commands = []string{"upload", "ask", "clear", "stats"}

// IsCommand reports whether name is a subcommand.
func IsCommand(name string) bool {
	for _, c := range Commands {
		if c == name {
			return true
		}
	}
	return false
}

// Run executes args[0] with the remaining arguments and returns the exit
// code.
func (a *App) Run(ctx context.Context, args []string) int {
	a.ok = color.New(color.FgGreen)
	a.fail = color.New(color.FgRed, color.Bold)
	a.title = color.New(color.FgCyan, color.Bold)
	a.faint = color.New(color.Faint)

	if len(args) == 0 {
		a.usage()
		return ExitUsage
	}

	switch args[0] {
	case "upload":
		return a.runUpload(ctx, args[1:])
	case "ask":
		return a.runAsk(ctx, args[1:])
	case "clear":
		return a.runClear(ctx, args[1:])
	case "stats":
		return a.runStats(ctx, args[1:])
	default:
		a.fail.Fprintf(a.Err, "unknown command %q\n", args[0])
		a.usage()
		return ExitUsage
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.Err, "usage: docqa [-backend URL] [upload FILE... | ask QUESTION | clear [-yes] | stats]")
}

func (a *App) runUpload(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.Err, "usage: docqa upload FILE...")
		return ExitUsage
	}

	ctrl := upload.New(a.Upload)
	for _, p := range args {
		f, err := domain.FileFromPath(p)
		if err != nil {
			a.fail.Fprintf(a.Err, "skipping %s: %v\n", p, err)
			continue
		}
		if ctrl.AddPicked(f) == 0 {
			a.faint.Fprintf(a.Err, "skipping %s\n", p)
		}
	}

	out, err := ctrl.Submit(ctx, a.Backend)
	if errors.Is(err, upload.ErrEmpty) {
		a.fail.Fprintln(a.Err, "No files selected")
		return ExitFail
	}
	if err != nil {
		a.fail.Fprintln(a.Err, err)
		return ExitFail
	}

	st := ctrl.Status()
	if !out.Succeeded {
		a.fail.Fprintln(a.Err, st.Text)
		return ExitFail
	}

	a.ok.Fprintln(a.Out, st.Text)
	for _, d := range out.Documents {
		if d.Pages > 0 {
			fmt.Fprintf(a.Out, "  • %s (%d pages)\n", d.Filename, d.Pages)
		} else {
			fmt.Fprintf(a.Out, "  • %s\n", d.Filename)
		}
	}
	return ExitOK
}

func (a *App) runAsk(ctx context.Context, args []string) int {
	ctrl := chat.New(nil)
	out, ok := ctrl.Ask(ctx, a.Backend, strings.Join(args, " "))
	if !ok {
		fmt.Fprintln(a.Err, "usage: docqa ask QUESTION")
		return ExitUsage
	}

	if out.Failed {
		a.fail.Fprintf(a.Err, "%s %s\n", out.Reply.Avatar(), out.Reply.Text)
		return ExitFail
	}

	fmt.Fprintf(a.Out, "%s %s\n", out.Reply.Avatar(), out.Reply.Text)
	if len(out.Reply.Sources) > 0 {
		a.faint.Fprint(a.Out, "Sources: ")
		a.title.Fprintln(a.Out, strings.Join(out.Reply.Sources, ", "))
	}
	if out.Reply.Model != "" {
		a.faint.Fprintf(a.Out, "model: %s\n", out.Reply.Model)
	}

	p := ctrl.Panel()
	if len(p.Entries) > 0 {
		fmt.Fprintln(a.Out)
		a.title.Fprintln(a.Out, "Context")
		for _, e := range p.Entries {
			fmt.Fprintf(a.Out, "📄 %s ", e.Source)
			a.ok.Fprintln(a.Out, e.Percent())
			a.faint.Fprintf(a.Out, "   %s\n", e.Text)
		}
	}
	return ExitOK
}

func (a *App) runClear(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(a.Err)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	var conf session.Confirmer = session.ConfirmFunc(func(string) bool { return true })
	if !*yes {
		conf = a.prompt()
	}

	var r session.Reset
	out := r.Run(ctx, conf, a.Backend)
	switch {
	case out.Declined:
		a.faint.Fprintln(a.Out, "Cancelled")
		return ExitOK
	case out.Alert != "":
		a.fail.Fprintln(a.Err, out.Alert)
		return ExitFail
	default:
		a.ok.Fprintln(a.Out, "Session cleared")
		return ExitOK
	}
}

// prompt asks on a.Out and reads the answer from a.In.
func (a *App) prompt() session.Confirmer {
	reader := bufio.NewReader(a.In)
	return session.ConfirmFunc(func(question string) bool {
		fmt.Fprintf(a.Out, "%s [y/N] ", question)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}

func (a *App) runStats(ctx context.Context, args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(a.Err, "usage: docqa stats")
		return ExitUsage
	}

	resp, err := a.Backend.Stats(ctx)
	if err != nil {
		a.fail.Fprintln(a.Err, err)
		return ExitFail
	}

	st := resp.Domain()
	a.title.Fprintln(a.Out, "Session")
	fmt.Fprintf(a.Out, "  documents:  %d\n", st.Documents)
	fmt.Fprintf(a.Out, "  chunks:     %d\n", st.Chunks)
	fmt.Fprintf(a.Out, "  exchanges:  %d\n", st.ChatHistory)
	return ExitOK
}
