// docqa - terminal client for the document question-answering backend
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashureev/docqa/internal/backend"
	"github.com/ashureev/docqa/internal/cli"
	"github.com/ashureev/docqa/internal/config"
	"github.com/ashureev/docqa/internal/domain"
	"github.com/ashureev/docqa/internal/dropzone"
	"github.com/ashureev/docqa/internal/tui"
	"github.com/ashureev/docqa/internal/upload"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	os.Exit(run())
}

func run() int {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		return cli.ExitFail
	}

	fs := flag.NewFlagSet("docqa", flag.ContinueOnError)
	backendURL := fs.String("backend", cfg.BackendURL, "backend base URL")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return cli.ExitUsage
	}

	// The TUI owns stdout, so logs go to a rotated file.
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    10, // Megabytes
		MaxBackups: 5,
		MaxAge:     30, // Days
		Compress:   true,
	}
	defer func() { _ = rotator.Close() }()

	logger := slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		slog.Info("No .env file found, using environment variables")
	}

	client, err := backend.New(*backendURL, backend.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		slog.Error("Failed to create backend client", "error", err)
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		return cli.ExitFail
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploadOpts := upload.Options{
		Extension:    cfg.DocumentExtension,
		FilterPicker: cfg.PickerFilterExtension,
		ReloadDelay:  cfg.ReloadDelay,
	}

	if args := fs.Args(); len(args) > 0 {
		if !cli.IsCommand(args[0]) {
			color.New(color.FgRed).Fprintf(os.Stderr, "unknown command %q\n", args[0])
			return cli.ExitUsage
		}
		app := &cli.App{
			Backend: client,
			Upload:  uploadOpts,
			In:      os.Stdin,
			Out:     os.Stdout,
			Err:     os.Stderr,
		}
		return app.Run(ctx, args)
	}

	slog.Info("Starting docqa", "backend", client.BaseURL())

	var drops <-chan domain.File
	if cfg.DropDir != "" {
		w, err := dropzone.New(cfg.DropDir)
		if err != nil {
			slog.Error("Failed to watch drop folder", "dir", cfg.DropDir, "error", err)
			color.New(color.FgRed).Fprintln(os.Stderr, err)
			return cli.ExitFail
		}
		defer func() { _ = w.Close() }()
		drops = w.Watch(ctx)
		slog.Info("Watching drop folder", "dir", w.Dir())
	}

	model := tui.New(ctx, client, tui.Options{
		Upload:       uploadOpts,
		Samples:      cfg.SampleQuestions,
		GlamourStyle: cfg.GlamourStyle,
		Drops:        drops,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		slog.Error("TUI exited with error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFail
	}

	slog.Info("docqa stopped")
	return cli.ExitOK
}
