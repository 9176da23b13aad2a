// Command parley is a terminal chat client for a multi-provider AI chat
// backend.
//
// Usage:
//
//	parley [flags]
//
// Flags:
//
//	-config string    Path to config file (default: ~/.config/parley/config.yaml)
//	-base-url string  Backend base URL (overrides config)
//	-provider string  Provider name (overrides config)
//	-model string     Model ID (overrides config)
//	-no-stream        Disable streaming responses
//	-resume int       Conversation ID to resume
//	-list             List conversations and exit
//	-delete int       Delete a conversation and exit
//	-rename string    Rename a conversation ("id=new title") and exit
//	-providers        List providers and their models and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parley-sh/parley"
	bt "github.com/parley-sh/parley/bubbletea"
	"github.com/parley-sh/parley/client"
	"github.com/parley-sh/parley/config"
	parleyjson "github.com/parley-sh/parley/json"
	"github.com/parley-sh/parley/session"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", config.DefaultPath(), "Path to config file")
		baseURL    = flag.String("base-url", "", "Backend base URL (overrides config)")
		provider   = flag.String("provider", "", "Provider name (overrides config)")
		model      = flag.String("model", "", "Model ID (overrides config)")
		noStream   = flag.Bool("no-stream", false, "Disable streaming responses")
		resume     = flag.Int("resume", 0, "Conversation ID to resume")
		list       = flag.Bool("list", false, "List conversations and exit")
		deleteID   = flag.Int("delete", 0, "Delete a conversation and exit")
		rename     = flag.String("rename", "", `Rename a conversation ("id=new title") and exit`)
		providers  = flag.Bool("providers", false, "List providers and their models and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *noStream {
		cfg.Streaming = false
	}

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(
		client.WithBaseURL(cfg.BaseURL),
		client.WithTimeout(timeout),
		client.WithLogger(logger),
	)

	// One-shot management modes.
	switch {
	case *list:
		return listConversations(ctx, c)
	case *deleteID > 0:
		return c.DeleteConversation(ctx, *deleteID)
	case *rename != "":
		id, title, err := parseRename(*rename)
		if err != nil {
			return err
		}
		return c.RenameConversation(ctx, id, title)
	case *providers:
		return listProviders(ctx, c)
	}

	states := make(chan parley.SessionState, 64)
	ctrl := session.New(c,
		session.WithLogger(logger),
		session.WithModel(cfg.Model),
		session.WithProvider(cfg.Provider),
		session.WithOnChange(bt.Observer(states)),
	)

	if *resume > 0 {
		if err := ctrl.Load(ctx, *resume); err != nil {
			return fmt.Errorf("resume conversation %d: %w", *resume, err)
		}
	}

	theme := parley.DefaultTheme()
	tuiModel := bt.New(ctrl, states, theme, bt.WithStreaming(cfg.Streaming))

	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	return saveTranscript(cfg, ctrl)
}

// newLogger builds a file-backed zap logger, or a no-op logger when no log
// file is configured. Logging to stderr would corrupt the TUI display.
func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	if lc.File == "" {
		return zap.NewNop(), nil
	}
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.OutputPaths = []string{lc.File}
	zc.ErrorOutputPaths = []string{lc.File}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func listConversations(ctx context.Context, c *client.Client) error {
	summaries, err := c.Conversations(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations.")
		return nil
	}
	for _, s := range summaries {
		title := s.Title
		if title == "" {
			title = s.LastMessagePreview
		}
		fmt.Printf("%4d  %s  (%d messages, %s)\n",
			s.ID, title, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func listProviders(ctx context.Context, c *client.Client) error {
	pl, err := c.Providers(ctx)
	if err != nil {
		return err
	}
	for _, name := range pl.Providers {
		marker := " "
		if name == pl.Default {
			marker = "*"
		}
		models, err := c.ProviderModels(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %s\n", marker, name, strings.Join(models, ", "))
	}
	return nil
}

// parseRename parses a "-rename" argument of the form "id=new title".
func parseRename(s string) (int, string, error) {
	idStr, title, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", fmt.Errorf(`invalid rename %q: expected "id=new title"`, s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(idStr))
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid rename conversation ID %q", idStr)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, "", fmt.Errorf("rename title must not be empty")
	}
	return id, title, nil
}

// saveTranscript writes the session to disk on exit when it holds messages.
func saveTranscript(cfg *config.Config, ctrl *session.Controller) error {
	st := ctrl.State()
	if len(st.Messages) == 0 {
		return nil
	}
	t := parley.Transcript{
		ConversationID: ctrl.ConversationID(),
		Model:          cfg.Model,
		Provider:       cfg.Provider,
		SavedAt:        time.Now(),
		Messages:       st.Messages,
	}
	path := transcriptPath(cfg.TranscriptDir, ctrl.ConversationID())
	if err := parleyjson.Save(path, t); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", path)
	return nil
}

// transcriptPath resolves where a transcript is written. Unsynced sessions
// (no server conversation ID) get a timestamped name.
func transcriptPath(dir string, convID *int) string {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".parley", "transcripts")
	}
	name := "local-" + time.Now().Format("20060102-150405")
	if convID != nil {
		name = strconv.Itoa(*convID)
	}
	return filepath.Join(dir, name+".json")
}
