package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/config"
	"github.com/diewo77/eventdesk/internal/tui"
	"github.com/joho/godotenv"
)

func main() {
	lang := flag.String("lang", i18n.DefaultLang, "interface language (es, en)")
	logPath := flag.String("log", "eventdesk-tui.log", "log file")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log:", err)
		os.Exit(1)
	}
	defer f.Close()
	logger := slog.New(slog.NewTextHandler(f, nil))

	loc, err := time.LoadLocation(cfg.App.Location)
	if err != nil {
		logger.Warn("unknown location, using UTC", "location", cfg.App.Location, "err", err)
		loc = time.UTC
	}
	if !i18n.Supported(*lang) {
		*lang = i18n.DefaultLang
	}

	client := api.New(api.Options{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.API.Token,
		TenantID: cfg.API.TenantID,
		Timeout:  cfg.API.Timeout,
		Logger:   logger,
	})
	m := tui.New(tui.Options{Source: client, Lang: *lang, Location: loc, Logger: logger})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
