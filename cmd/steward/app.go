package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/propertystewards/steward/internal/actions"
	"github.com/propertystewards/steward/internal/config"
	"github.com/propertystewards/steward/internal/db"
	"github.com/propertystewards/steward/internal/llm"
	"github.com/propertystewards/steward/internal/notify"
	"github.com/propertystewards/steward/internal/notify/discord"
	"github.com/propertystewards/steward/internal/notify/slack"
	"github.com/propertystewards/steward/internal/session"
	"github.com/propertystewards/steward/internal/store"
	"github.com/propertystewards/steward/internal/wassenger"
	"github.com/propertystewards/steward/internal/webhook"
	"gorm.io/gorm"
)

// openDB opens the configured database. Tests swap it for sqlite.
var openDB = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return db.Connect(cfg)
}

// app holds the wired collaborators shared by the long-running commands.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	store    *store.Store
	wa       *wassenger.Client
	pipeline *webhook.Pipeline
	notifier *notify.Notifier
	logger   *slog.Logger
}

// appOpts overrides pieces of the wiring.
type appOpts struct {
	messenger webhook.Messenger // replaces Wassenger for inspector replies
	completer llm.Completer     // replaces the OpenAI client
}

// loadApp reads the config file and wires the application.
func loadApp(configPath string, opts appOpts) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApp(cfg, opts)
}

func newApp(cfg *config.Config, opts appOpts) (*app, error) {
	logger := slog.Default()

	gdb, err := openDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: gdb, logger: logger}
	if err := a.wire(opts); err != nil {
		db.Close(gdb)
		return nil, err
	}
	return a, nil
}

func (a *app) wire(opts appOpts) error {
	cfg := a.cfg

	st, err := store.New(store.Opts{DB: a.db})
	if err != nil {
		return err
	}
	a.store = st

	wa, err := wassenger.New(wassenger.Config{
		APIURL:   cfg.Wassenger.APIURL,
		APIKey:   cfg.Wassenger.APIKey,
		DeviceID: cfg.Wassenger.DeviceID,
		Timeout:  time.Duration(cfg.Wassenger.TimeoutSec) * time.Second,
	}, a.logger)
	if err != nil {
		return err
	}
	a.wa = wa

	completer := opts.completer
	if completer == nil {
		completer = llm.NewClient(llm.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.APIURL,
			Model:       cfg.OpenAI.Model,
			Temperature: *cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
		}, a.logger)
	}
	resolver, err := llm.NewResolver(completer, a.logger)
	if err != nil {
		return err
	}

	sessions, err := session.New(session.Opts{
		Store:        st,
		Window:       time.Duration(cfg.Session.WindowHours) * time.Hour,
		HistoryTurns: cfg.Session.HistoryTurns,
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	dispatcher, err := actions.New(actions.Opts{Gateway: st, Logger: a.logger})
	if err != nil {
		return err
	}

	var messenger webhook.Messenger = wa
	if opts.messenger != nil {
		messenger = opts.messenger
	}
	a.pipeline, err = webhook.NewPipeline(webhook.Opts{
		Store:         st,
		Sessions:      sessions,
		Resolver:      resolver,
		Dispatcher:    dispatcher,
		Messenger:     messenger,
		Fetcher:       wa,
		Dedupe:        cfg.Webhook.DedupeEnabled(),
		ClaimLease:    time.Duration(cfg.Webhook.ClaimLeaseSec) * time.Second,
		AppendResults: cfg.Reply.AppendActionResults,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}

	admin, err := newAdminNotifier(cfg.Admin, wa, a.logger)
	if err != nil {
		return err
	}
	a.notifier, err = notify.New(notify.Opts{
		Store:          st,
		Admin:          admin,
		StaleLeadHours: cfg.Notifiers.StaleLeadHours,
		ReportBaseURL:  cfg.Notifiers.ReportBaseURL,
		Logger:         a.logger,
	})
	return err
}

// newAdminNotifier picks the admin channel named in the config.
func newAdminNotifier(cfg config.AdminConfig, wa notify.Sender, logger *slog.Logger) (notify.AdminNotifier, error) {
	switch cfg.Channel {
	case config.ChannelSlack:
		return slack.New(slack.Opts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Slack.Channel, Logger: logger})
	case config.ChannelDiscord:
		return discord.New(discord.Opts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.Channel, Logger: logger})
	case config.ChannelWhatsApp, "":
		return notify.NewWhatsApp(wa, cfg.Contact)
	default:
		return nil, fmt.Errorf("unknown admin channel %q", cfg.Channel)
	}
}

func (a *app) Close() error {
	return db.Close(a.db)
}
