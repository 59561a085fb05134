package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindlinks/outreach/internal/api"
	"github.com/mindlinks/outreach/internal/campaign"
	"github.com/mindlinks/outreach/internal/config"
	"github.com/mindlinks/outreach/internal/mailer"
	"github.com/mindlinks/outreach/internal/metrics"
	"github.com/mindlinks/outreach/internal/notify"
	"github.com/mindlinks/outreach/internal/scheduler"
	"github.com/mindlinks/outreach/internal/store"
	"github.com/mindlinks/outreach/internal/template"
)

// WeeklySchedule describes a recurring campaign trigger.
type WeeklySchedule struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

// RunOptions controls what the application does besides serving the
// response endpoint.
type RunOptions struct {
	// RunNow fires a campaign pass immediately on startup.
	RunNow bool

	// Weekly repeats a campaign pass at a fixed weekday and time.
	Weekly *WeeklySchedule
}

// App is the main application
type App struct {
	config        *config.Config
	store         *store.Store
	engine        *campaign.Engine
	scheduler     *scheduler.Scheduler
	apiServer     *api.Server
	metricsServer *metrics.Server
	logger        *slog.Logger
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := seedContacts(st, cfg.Storage.ContactsFile, logger); err != nil {
		st.Close()
		return nil, err
	}

	engine := template.NewEngine(cfg.Campaign.TemplatePath)

	smtpClient := mailer.NewClient(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.Timeout,
		logger.With("component", "mailer"),
	)

	notifier := notify.New(engine, smtpClient, notify.Config{
		SenderName:  cfg.SMTP.SenderName,
		SenderEmail: cfg.SMTP.SenderEmail,
		CompanyName: cfg.Campaign.CompanyName,
		ProductName: cfg.Campaign.ProductName,
		BaseURL:     cfg.Campaign.BaseURL,
	}, logger.With("component", "notify"))

	sched, err := scheduler.New(st.DB(), cfg.Scheduler.PollInterval, logger.With("component", "scheduler"))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	campaignEngine := campaign.NewEngine(st, notifier, sched, campaign.Config{
		MaxReminders: cfg.Campaign.MaxReminders,
		SendDelay:    cfg.Campaign.SendDelay,
	}, logger.With("component", "campaign"))

	sched.SetCallback(campaignEngine.HandleJob)

	apiServer := api.NewServer(st, cfg, logger.With("component", "api"))

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path,
			logger.With("component", "metrics"))
	}

	return &App{
		config:        cfg,
		store:         st,
		engine:        campaignEngine,
		scheduler:     sched,
		apiServer:     apiServer,
		metricsServer: metricsServer,
		logger:        logger,
	}, nil
}

// seedContacts imports the contacts file on first start. An already
// populated store wins over the file.
func seedContacts(st *store.Store, path string, logger *slog.Logger) error {
	existing, err := st.ListContacts()
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	contacts, err := store.LoadContactsFile(path, logger)
	if err != nil {
		return fmt.Errorf("failed to load contacts file: %w", err)
	}
	if len(contacts) == 0 {
		return nil
	}

	if err := st.PutContacts(contacts); err != nil {
		return fmt.Errorf("failed to seed contacts: %w", err)
	}
	logger.Info("seeded contacts from file", "file", path, "count", len(contacts))
	return nil
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	a.logger.Info("starting outreach",
		"http_addr", a.config.HTTP.ListenAddr,
		"storage", a.config.Storage.Path,
		"interval", a.config.Campaign.Interval(),
		"max_reminders", a.config.Campaign.MaxReminders,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.scheduler.Start(ctx)
	a.refreshPendingGauge()

	errCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("response endpoint: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	if opts.RunNow {
		go a.runCampaign(ctx)
	}
	if opts.Weekly != nil {
		go a.weeklyLoop(ctx, *opts.Weekly)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	return a.Shutdown(context.Background())
}

func (a *App) runCampaign(ctx context.Context) {
	result, err := a.engine.Run(ctx, a.config.Campaign.Interval())
	if err != nil {
		a.logger.Error("campaign run failed", "error", err)
		return
	}
	a.refreshPendingGauge()
	a.logger.Info("campaign run complete",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"total", result.Total,
	)
}

// weeklyLoop fires a campaign pass at the configured weekday and time,
// every week, until the context is cancelled.
func (a *App) weeklyLoop(ctx context.Context, ws WeeklySchedule) {
	for {
		next := scheduler.NextWeekday(time.Now(), ws.Day, ws.Hour, ws.Minute)
		a.logger.Info("next campaign run scheduled", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			a.runCampaign(ctx)
		}
	}
}

func (a *App) refreshPendingGauge() {
	stats, err := a.store.CampaignStats()
	if err != nil {
		a.logger.Warn("failed to refresh pending gauge", "error", err)
		return
	}
	metrics.SetContactsPending(stats.Pending)
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop the scheduler first so no job fires against a closing store
	a.scheduler.Stop()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("response endpoint shutdown error", "error", err)
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("store close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
