package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"slotguard/internal/alerting"
	"slotguard/internal/api"
	"slotguard/internal/config"
	"slotguard/internal/events"
	"slotguard/internal/metrics"
	"slotguard/internal/monitor"
	"slotguard/internal/scheduler"
	"slotguard/internal/service"
	"slotguard/internal/source"
	"slotguard/internal/storage"
	"slotguard/internal/verify"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSources(m *metrics.Metrics) (*source.Multi, error) {
	clients := make([]source.Client, 0, len(a.Config.Sources.Endpoints))
	for _, endpoint := range a.Config.Sources.Endpoints {
		clients = append(clients, source.NewRPC(source.RPCOptions{
			Endpoint:  endpoint,
			Timeout:   a.Config.Sources.RequestTimeout,
			UserAgent: a.Config.Sources.UserAgent,
		}, a.Logger))
	}

	opts := source.MultiOptions{
		Threshold:   a.Config.Sources.ConsensusThreshold,
		CallTimeout: a.Config.Sources.RequestTimeout,
	}
	if m != nil {
		opts.ErrorHook = func(sourceID string) {
			m.SourceFailures.WithLabelValues(sourceID).Inc()
		}
	}
	return source.NewMulti(clients, opts, a.Logger)
}

func (a *App) newMonitor() *monitor.Monitor {
	return monitor.New(monitor.Options{
		StaleThreshold:  a.Config.Monitor.StaleThreshold,
		RetentionWindow: a.Config.Monitor.RetentionWindow,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// primeMonitor runs one synchronous poll so one-shot commands see a real
// health state instead of the initial default.
func (a *App) primeMonitor(ctx context.Context, sources *source.Multi, mon *monitor.Monitor) {
	for _, sample := range sources.ObserveSlots(ctx) {
		mon.Record(monitor.SlotObservation{
			Slot:       sample.Slot,
			Source:     sample.Source,
			ObservedAt: sample.ObservedAt,
		})
	}
	mon.CheckHealth()
}

// Run executes the long-running oracle: health polling, the verification API,
// and the event feed.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	m := metrics.New()
	hub := events.NewHub(events.Options{
		BufferSize: a.Config.Events.BufferSize,
		DropHook:   func() { m.EventsDropped.Inc() },
	}, a.Logger)

	sources, err := a.newSources(m)
	if err != nil {
		return err
	}
	mon := a.newMonitor()
	pipeline := verify.NewPipeline(sources, mon, a.Logger)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Monitor.PollInterval,
		StartupDelay: a.Config.Monitor.StartupDelay,
	}, a.Logger)

	svcOpts := service.Options{
		Scheduler: sched,
		Sources:   sources,
		Monitor:   mon,
		Pipeline:  pipeline,
		Hub:       hub,
		Metrics:   m,
		Notifier:  a.newNotifier(),
		Network:   a.Config.Network.Name,
		AlertsOn:  a.Config.Alerting.Enabled,
	}
	if store != nil {
		svcOpts.Store = store
		svcOpts.Transitions = store
		svcOpts.HistoryRetention = a.Config.Database.HistoryRetention
	}
	svc := service.New(svcOpts, a.Logger)

	server := api.NewServer(api.Options{
		Config:   a.Config.API,
		Verifier: svc,
		Health:   mon,
		Hub:      hub,
		Metrics:  m.Handler(),
		Network:  a.Config.Network.Name,
	}, a.Logger)

	errCh := make(chan error, 2)
	go func() { errCh <- svc.Run(ctx) }()
	go func() { errCh <- server.Start() }()

	a.Logger.Info().
		Str("network", a.Config.Network.Name).
		Int("sources", sources.SourceCount()).
		Int("threshold", sources.Threshold()).
		Msg("oracle started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Msg("component terminated with error")
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.Logger.Error().Err(shutdownErr).Msg("server shutdown failed")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("oracle stopped")
	return nil
}

// VerifyOptions configure the one-shot verify command.
type VerifyOptions struct {
	Signatures []string
	JSONOutput bool
}

// InspectOptions configure the transaction inspector.
type InspectOptions struct {
	Signature string
	Endpoint  string
}

// ExportOptions hold parameters for exporting verification history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit       int
	Transitions bool
	Signature   string
}
