package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"lotto/config"
	"lotto/database"
	"lotto/events"
	"lotto/ledger"
	"lotto/lottery"
	"lotto/messaging"
	"lotto/observability"
	"lotto/repository"
	"lotto/service"
)

// app holds the wired services for one process
type app struct {
	cfg      *config.Config
	lottery  service.LotteryService
	accounts service.AccountService
	closers  []func(context.Context)
}

type appOptions struct {
	memory       bool // in-process ledger instead of Postgres
	integrations bool // NATS publishing and metrics export
}

func openApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	minStake, err := cfg.MinStakeWei()
	if err != nil {
		return nil, err
	}
	selector, err := lottery.SelectorByName(cfg.Selector)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	serviceOpts := []service.Option{service.WithSelector(selector)}

	if opts.integrations {
		metrics := observability.NewMetricsProvider(cfg)
		if err := metrics.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metrics.Attach(bus)
		serviceOpts = append(serviceOpts, service.WithFailureRecorder(metrics))
		a.closers = append(a.closers, func(ctx context.Context) {
			if err := metrics.Shutdown(ctx); err != nil {
				log.WithError(err).Error("Failed to shutdown metrics")
			}
		})

		if cfg.NATSServers != "" {
			if err := a.connectNATS(ctx, bus); err != nil {
				a.Close(ctx)
				return nil, err
			}
		}
	}

	if opts.memory {
		svc := service.NewMemoryService(minStake, ledger.NewMemory(), bus, serviceOpts...)
		a.lottery = svc
		a.accounts = svc
		log.Info("Using in-memory ledger; state is lost on exit")
		return a, nil
	}

	log.Debug("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) {
		log.Debug("Closing database connection...")
		db.Close()
	})

	uowFactory := repository.NewUnitOfWorkFactory(db, bus)
	a.lottery = service.NewLotteryService(uowFactory, minStake, serviceOpts...)
	a.accounts = service.NewAccountService(uowFactory)
	return a, nil
}

func (a *app) connectNATS(ctx context.Context, bus *events.Bus) error {
	client := messaging.NewNATSClient(a.cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return err
	}

	publisher := messaging.NewNATSPublisher(client, a.cfg.NATSSubjectPrefix)
	if err := client.EnsureStream(messaging.StreamName, publisher.Subjects()); err != nil {
		log.WithError(err).Warn("Could not ensure JetStream stream; publishing may fail")
	}
	publisher.Attach(bus)

	a.closers = append(a.closers, func(context.Context) {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Failed to close NATS connection")
		}
	})
	return nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}
