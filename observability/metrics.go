package observability

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"lotto/config"
	"lotto/events"
	"lotto/lottery"
	"lotto/service"
)

// MetricsProvider manages OpenTelemetry metrics for the lottery
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	reader        sdkmetric.Reader // overrides the configured exporter when set
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	entriesCounter             metric.Int64Counter
	payoutsCounter             metric.Int64Counter
	stakeWeiCounter            metric.Float64Counter
	payoutWeiCounter           metric.Float64Counter
	balanceTransactionsCounter metric.Int64Counter
	failuresCounter            metric.Int64Counter
}

var _ service.FailureRecorder = (*MetricsProvider)(nil)

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the meter provider for the configured exporter
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	reader := mp.reader
	if reader == nil {
		exporter, err := mp.newExporter(ctx)
		if err != nil {
			return err
		}
		if exporter == nil {
			log.Info("Metrics export disabled (exporter_type='none')")
			mp.initialized = true
			return nil
		}
		reader = sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
		)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("lotto")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) newExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")
		return exporter, nil

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")
		return exporter, nil

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.entriesCounter, err = mp.meter.Int64Counter(
		EntriesTotal,
		metric.WithDescription("Total number of admitted entries"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create entries counter: %w", err)
	}

	mp.payoutsCounter, err = mp.meter.Int64Counter(
		PayoutsTotal,
		metric.WithDescription("Total number of completed payouts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payouts counter: %w", err)
	}

	// Float counters: wei totals overflow int64 after about 9.2 ether
	mp.stakeWeiCounter, err = mp.meter.Float64Counter(
		StakeWeiTotal,
		metric.WithDescription("Total value staked"),
		metric.WithUnit("wei"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stake counter: %w", err)
	}

	mp.payoutWeiCounter, err = mp.meter.Float64Counter(
		PayoutWeiTotal,
		metric.WithDescription("Total value paid to winners"),
		metric.WithUnit("wei"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout value counter: %w", err)
	}

	mp.balanceTransactionsCounter, err = mp.meter.Int64Counter(
		BalanceTransactionsTotal,
		metric.WithDescription("Total number of balance transactions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance transactions counter: %w", err)
	}

	mp.failuresCounter, err = mp.meter.Int64Counter(
		OperationFailuresTotal,
		metric.WithDescription("Total number of failed lottery operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create failures counter: %w", err)
	}

	return nil
}

// Attach records metrics for every lottery event on the bus
func (mp *MetricsProvider) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeEntryAdmitted, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.EntryAdmittedEvent); ok {
			mp.RecordEntry(ctx, ev.Stake)
		}
	})
	bus.Subscribe(events.EventTypeWinnerPicked, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.WinnerPickedEvent); ok {
			mp.RecordPayout(ctx, ev.Payout)
		}
	})
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.BalanceChangeEvent); ok {
			mp.RecordBalanceTransaction(ctx, string(ev.TransactionType))
		}
	})
}

// RecordEntry records an admitted entry and its stake
func (mp *MetricsProvider) RecordEntry(ctx context.Context, stake *big.Int) {
	if !mp.isEnabled() {
		return
	}
	mp.entriesCounter.Add(ctx, 1)
	mp.stakeWeiCounter.Add(ctx, weiFloat(stake))
}

// RecordPayout records a completed payout
func (mp *MetricsProvider) RecordPayout(ctx context.Context, amount *big.Int) {
	if !mp.isEnabled() {
		return
	}
	mp.payoutsCounter.Add(ctx, 1)
	mp.payoutWeiCounter.Add(ctx, weiFloat(amount))
}

// RecordBalanceTransaction records a balance change by type
func (mp *MetricsProvider) RecordBalanceTransaction(ctx context.Context, transactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.balanceTransactionsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelType, transactionType)),
	)
}

// RecordFailure counts a failed operation labelled with its reason
func (mp *MetricsProvider) RecordFailure(ctx context.Context, operation string, err error) {
	if !mp.isEnabled() {
		return
	}
	mp.failuresCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelOperation, operation),
			attribute.String(LabelReason, Reason(err)),
		),
	)
}

// Reason maps an operation error to a failure label
func Reason(err error) string {
	switch {
	case errors.Is(err, lottery.ErrInsufficientStake):
		return ReasonInsufficientStake
	case errors.Is(err, service.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, lottery.ErrUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, lottery.ErrEmptyPool):
		return ReasonEmptyPool
	case errors.Is(err, lottery.ErrTransferFailure):
		return ReasonTransferFailure
	case errors.Is(err, service.ErrNotDeployed):
		return ReasonNotDeployed
	default:
		return ReasonOther
	}
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.enabled = false
	if mp.meterProvider == nil {
		return nil
	}
	if err := mp.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	log.Info("Metrics provider shut down")
	return nil
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

func weiFloat(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(wei).Float64()
	return f
}
