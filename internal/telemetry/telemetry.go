package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Settings selects how telemetry is exported.
type Settings struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	Environment  string
	LogLevel     string
}

// Telemetry bundles the logger and meter a process runs with, plus the
// shutdown hooks of whatever providers were started.
type Telemetry struct {
	Logger    *slog.Logger
	Meter     metric.Meter
	shutdowns []func(context.Context) error
}

// Setup starts the tracer, meter and logger providers when export is enabled.
// Otherwise it returns a JSON stdout logger and a noop meter; the global
// tracer provider then stays the OpenTelemetry noop default.
func Setup(ctx context.Context, s Settings) (*Telemetry, error) {
	if !s.Enabled {
		return &Telemetry{
			Logger: NewJSONLogger(os.Stdout, s.LogLevel),
			Meter:  noop.NewMeterProvider().Meter(s.ServiceName),
		}, nil
	}

	t := &Telemetry{}

	tp, err := InitTracerProvider(ctx, s.ServiceName, s.OTLPEndpoint, s.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	t.shutdowns = append(t.shutdowns, tp.Shutdown)

	mp, err := InitMeterProvider(ctx, s.ServiceName, s.OTLPEndpoint, s.Environment)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize meter provider: %w", err), t.Shutdown(ctx))
	}
	t.shutdowns = append(t.shutdowns, mp.Shutdown)

	// Logger provider goes last so log records can be correlated with traces.
	lp, logger, err := InitLoggerProvider(ctx, s.ServiceName, s.OTLPEndpoint, s.Environment)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize logger provider: %w", err), t.Shutdown(ctx))
	}
	t.shutdowns = append(t.shutdowns, lp.Shutdown)

	t.Logger = logger
	t.Meter = otel.Meter(s.ServiceName)
	return t, nil
}

// Shutdown flushes and stops the started providers in reverse order.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		if err := t.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil
	return errors.Join(errs...)
}
