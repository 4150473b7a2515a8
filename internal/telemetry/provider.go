package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InstallStdoutProvider builds a MeterProvider backed by the stdout
// exporter and registers it as the process-global provider, so meter =
// otel.Meter("taskgraph") picks it up without the rest of the package
// needing a reference to it. Swappable: a caller wanting a different
// backend calls otel.SetMeterProvider with their own provider instead.
func InstallStdoutProvider() (func(context.Context) error, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}
