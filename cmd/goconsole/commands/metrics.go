package commands

import (
	"fmt"
	"io"
	"sort"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/metrics/export/otel"
	"github.com/MrEthical07/goConsole/metrics/export/prometheus"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	formatPrometheus = "prometheus"
	formatOTel       = "otel"
)

func newMetricsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print client metrics for this invocation",
		Long: `Restores the stored session and prints the client counters, either in
Prometheus text format or as collected OpenTelemetry data points.`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			switch format {
			case formatPrometheus:
				_, err := io.WriteString(cmd.OutOrStdout(), prometheus.NewExporter(engine).Render())
				return err
			case formatOTel:
				return printOTel(cmd, engine)
			default:
				return fmt.Errorf("unknown metrics format %q", format)
			}
		}),
	}

	cmd.Flags().StringVar(&format, "format", formatPrometheus, `metrics format ("prometheus", "otel")`)
	return cmd
}

func printOTel(cmd *cobra.Command, engine *goConsole.Engine) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(cmd.Context()) }()

	exp, err := otel.NewExporter(provider.Meter("goconsole"), engine)
	if err != nil {
		return err
	}
	defer func() { _ = exp.Close() }()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(cmd.Context(), &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	w := cmd.OutOrStdout()
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s %d\n", name, values[name]); err != nil {
			return err
		}
	}
	return nil
}
