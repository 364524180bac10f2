package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nimdanitro/remo-scraper-go/pkg/remo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const scope = "github.com/nimdanitro/remo-scraper-go"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type instruments struct {
	temperature metric.Float64Gauge
	humidity    metric.Float64Gauge
	illuminance metric.Float64Gauge
	lastReading metric.Float64Histogram
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Setup Otel
	shutdown, err := setupOTelSDK(ctx)
	defer shutdown(ctx)
	if err != nil {
		panic(err)
	}

	// Initialize logger
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(os.Stdout), zapcore.DebugLevel),
		otelzap.NewCore(scope, otelzap.WithLoggerProvider(global.GetLoggerProvider())),
	)
	logger := zap.New(core)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("starting up", zap.String("version", version), zap.String("commit", commit), zap.String("buildDate", date))

	if cfg.Input != "" {
		if err := reportFile(cfg.Input); err != nil {
			logger.Fatal("cannot report devices", zap.String("input", cfg.Input), zap.Error(err))
		}
		return
	}

	inst, err := newInstruments()
	if err != nil {
		logger.Fatal("cannot create instruments", zap.Error(err))
	}

	collector := remo.NewCollector(logger)
	if cfg.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", zap.String("listen", cfg.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	// create the fetcher
	client, err := remo.NewFetcher(
		remo.WithLogger(logger),
		remo.WithToken(cfg.Token),
		remo.WithBaseURL(cfg.APIURL),
	)
	if err != nil {
		logger.Fatal("cannot create fetcher", zap.Error(err))
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	readDevices := func() {
		logger.Info("fetching devices from nature remo")
		devices, err := client.Fetch(ctx)
		if err != nil {
			logger.Error("Failed to fetch data", zap.Error(err))
			return
		}
		collector.Update(devices)

		for _, d := range devices {
			inst.record(ctx, logger, d)
		}
	}

	readDevices()

	for {
		select {
		case <-ticker.C:
			readDevices()
		case <-ctx.Done():
			return
		}
	}
}

func reportFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	devices, err := remo.ParseDevices(data)
	if err != nil {
		return err
	}
	for _, d := range devices {
		report(os.Stdout, d)
	}
	return nil
}

func newInstruments() (*instruments, error) {
	meter := otel.Meter(
		scope,
		metric.WithInstrumentationAttributes(semconv.OTelScopeName(scope)),
	)

	temperature, err := meter.Float64Gauge("sensor.temperature",
		metric.WithUnit("Cel"),
		metric.WithDescription("Indoor temperature in degrees Celsius"),
	)
	if err != nil {
		return nil, err
	}
	humidity, err := meter.Float64Gauge("sensor.humidity",
		metric.WithUnit("%"),
		metric.WithDescription("Indoor relative humidity as a percentage"),
	)
	if err != nil {
		return nil, err
	}
	illuminance, err := meter.Float64Gauge("sensor.illuminance",
		metric.WithDescription("Illuminance level as reported by the device"),
	)
	if err != nil {
		return nil, err
	}
	lastReading, err := meter.Float64Histogram(
		"sensor.lastReading.duration",
		metric.WithDescription("The duration since the last sensor reading."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		temperature: temperature,
		humidity:    humidity,
		illuminance: illuminance,
		lastReading: lastReading,
	}, nil
}

func (i *instruments) record(ctx context.Context, logger *zap.Logger, d *remo.DeviceRecord) {
	attrs := metric.WithAttributes(
		attribute.String("device.id", d.ID),
		attribute.String("device.name", d.Name),
	)
	gauges := map[remo.Channel]metric.Float64Gauge{
		remo.ChannelTemperature: i.temperature,
		remo.ChannelHumidity:    i.humidity,
		remo.ChannelIlluminance: i.illuminance,
	}

	for _, ch := range []remo.Channel{remo.ChannelTemperature, remo.ChannelHumidity, remo.ChannelIlluminance} {
		r, err := d.Reading(ch)
		if err != nil {
			logger.Info("reading unavailable",
				zap.String("deviceId", d.ID),
				zap.String("channel", ch.Name()),
				zap.Error(err),
			)
			continue
		}
		logger.Info("Fetched data",
			zap.String("deviceId", d.ID),
			zap.String("name", d.Name),
			zap.String("channel", ch.Name()),
			zap.Float64("value", r.Value),
			zap.Time("timestamp", r.Timestamp),
		)
		gauges[ch].Record(ctx, r.Value, attrs)
		i.lastReading.Record(ctx, time.Since(r.Timestamp).Seconds(), metric.WithAttributes(
			attribute.String("device.id", d.ID),
			attribute.String("device.name", d.Name),
			attribute.String("sensor.channel", string(ch)),
		))
	}
}
