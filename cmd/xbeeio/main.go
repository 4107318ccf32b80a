package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/retry"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/api"
	"github.com/shimmeringbee/xbeeio/config"
	"github.com/shimmeringbee/xbeeio/host"
	"github.com/shimmeringbee/xbeeio/metrics"
	"github.com/shimmeringbee/xbeeio/mqtt"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	serialOpenTimeout = 5 * time.Second
	serialOpenRetries = 3
	shutdownTimeout   = 5 * time.Second
)

var errSerialClosed = errors.New("serial link closed unexpectedly")

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	device := flag.String("device", "", "serial device of the attached radio, overrides the configuration")
	baud := flag.Int("baud", 0, "serial baud rate, overrides the configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("xbeeio: %v", err)
	}

	if *device != "" {
		cfg.Serial.Device = *device
	}

	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}

	logger := logwrap.New(golog.Wrap(log.New(logOutput(cfg.Logging), "", log.LstdFlags)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.LogError(ctx, "Daemon terminated.", logwrap.Err(err))
		os.Exit(1)
	}

	logger.LogInfo(ctx, "Daemon stopped.")
}

func logOutput(cfg config.LoggingConfig) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

func openSerial(ctx context.Context, cfg config.SerialConfig, logger logwrap.Logger) (io.ReadWriteCloser, error) {
	var port io.ReadWriteCloser

	err := retry.Retry(ctx, serialOpenTimeout, serialOpenRetries, func(ctx context.Context) error {
		p, err := api.OpenSerial(api.SerialConfig{Device: cfg.Device, Baud: cfg.Baud})
		if err != nil {
			logger.LogWarn(ctx, "Failed to open serial port.", logwrap.Datum("Device", cfg.Device), logwrap.Err(err))
			return err
		}

		port = p
		return nil
	})

	return port, err
}

func run(ctx context.Context, cfg config.Config, logger logwrap.Logger) error {
	port, err := openSerial(ctx, cfg.Serial, logger)
	if err != nil {
		return err
	}

	driver := api.NewDriver(port, cfg.Serial.Escaped)
	driver.WithLogWrapLogger(logger)

	correlator := xbeeio.NewCorrelator(driver, cfg.ResponseTimeout)
	correlator.WithLogWrapLogger(logger)

	driver.Start(ctx)
	defer driver.Close()

	radio := xbeeio.New(correlator)
	radio.WithLogWrapLogger(logger)

	logger.LogInfo(ctx, "Serial link open.", logwrap.Datum("Device", cfg.Serial.Device), logwrap.Datum("Baud", cfg.Serial.Baud))

	if name, err := radio.ReadNodeName(ctx, xbeeio.LocalRadio); err != nil {
		logger.LogWarn(ctx, "Local radio did not answer NI.", logwrap.Err(err))
	} else {
		logger.LogInfo(ctx, "Local radio identified.", logwrap.Datum("NodeName", name))
	}

	h := host.New(memory.New(), cfg.PollInterval)
	h.WithLogWrapLogger(logger)
	h.WithResponseTimeout(cfg.ResponseTimeout)

	for _, err := range h.Setup(ctx, cfg, radio) {
		logger.LogError(ctx, "Entity not set up.", logwrap.Err(err))
	}

	logger.LogInfo(ctx, "Entities set up.", logwrap.Datum("Count", len(h.Registry().Entities())))

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.Dial(ctx, cfg.MQTT, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		bridge := mqtt.NewBridge(client, cfg.MQTT.Prefix, h)
		bridge.WithLogWrapLogger(logger)

		h.Subscribe(bridge.StateChanged)

		if err := bridge.Start(ctx, h.Registry().Entities()); err != nil {
			return fmt.Errorf("failed to start mqtt bridge: %w", err)
		}
	}

	h.Start()
	defer h.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-driver.Done():
			return errSerialClosed
		case <-gctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		for {
			event, err := h.ReadEvent(gctx)
			if err != nil {
				return nil
			}

			logger.LogDebug(gctx, "Host event.", logwrap.Datum("Event", event))
		}
	})

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		})

		logger.LogInfo(ctx, "Metrics listening.", logwrap.Datum("Address", cfg.Metrics.Listen))
	}

	return g.Wait()
}
