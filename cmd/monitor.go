// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
	"github.com/Thermoquad/oistat/pkg/telemetry"
)

var (
	monitorInterval      time.Duration
	monitorStatsInterval time.Duration
	monitorMQTTBroker    string
	monitorMQTTTopic     string
	monitorMQTTUsername  string
	monitorMetricsAddr   string
	monitorRecordFile    string
	monitorQuiet         bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll sensors continuously and export telemetry",
	Long: `Poll the environment, light bumper and battery groups at a fixed interval.

Each complete sample is printed and forwarded to the configured sinks:
  --mqtt-broker tcp://host:1883   publish JSON to <topic>/sensors, /battery, /mode
  --metrics-addr :9090            serve Prometheus metrics on /metrics
  --record FILE                   append CBOR samples to FILE (see replay)

The MQTT password is read from the OISTAT_MQTT_PASSWORD environment variable.
Query statistics are printed periodically and on exit (Ctrl+C).`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", time.Second, "Polling interval")
	monitorCmd.Flags().DurationVar(&monitorStatsInterval, "stats-interval", time.Minute, "Statistics print interval (0 disables)")
	monitorCmd.Flags().StringVar(&monitorMQTTBroker, "mqtt-broker", "", "MQTT broker URL (tcp://, ssl://, ws://)")
	monitorCmd.Flags().StringVar(&monitorMQTTTopic, "mqtt-topic", "oistat", "MQTT topic prefix")
	monitorCmd.Flags().StringVar(&monitorMQTTUsername, "mqtt-username", "", "MQTT username")
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "", "Listen address for Prometheus metrics")
	monitorCmd.Flags().StringVar(&monitorRecordFile, "record", "", "Append CBOR samples to this file")
	monitorCmd.Flags().BoolVarP(&monitorQuiet, "quiet", "q", false, "Do not print samples")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, collector, err := openSinks(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Printf("Failed to close sinks: %v", err)
		}
	}()

	driver, conn, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	defer conn.Close()

	// polling never starts the OI on its own
	if err := driver.Startup(oi.NoModeSelect); err != nil {
		return fmt.Errorf("failed to start OI: %w", err)
	}

	fmt.Printf("Oistat - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Interval: %s\n", monitorInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := oi.NewStatistics()
	monitorLoop(ctx, driver, stats, sinks, collector)

	fmt.Printf("\n%s", stats)
	return nil
}

// openSinks builds the sinks selected by flags. collector is nil without --metrics-addr.
func openSinks(ctx context.Context) (telemetry.MultiSink, *telemetry.Collector, error) {
	var sinks telemetry.MultiSink
	var collector *telemetry.Collector

	if monitorMetricsAddr != "" {
		collector = telemetry.NewCollector()
		registry, err := telemetry.NewRegistry(collector)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		serveMetrics(ctx, monitorMetricsAddr, telemetry.Handler(registry))
		sinks = append(sinks, collector)
	}

	if monitorMQTTBroker != "" {
		publisher, err := telemetry.NewMQTTPublisher(telemetry.MQTTConfig{
			Broker:   monitorMQTTBroker,
			Username: monitorMQTTUsername,
			Password: os.Getenv("OISTAT_MQTT_PASSWORD"),
			Prefix:   monitorMQTTTopic,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			sinks.Close()
			return nil, nil, err
		}
		log.Printf("Publishing to %s under %s/", monitorMQTTBroker, monitorMQTTTopic)
		sinks = append(sinks, publisher)
	}

	if monitorRecordFile != "" {
		f, err := os.OpenFile(monitorRecordFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			sinks.Close()
			return nil, nil, fmt.Errorf("failed to open recording: %w", err)
		}
		log.Printf("Recording to %s", monitorRecordFile)
		sinks = append(sinks, telemetry.NewRecorder(f))
	}

	return sinks, collector, nil
}

// serveMetrics runs the metrics endpoint until ctx is done
func serveMetrics(ctx context.Context, addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

func monitorLoop(ctx context.Context, d *create2.Driver, stats *oi.Statistics, sinks telemetry.Sink, collector *telemetry.Collector) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	var statsTick <-chan time.Time
	if monitorStatsInterval > 0 {
		statsTicker := time.NewTicker(monitorStatsInterval)
		defer statsTicker.Stop()
		statsTick = statsTicker.C
	}

	for {
		sample, err := pollSample(d, stats)
		if err != nil {
			log.Printf("Poll failed: %v", err)
			if collector != nil {
				collector.ObserveFailure(d.Mode())
			}
		} else {
			if !monitorQuiet {
				fmt.Println(formatSampleLine(sample))
			}
			if err := sinks.Publish(sample); err != nil {
				log.Printf("Publish failed: %v", err)
			}
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTick:
				fmt.Print(stats)
			case <-ticker.C:
				break wait
			}
		}
	}
}
