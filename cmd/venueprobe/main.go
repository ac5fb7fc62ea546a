// Command venueprobe drives the full resilience pipeline against a live
// base URL and prints the resulting metrics. Useful for validating rate
// limits and breaker thresholds against a venue sandbox.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/venuekit/venuekit/config"
	"github.com/venuekit/venuekit/httpclient"
	"github.com/venuekit/venuekit/logging"
	"github.com/venuekit/venuekit/metrics"
)

func main() {
	baseURL := flag.String("base-url", "", "Venue base URL (overrides VENUE_BASE_URL)")
	path := flag.String("path", "/", "Request path to probe")
	endpoint := flag.String("endpoint", "", "Endpoint key for weight lookup (defaults to path)")
	count := flag.Int("count", 10, "Number of requests to issue")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *baseURL != "" {
		cfg.Venue.BaseURL = *baseURL
	}
	if cfg.Venue.BaseURL == "" {
		log.Fatal("no base URL: pass -base-url or set VENUE_BASE_URL")
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	client, err := httpclient.New(cfg.Client(),
		httpclient.WithLogger(logger),
		httpclient.WithMetricsSink(metrics.NewProm(nil)),
	)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []httpclient.RequestOption
	if *endpoint != "" {
		opts = append(opts, httpclient.WithEndpointKey(*endpoint))
	}

	start := time.Now()
	failures := 0
	for i := 0; i < *count; i++ {
		resp, err := client.Get(ctx, *path, opts...)
		if err != nil {
			failures++
			logger.Error("probe failed", zap.Int("seq", i), zap.Error(err))
			if httpclient.IsShortCircuit(err) {
				logger.Warn("breaker open, stopping early")
				break
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.Info("probe ok",
			zap.Int("seq", i),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempts", resp.Attempts),
			zap.Duration("latency", resp.Duration),
		)
	}

	fmt.Printf("\nprobed %s in %s, %d failure(s)\n", cfg.Venue.BaseURL, time.Since(start).Round(time.Millisecond), failures)
	fmt.Printf("breaker: %s %+v\n", client.BreakerState(), client.BreakerMetrics())
	for key, stats := range client.MetricsSnapshot() {
		avg := time.Duration(0)
		if stats.Count > 0 {
			avg = stats.TotalLatency / time.Duration(stats.Count)
		}
		fmt.Printf("endpoint %-24s count=%d errors=%d min=%s avg=%s max=%s\n",
			key, stats.Count, stats.Errors, stats.MinLatency, avg, stats.MaxLatency)
	}
}
