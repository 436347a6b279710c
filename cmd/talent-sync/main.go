// cmd/talent-sync/main.go
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talent-sync/internal/app"
	"talent-sync/internal/common/config"
	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("talent-sync", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "config file (defaults to configs/config.yaml)")
	global.Usage = func() { usage(stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		usage(stderr)
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config load failed: %v\n", err)
		return 1
	}

	log := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer log.Sync()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Address, log)
	}

	var client *app.App
	err = retryWithBackoff(func() error {
		var err error
		client, err = app.New(ctx, cfg, log)
		return err
	}, 3, 500*time.Millisecond, log, "Client initialization")
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", errors.UserMessage(err))
		return 1
	}
	defer client.Close()

	if err := client.Restore(ctx); err != nil {
		log.Warn("Could not restore session", map[string]interface{}{"error": err.Error()})
	}
	if cmd.needsAuth {
		if _, err := client.CurrentUser(); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", errors.UserMessage(err))
			return 1
		}
	}

	e := &env{app: client, out: stdout, errOut: stderr, log: log}
	if err := cmd.run(ctx, e, rest[1:]); err != nil {
		if stderrors.Is(err, flag.ErrHelp) || stderrors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintf(stderr, "error: %s\n", errors.UserMessage(err))
		return 1
	}
	return 0
}

func serveMetrics(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	log.Info("Metrics server listening", map[string]interface{}{"address": addr})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
	}
}
