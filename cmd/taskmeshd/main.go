// Command taskmeshd runs a broker core as a long-lived process. Transport
// adapters attach to the core's Go API; this daemon wires configuration,
// logging and the optional NATS relay around it.
//
// Configuration comes from the environment (a .env file is honored):
//
//	TASKMESH_LOG_LEVEL         debug|info|warn|error (default info)
//	TASKMESH_RETENTION         ledger retention for terminal executions (default 5m)
//	TASKMESH_PENDING_TIMEOUT   fail pending executions after this window (default off)
//	TASKMESH_NATS_URL          when set, relay results/events to this NATS server
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fogfish/opts"
	_ "github.com/joho/godotenv/autoload"
	"github.com/nats-io/nats.go"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/pkg/slogx"
	"github.com/taskmesh/taskmesh/pubsub"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: logLevel()}),
	))
}

func logLevel() slog.Level {
	switch os.Getenv("TASKMESH_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	options := []opts.Option[core.Core]{}

	if retention := durationEnv("TASKMESH_RETENTION"); retention > 0 {
		options = append(options, core.WithRetention(retention))
	}
	if pending := durationEnv("TASKMESH_PENDING_TIMEOUT"); pending > 0 {
		options = append(options, core.WithPendingTimeout(pending))
	}

	var nc *nats.Conn
	if url := os.Getenv("TASKMESH_NATS_URL"); url != "" {
		var err error
		nc, err = nats.Connect(url, nats.Name("taskmeshd"), nats.Compression(true))
		if err != nil {
			slog.Error("failed to connect to nats", slogx.Error(err))
			os.Exit(1)
		}
		options = append(options, core.WithRelay(pubsub.NewNATSRelay(nc)))
		slog.Info("relaying results and events to nats", slog.String("url", url))
	}

	c, err := core.New(options...)
	if err != nil {
		slog.Error("failed to build core", slogx.Error(err))
		os.Exit(1)
	}

	slog.Info("taskmesh core running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("shutting down")
	c.Shutdown()
	if nc != nil {
		nc.Close()
	}
}

func durationEnv(key string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("ignoring invalid duration", slog.String("var", key), slogx.Error(err))
		return 0
	}
	return d
}
