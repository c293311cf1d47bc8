// Package auditd parses audit daemon flags and serves the ledger API.
package auditd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/louisbranch/fairdraw/internal/auditserver"
	entrypoint "github.com/louisbranch/fairdraw/internal/platform/cmd"
	"github.com/louisbranch/fairdraw/internal/storage/sqlite"
)

// Config holds audit daemon configuration.
type Config struct {
	Port     int    `env:"FAIRDRAW_AUDITD_PORT" envDefault:"8090"`
	Addr     string `env:"FAIRDRAW_AUDITD_ADDR"`
	DBPath   string `env:"FAIRDRAW_DB_PATH" envDefault:"fairdraw.db"`
	Workers  int    `env:"FAIRDRAW_AUDITD_WORKERS" envDefault:"4"`
	MaxDraws uint64 `env:"FAIRDRAW_AUDITD_MAX_DRAWS" envDefault:"0"`
}

// ListenAddr returns Addr when set, otherwise all interfaces on Port.
func (c Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.Addr); addr != "" {
		return addr
	}
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// ParseConfig parses environment and flags into a Config. Flags override
// environment values.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.IntVar(&cfg.Port, "port", 0, "The audit API port")
	fs.StringVar(&cfg.Addr, "addr", "", "The audit API listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite ledger path")
	fs.IntVar(&cfg.Workers, "workers", 0, "Concurrent replays for batch verification")
	fs.Uint64Var(&cfg.MaxDraws, "max-draws", 0, "Raw draw cap per replay (0 = unbounded)")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the ledger and serves the audit API until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("ledger path is required")
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAuditd, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()

		srv, err := auditserver.New(store, auditserver.Config{Addr: cfg.ListenAddr(), Workers: cfg.Workers, MaxDraws: cfg.MaxDraws})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx)
	})
}
