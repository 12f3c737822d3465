package main

import (
	"context"
	"delivery-times-service/internal/adapters/cache"
	"delivery-times-service/internal/adapters/repositories"
	"delivery-times-service/internal/api/dto"
	"delivery-times-service/internal/config"
	"delivery-times-service/internal/platform/obs"
	"delivery-times-service/internal/services"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
)

type Globals struct {
	DatabaseURL    string        `help:"Postgres URL; SQLite is used when empty." env:"DATABASE_URL"`
	SQLitePath     string        `help:"SQLite database file." env:"SQLITE_PATH" default:"data/reports.db"`
	ConnectTimeout time.Duration `help:"How long to retry the first Postgres ping." env:"DB_CONNECT_TIMEOUT" default:"30s"`
	LogLevel       string        `help:"Log level." env:"LOG_LEVEL" default:"info"`
}

func (g *Globals) open(ctx context.Context) (*repositories.Storage, error) {
	cfg := config.Config{DatabaseURL: g.DatabaseURL}
	return repositories.OpenStorage(ctx, repositories.StorageOptions{
		Postgres:       cfg.UsePostgres(),
		DatabaseURL:    g.DatabaseURL,
		SQLitePath:     g.SQLitePath,
		ConnectTimeout: g.ConnectTimeout,
	})
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(g *Globals, log *slog.Logger) error {
	log.Info("Initializing database schema...")
	st, err := g.open(context.Background())
	if err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	defer st.Close()
	log.Info("Schema ready.", "postgres", st.Postgres)
	return nil
}

type SeedCmd struct {
	File string `help:"JSON array of report submissions." env:"SEED_PATH" default:"data/seeds/reports.json"`
}

// Seeded reports go through the same validation as live submissions.
func (c *SeedCmd) Run(g *Globals, log *slog.Logger) error {
	ctx := context.Background()

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("seed: open %q: %w", c.File, err)
	}
	defer f.Close()

	reqs, err := decodeSeed(f)
	if err != nil {
		return fmt.Errorf("seed %q: %w", c.File, err)
	}

	st, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := services.NewAggregationService(st.Reports, cache.NoopCache{}, clockwork.NewRealClock(), log, nil,
		services.MaxGlobalStatsTTL)

	log.Info("Seeding database...", "file", c.File, "reports", len(reqs))
	accepted := 0
	for i, req := range reqs {
		if _, err := svc.SubmitReport(ctx, req.ToSubmission()); err != nil {
			log.Warn("skipping seed report", "index", i, "postcode", req.Postcode, "err", err)
			continue
		}
		accepted++
	}
	log.Info("Seeding complete.", "accepted", accepted, "rejected", len(reqs)-accepted)

	if accepted == 0 && len(reqs) > 0 {
		return errors.New("seed: every report was rejected")
	}
	return nil
}

func decodeSeed(r io.Reader) ([]dto.SubmitReportRequest, error) {
	var reqs []dto.SubmitReportRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return reqs, nil
}

type StatsCmd struct {
	Postcode string `arg:"" optional:"" help:"Print the summary for one postcode instead of global stats."`
}

func (c *StatsCmd) Run(g *Globals, log *slog.Logger) error {
	ctx := context.Background()

	st, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := services.NewAggregationService(st.Reports, cache.NoopCache{}, clockwork.NewRealClock(), log, nil,
		services.MaxGlobalStatsTTL)

	var out any
	if c.Postcode == "" {
		out = svc.GetGlobalStats(ctx)
	} else {
		summary, err := svc.GetPostcodeSummary(ctx, c.Postcode)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("no data for postcode %q", c.Postcode)
		}
		out = summary
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type CLI struct {
	Globals

	Migrate MigrateCmd `cmd:"" help:"Create tables and indexes."`
	Seed    SeedCmd    `cmd:"" help:"Load demo reports from a JSON file."`
	Stats   StatsCmd   `cmd:"" help:"Print aggregated statistics as JSON."`
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found (using environment variables)")
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("dbtool"),
		kong.Description("Maintenance commands for the delivery times database."),
		kong.UsageOnError(),
	)

	// Logs go to stderr so `stats` output stays pipeable.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: obs.ParseLevel(cli.LogLevel)}))

	kctx.FatalIfErrorf(kctx.Run(&cli.Globals, log))
}
