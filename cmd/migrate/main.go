package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/realsbd/bicxchange/internal/config"
	"github.com/realsbd/bicxchange/internal/logger"
	"github.com/realsbd/bicxchange/internal/migrate"
	"github.com/realsbd/bicxchange/internal/repository/db"
)

func main() {
	var (
		env   = flag.String("env", config.CurrentEnv(), "settings environment (dev, test, prod)")
		steps = flag.Int("steps", 1, "migrations to revert with down; 0 reverts all")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-env dev] [-steps N] up|down|status\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Get(*env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	gdb, err := db.Open(cfg.DBURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close(gdb)

	m, err := migrate.New(gdb)
	if err != nil {
		log.Fatal().Err(err).Msg("load migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch flag.Arg(0) {
	case "up":
		ran, err := m.Up(ctx)
		for _, v := range ran {
			log.Info().Str("version", v).Msg("applied")
		}
		if err != nil {
			log.Fatal().Err(err).Msg("migrate up")
		}
	case "down":
		reverted, err := m.Down(ctx, *steps)
		for _, v := range reverted {
			log.Info().Str("version", v).Msg("reverted")
		}
		if err != nil {
			log.Fatal().Err(err).Msg("migrate down")
		}
	case "status":
		entries, err := m.Status(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("migrate status")
		}
		for _, e := range entries {
			state := "pending"
			if e.Applied {
				state = "applied " + e.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-24s %s\n", e.Version, state)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}
