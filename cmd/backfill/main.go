// Command backfill repairs legacy items rows with a NULL description and then
// adds the NOT NULL constraint:
//
//	backfill -phase 1             set NULL descriptions to '' (snapshotting ids first)
//	backfill -phase 2 [-yes]      add the constraint and verify it
//	backfill -phase full [-yes]   both, stopping if phase 1 fails
//
// Connection and snapshot storage settings are read like the server's.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/backfill"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("backfill failed: %v", err)
	}
}

func run() error {
	opts, err := backfill.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stdout)
	if err != nil {
		return err
	}

	db, err := dbx.Open(cfg.DatabaseDSN, cfg.PoolOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := backfill.NewSnapshotter(ctx, cfg)
	if err != nil {
		return err
	}

	var confirm backfill.Confirmer = backfill.NewTerminalConfirmer(os.Stdin, os.Stderr)
	if opts.Yes {
		confirm = backfill.AutoConfirm{}
	}

	return backfill.NewMigrator(db, snap, confirm, logger).Run(ctx, opts.Phase)
}
