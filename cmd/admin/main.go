package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/proofofplace/internal/admin"
	"github.com/dmitrijs2005/proofofplace/internal/flagx"
	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/dmitrijs2005/proofofplace/internal/server/config"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/proofofplace/internal/server/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	cfg := config.LoadConfig()

	db, rm, err := repomanager.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer db.Close()

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	svc := services.NewVerificationService(db, rm, cfg, services.WithLogger(logger))
	cli := admin.NewCLI(svc, func(ctx context.Context) error { return rm.RunMigrations(ctx, db) }, os.Stdout)

	args := flagx.Positional(os.Args[1:], config.ValueFlags())
	if err := cli.Run(ctx, args, os.Args[1:]); err != nil {
		if errors.Is(err, admin.ErrUsage) {
			fmt.Fprint(os.Stderr, admin.Usage)
			return 2
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
