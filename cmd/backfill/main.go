// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/formset/backend/internal/backfill"
	"github.com/formset/backend/internal/config"
	"github.com/formset/backend/internal/core"
	"github.com/formset/backend/internal/form"
	"github.com/formset/backend/internal/submission"
	"github.com/formset/backend/internal/user"
)

const runTimeout = 10 * time.Minute

// Assigns the oldest admin account as tenant to every form and
// submission created before tenant ownership became mandatory. Safe to
// re-run: a second pass matches zero rows.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	//nolint:errcheck // .env is optional outside local development
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		if errors.Is(err, backfill.ErrNoAdmin) {
			fmt.Fprintln(os.Stderr, "aborted: no admin user exists to own unassigned records")
			fmt.Fprintln(os.Stderr, "create an admin account first, then re-run")
		} else {
			fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("database close error", "error", closeErr)
		}
	}()

	userSvc := user.NewService(user.NewRepository(db.DB))
	formSvc := form.NewService(form.NewRepository(db.DB))
	submissionSvc := submission.NewService(
		submission.NewRepository(db.DB),
		formSvc,
		logger,
	)

	runner := backfill.NewRunner(userSvc, formSvc, submissionSvc)

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("tenant backfill complete\n")
	fmt.Printf("  fallback owner:        %s (%s)\n", report.AdminEmail, report.AdminID)
	fmt.Printf("  forms repaired:        %d\n", report.FormsRepaired)
	fmt.Printf("  submissions repaired:  %d\n", report.SubmissionsRepaired)

	return nil
}
