package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
)

// Backfills categories for rules stored before the category column existed.
// Every such rule was migrated as "general"; this reclassifies them by name.
func main() {
	dryRun := flag.Bool("dry-run", false, "report the changes without writing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	repo := postgresql.NewPayrollRepository(db)

	rules, err := repo.ListRules(ctx, false)
	if err != nil {
		log.Fatal("Failed to list rules: ", err)
	}

	var updated, skipped int
	for _, rule := range rules {
		if rule.Category != payroll.RuleCategoryGeneral {
			skipped++
			continue
		}
		category := payrollService.LegacyCategoryFromName(rule.Name)
		if category == payroll.RuleCategoryGeneral {
			skipped++
			continue
		}

		slog.Info("Reclassifying rule", "rule_id", rule.ID, "name", rule.Name, "category", category, "dry_run", *dryRun)
		if *dryRun {
			updated++
			continue
		}
		if err := repo.UpdateRuleCategory(ctx, rule.ID, category); err != nil {
			log.Fatalf("Failed to update rule %s: %v", rule.ID, err)
		}
		updated++
	}

	slog.Info("Rule category backfill finished", "total", len(rules), "updated", updated, "unchanged", skipped, "dry_run", *dryRun)
}
