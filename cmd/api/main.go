package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	calendarService "github.com/cmlabs-hris/payroll-engine/internal/service/calendar"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	scheduleService "github.com/cmlabs-hris/payroll-engine/internal/service/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, cfg.Database.MigrationsDir); err != nil {
			log.Fatal("Failed to apply migrations: ", err)
		}
	}

	calendarRepo := postgresql.NewCalendarRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	statutoryRepo := postgresql.NewStatutoryRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)

	if cfg.Payroll.SeedDefaults {
		seeded, err := statutoryRepo.SeedDefaults(ctx, fixtures.GetDefaultContributionSchemes(), fixtures.GetDefaultTaxBrackets())
		if err != nil {
			log.Fatal("Failed to seed statutory tables: ", err)
		}
		if seeded {
			slog.Info("Seeded default contribution schemes and tax brackets")
		}
	}

	classifier, err := buildClassifier(cfg.Payroll)
	if err != nil {
		log.Fatal("Invalid schedule profile: ", err)
	}

	calendarSvc := calendarService.NewCalendarService(calendarRepo)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		employeeRepo,
		calendarSvc,
		classifier,
		attendanceService.Policy{
			Location:          cfg.Location(),
			SplitMinute:       cfg.Payroll.SplitMinute,
			EarlyOutThreshold: cfg.Payroll.EarlyOutThreshold,
			HalfDayEnabled:    cfg.Payroll.HalfDayEnabled,
			HalfDayMinHours:   cfg.Payroll.HalfDayMinHours,
			DuplicateWindow:   cfg.Payroll.DuplicateWindow,
		},
	)
	payrollSvc := payrollService.NewPayrollService(
		payrollRepo,
		employeeRepo,
		statutoryRepo,
		attendanceSvc,
		calendarSvc,
		classifier,
		payrollService.Options{
			Workers:     cfg.Payroll.Workers,
			UserTimeout: cfg.Payroll.UserTimeout,
			Location:    cfg.Location(),
		},
	)

	var scheduler *cron.Scheduler
	if cfg.Payroll.CronEnabled {
		scheduler = cron.NewScheduler(cfg.Location())
		if err := cron.NewPayrollJobs(payrollSvc).RegisterJobs(scheduler, cfg.Payroll.CronSpec, cfg.Payroll.CronTimeout); err != nil {
			log.Fatal("Failed to register cron jobs: ", err)
		}
		scheduler.Start()
	}

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AllowedOrigins: cfg.App.AllowedOrigins,
			Env:            cfg.App.Env,
			LogLevel:       cfg.LogLevel(),
		},
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewCalendarHandler(calendarSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	slog.Info("Server stopped")
}

// buildClassifier applies the optional PAYROLL_PROFILE_* overrides on top of the built-in profiles
func buildClassifier(cfg config.PayrollConfig) (*scheduleService.Classifier, error) {
	classifier := scheduleService.NewClassifier()

	overrides := []struct {
		employeeType schedule.EmployeeType
		value        string
	}{
		{schedule.EmployeeTypeTeaching, cfg.TeachingProfile},
		{schedule.EmployeeTypeNonTeaching, cfg.NonTeachingProfile},
		{"", cfg.DefaultProfile},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		profile, err := scheduleService.ParseProfile(o.value)
		if err != nil {
			return nil, fmt.Errorf("%s profile: %w", o.employeeType, err)
		}
		if _, err := classifier.WithProfile(o.employeeType, profile); err != nil {
			return nil, err
		}
	}
	return classifier, nil
}
