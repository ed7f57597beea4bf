package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	LogLevel       slog.Level
}

func NewRouter(opts RouterOptions, payrollHandler PayrollHandler, calendarHandler CalendarHandler, attendanceHandler AttendanceHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/generate", payrollHandler.Generate)
			r.Get("/should-generate", payrollHandler.ShouldGenerate)
			r.Get("/results", payrollHandler.ListResults)

			r.Route("/schedules", func(r chi.Router) {
				r.Post("/", payrollHandler.CreateSchedule)
				r.Get("/active", payrollHandler.GetActiveSchedule)
				r.Put("/{id}/activate", payrollHandler.ActivateSchedule)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Post("/", payrollHandler.CreateRule)
				r.Get("/", payrollHandler.ListRules)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/working-days", calendarHandler.GetWorkingDays)
			r.Post("/overrides", calendarHandler.SaveOverride)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/punches", attendanceHandler.RecordPunches)
			r.Post("/import", attendanceHandler.ImportPunches)
			r.Post("/recompute", attendanceHandler.Recompute)
		})
	})
	return r
}
