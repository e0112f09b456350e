package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	app config.AppConfig,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	correctionHandler CorrectionHandler,
	notificationHandler NotificationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app.Name),
		slog.String("version", app.Version),
		slog.String("env", app.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  app.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// EventSource cannot set headers; the stream authenticates with an SSE token.
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Use(middleware.RequireCompany)

				r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).
					Post("/events", attendanceHandler.RecordEvent)
				r.Get("/events", attendanceHandler.ListMyEvents)
				r.Get("/status", attendanceHandler.Status)
				r.Get("/summary/week", attendanceHandler.WeeklySummary)
				r.Get("/summary/day", attendanceHandler.DailySummary)

				r.With(middleware.RequirePermission(user.PermissionCorrectionRequest)).
					Post("/events/{id}/corrections", correctionHandler.Request)
				r.Get("/corrections/my", correctionHandler.ListMine)

				// Manager+
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.With(middleware.RequirePermission(user.PermissionAttendanceExport)).
						Get("/export", attendanceHandler.Export)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceApprove))
						r.Get("/corrections", correctionHandler.List)
						r.Post("/corrections/{id}/approve", correctionHandler.Approve)
						r.Post("/corrections/{id}/reject", correctionHandler.Reject)
					})
				})
			})

			r.Get("/notifications", notificationHandler.List)
			r.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			r.Post("/notifications/read", notificationHandler.MarkAsRead)
			r.Post("/notifications/sse-token", notificationHandler.GetSSEToken)
		})
	})
	return r
}
