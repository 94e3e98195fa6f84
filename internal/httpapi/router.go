package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"marketplace/internal/api"
	"marketplace/internal/application"
	"marketplace/internal/auth"
	"marketplace/internal/booking"
	"marketplace/internal/job"
	"marketplace/internal/milestone"
	"marketplace/internal/payment"
	"marketplace/internal/proof"
	"marketplace/internal/review"
	"marketplace/internal/user"
	"marketplace/internal/webhook"
	"marketplace/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Log *zap.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(api.RequestLog(deps.Log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	userRepo := user.NewRepository(deps.DB)
	jobRepo := job.NewRepository(deps.DB)
	applicationRepo := application.NewRepository(deps.DB)
	bookingRepo := booking.NewRepository(deps.DB)
	milestoneRepo := milestone.NewRepository(deps.DB)
	proofRepo := proof.NewRepository(deps.DB)
	reviewRepo := review.NewRepository(deps.DB)

	authHandlers := auth.Handlers{Cfg: deps.Cfg, Users: userRepo}
	jobHandlers := job.Handlers{Repo: jobRepo}
	applicationHandlers := application.Handlers{
		DB:           deps.DB,
		Applications: applicationRepo,
		Jobs:         jobRepo,
	}
	bookingHandlers := booking.Handlers{
		DB:           deps.DB,
		Bookings:     bookingRepo,
		Applications: applicationRepo,
		Jobs:         jobRepo,
		Milestones:   milestoneRepo,
		Proofs:       proofRepo,
	}
	reviewHandlers := review.Handlers{DB: deps.DB, Reviews: reviewRepo, Bookings: bookingRepo}
	paymentHandlers := payment.Handlers{Cfg: deps.Cfg, DB: deps.DB}
	webhookHandler := webhook.Handler{Cfg: deps.Cfg, DB: deps.DB, Log: deps.Log}

	r.Route("/v1", func(r chi.Router) {
		// Browser frontend runs on a separate origin.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.FrontendAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAgeSeconds:  600,
		}))

		r.Post("/auth/register", authHandlers.Register)
		r.Post("/auth/login", authHandlers.Login)

		// Everything below requires an authenticated user.
		r.Group(func(r chi.Router) {
			r.Use(api.UserAuth(deps.Cfg, userRepo))

			r.Post("/jobs", jobHandlers.Create)
			r.Get("/jobs", jobHandlers.List)
			r.Get("/jobs/{id}", jobHandlers.Get)

			r.Post("/applications", applicationHandlers.Submit)
			r.Get("/applications", applicationHandlers.List)
			r.Get("/applications/{id}", applicationHandlers.Get)
			r.Patch("/applications/{id}/accept", applicationHandlers.Accept)
			r.Patch("/applications/{id}/reject", applicationHandlers.Reject)
			r.Patch("/applications/{id}/withdraw", applicationHandlers.Withdraw)

			r.Post("/bookings", bookingHandlers.Create)
			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Get("/bookings/{id}/events", bookingHandlers.Events)
			r.Patch("/bookings/{id}/start", bookingHandlers.Start)
			r.Patch("/bookings/{id}/complete", bookingHandlers.Complete)
			r.Patch("/bookings/{id}/cancel", bookingHandlers.Cancel)
			r.Patch("/bookings/{id}/dispute", bookingHandlers.Dispute)
			r.Post("/bookings/{id}/admin/override", bookingHandlers.AdminOverride)

			r.Get("/bookings/{id}/milestones", bookingHandlers.ListMilestones)
			r.Post("/bookings/{id}/milestones", bookingHandlers.AddMilestone)
			r.Delete("/bookings/{id}/milestones/{milestoneID}", bookingHandlers.RemoveMilestone)
			r.Post("/milestones/{id}/request-payment", paymentHandlers.RequestPayment)

			r.Post("/bookings/{id}/proofs", bookingHandlers.CreateProof)
			r.Get("/bookings/{id}/proofs", bookingHandlers.ListProofs)

			r.Get("/reviews/can-review/{bookingID}", reviewHandlers.CanReview)
			r.Get("/reviews/by-booking/{bookingID}", reviewHandlers.GetByBooking)
			r.Post("/reviews", reviewHandlers.Create)
		})

		// Payment provider callback. Authenticated by HMAC signature, not a
		// user session.
		r.Post("/webhooks/payments", webhookHandler.ServeHTTP)
	})

	return r
}
