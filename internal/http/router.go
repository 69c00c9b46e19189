package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"polltree/internal/domain/followup"
	"polltree/internal/domain/question"
	"polltree/internal/domain/user"
	"polltree/internal/platform/apperr"
	jwtpkg "polltree/internal/platform/jwt"
	"polltree/internal/worker"
)

// Deps wires the router to the services it serves.
type Deps struct {
	Users     *user.Service
	Questions *question.Service
	FollowUps *followup.Service
	JWT       *jwtpkg.Manager
	Events    chan<- worker.Event
	DB        *gorm.DB

	VotesPerMinute int
	VoteBurst      int
}

type Handler struct {
	userSvc     *user.Service
	questionSvc *question.Service
	followUpSvc *followup.Service
	jwtMgr      *jwtpkg.Manager
	events      chan<- worker.Event
	db          *gorm.DB
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		userSvc:     d.Users,
		questionSvc: d.Questions,
		followUpSvc: d.FollowUps,
		jwtMgr:      d.JWT,
		events:      d.Events,
		db:          d.DB,
	}

	votesPerMinute, burst := d.VotesPerMinute, d.VoteBurst
	if votesPerMinute <= 0 {
		votesPerMinute = 10
	}
	if burst <= 0 {
		burst = 3
	}
	voteLimit := RateLimitVotes(rate.Every(time.Minute/time.Duration(votesPerMinute)), burst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Get("/questions", h.handleListQuestions)
		r.Get("/questions/{id}", h.handleGetQuestion)
		r.Get("/questions/{id}/results", h.handleResults)
		r.Get("/followups/{id}", h.handleGetFollowUp)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.JWT))

			r.Post("/questions", h.handleCreateQuestion)
			r.Patch("/questions/{id}", h.handleUpdateQuestion)
			r.Put("/questions/{id}", h.handleUpdateQuestion)
			r.Delete("/questions/{id}", h.handleDeleteQuestion)
			r.With(voteLimit).Post("/questions/{id}/vote", h.handleVote)
			r.Post("/questions/{id}/branches", h.handleBranch)
			r.Post("/choices/{id}/paths", h.handlePath)

			r.Post("/followups/{id}/replies", h.handleReply)
			r.With(voteLimit).Post("/followups/{id}/vote", h.handleFollowUpVote)
			r.Delete("/followups/{id}", h.handleDeleteFollowUp)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(user.RoleAdmin))
				h.mountAdmin(r)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("invalid_input", "request body is empty", err)
		}
		return apperr.BadRequest("invalid_input", "invalid body", err)
	}
	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("invalid_input", "invalid "+name, err)
	}
	return id, nil
}

// parsePage reads limit and offset query parameters; bad values fall back to zero.
func parsePage(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset
}

func optionalID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.BadRequest("invalid_input", "invalid "+name, err)
	}
	return &id, nil
}

func (h *Handler) emit(ev worker.Event) {
	if !worker.Emit(h.events, ev) && h.events != nil {
		slogLogger.Warn("event queue full, dropping event", "kind", ev.Kind)
	}
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not ready",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
