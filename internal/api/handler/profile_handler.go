package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"cf_stats/internal/api/middleware"
	"cf_stats/internal/app/render"
	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileLookup is the part of ProfileService the HTTP layer needs.
type ProfileLookup interface {
	Lookup(ctx context.Context, handle string) (*model.Profile, error)
	LookupForClient(ctx context.Context, clientKey, handle string) (*model.Profile, error)
	Refresh(ctx context.Context, handle string) (*model.Profile, error)
	History(ctx context.Context, handle string, limit int) ([]model.Snapshot, error)
	Invalidate(ctx context.Context, handle string) error
}

type RefreshEnqueuer interface {
	Enqueue(ctx context.Context, handle, requestedBy string) (*model.RefreshJob, error)
}

type ProfileHandler struct {
	profiles ProfileLookup
	queue    RefreshEnqueuer
}

// NewProfileHandler builds the JSON API handler. queue may be nil, in which case
// admin refreshes run inline.
func NewProfileHandler(profiles ProfileLookup, queue RefreshEnqueuer) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, queue: queue}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{handle}", h.getProfile)              // GET /api/v1/profiles/tourist
	r.Get("/{handle}/snapshots", h.listSnapshots) // GET /api/v1/profiles/tourist/snapshots?limit=10

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/{handle}/refresh", h.refreshProfile)
		adminRouter.Delete("/{handle}/cache", h.invalidateProfile)
	})
}

func (h *ProfileHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Lookup(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, render.NewProfileView(*profile))
}

func (h *ProfileHandler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	snapshots, err := h.profiles.History(r.Context(), chi.URLParam(r, "handle"), limit)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snapshots)
}

func (h *ProfileHandler) refreshProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	subject, _ := middleware.GetSubjectFromContext(r.Context())

	if h.queue == nil {
		profile, err := h.profiles.Refresh(r.Context(), handle)
		if err != nil {
			respondWithLookupError(w, r, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, render.NewProfileView(*profile))
		return
	}

	job, err := h.queue.Enqueue(r.Context(), handle, subject)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *ProfileHandler) invalidateProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Invalidate(r.Context(), chi.URLParam(r, "handle")); err != nil {
		respondWithLookupError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondWithLookupError(w http.ResponseWriter, r *http.Request, err error) {
	logLookupError(r, err)
	common.RespondWithDomainError(w, err)
}

func logLookupError(r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Info(r.Context(), "request canceled by client", zap.String("path", r.URL.Path))
		return
	}
	if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", zap.String("path", r.URL.Path), zap.Error(err))
		return
	}
	logger.Info(r.Context(), "request rejected", zap.String("path", r.URL.Path), zap.Error(err))
}
