package handler

import (
	"bytes"
	"net/http"
	"time"

	"cf_stats/internal/app/render"
	"cf_stats/internal/common"
	"cf_stats/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "cfstats_session"
	sessionMaxAge     = 30 * 24 * time.Hour
)

// PageHandler serves the HTML search page.
type PageHandler struct {
	profiles ProfileLookup
	renderer *render.HTMLRenderer
}

func NewPageHandler(profiles ProfileLookup, renderer *render.HTMLRenderer) *PageHandler {
	return &PageHandler{profiles: profiles, renderer: renderer}
}

// ServeHTTP renders the empty form, the profile card for ?handle=, or a single
// error message in place of the card.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("handle") {
		h.write(w, r, http.StatusOK, render.Page{})
		return
	}

	handle := query.Get("handle")
	page := render.Page{Query: handle}
	session := sessionKey(w, r)

	profile, err := h.profiles.LookupForClient(r.Context(), session, handle)
	if err != nil {
		logLookupError(r, err)
		page.Error = common.UserMessage(err)
		h.write(w, r, common.HTTPStatusFromError(err), page)
		return
	}

	card := render.BuildCard(*profile)
	page.Card = &card
	h.write(w, r, http.StatusOK, page)
}

func (h *PageHandler) write(w http.ResponseWriter, r *http.Request, status int, page render.Page) {
	var buf bytes.Buffer
	if err := h.renderer.RenderPage(&buf, page); err != nil {
		logger.Error(r.Context(), "failed to render page", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// sessionKey returns the browser session id, issuing a new cookie when absent.
func sessionKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
