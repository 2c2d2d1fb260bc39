package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
	"github.com/ashvale/gatewarden/internal/metrics"
	"github.com/ashvale/gatewarden/internal/roblox"
)

// Dependencies wires the HTTP front-end to the core. The HTTP caller is
// trusted (API authentication is out of scope), so every mutating route
// presents administrator capability to the gateway.
type Dependencies struct {
	Logger    *slog.Logger
	Addr      string
	Gateway   *service.Gateway
	Resolver  service.IdentityResolver
	Metrics   *metrics.Metrics
	PublicURL string
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	mux        *http.ServeMux
	gateway    *service.Gateway
	resolver   service.IdentityResolver
	publicURL  string
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:    d.Logger,
		mux:       mux,
		gateway:   d.Gateway,
		resolver:  d.Resolver,
		publicURL: d.PublicURL,
	}

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /check_whitelist", s.handleCheckWhitelist)
	mux.HandleFunc("GET /verify", s.handleVerify)
	mux.HandleFunc("POST /webhook_verify", s.handleWebhookVerify)
	mux.HandleFunc("GET /whitelist", s.handleList)
	mux.HandleFunc("POST /whitelist/remove", s.handleRemovePost)
	mux.HandleFunc("DELETE /whitelist/{id}", s.handleRemoveDelete)
	mux.HandleFunc("GET /admin", s.handleAdminPage)
	mux.HandleFunc("POST /admin/add", s.handleAdminAdd)
	mux.HandleFunc("POST /admin/remove", s.handleAdminRemove)

	if d.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(
			d.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	handler := observeMiddleware(d.Logger, d.Metrics, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": "Gatewarden Whitelist API",
		"endpoints": map[string]string{
			"check_whitelist": "/check_whitelist?user_id=123",
			"verify_user":     "/verify?username=RobloxUser",
			"whitelist":       "/whitelist",
			"admin_panel":     "/admin",
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCheckWhitelist(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "no user_id provided")
		return
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	res, err := s.gateway.Check(r.Context(), userID)
	switch {
	case errors.Is(err, service.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	case err != nil:
		s.internalError(w, "check_whitelist", err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse(res))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "no username provided")
		return
	}

	user, err := s.resolver.ResolveByName(r.Context(), username)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "User not found on Roblox",
		})
		return
	}

	res, err := s.gateway.Check(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, "verify", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"user_id":     user.ID,
		"username":    user.Username,
		"whitelisted": res.Whitelisted,
		"profile_url": roblox.ProfileURL(user.ID),
	})
}

// webhookRequest is the game-server payload. Unknown extra fields are
// tolerated; older game scripts send timestamps the server ignores.
type webhookRequest struct {
	UserID      int64  `json:"user_id"`
	Action      string `json:"action"`
	Username    string `json:"username"`
	DiscordUser string `json:"discord_user"`
}

func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "no user_id provided")
		return
	}

	switch req.Action {
	case "", "check":
		res, err := s.gateway.Check(r.Context(), req.UserID)
		if err != nil {
			s.internalError(w, "webhook_verify check", err)
			return
		}
		writeJSON(w, http.StatusOK, checkResponse(res))

	case "add":
		entry, err := s.gateway.Add(r.Context(), service.AddInput{
			UserID:   req.UserID,
			Username: req.Username,
			Actor:    req.DiscordUser,
			Source:   types.SourceAPI,
			Caller:   types.Administrator(),
		})
		if err != nil {
			s.internalError(w, "webhook_verify add", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "User " + entry.Username + " whitelisted",
		})

	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gateway.List(r.Context())
	if err != nil {
		s.internalError(w, "whitelist list", err)
		return
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"whitelist": ids,
		"count":     len(entries),
		"entries":   entries,
	})
}

func (s *Server) handleRemovePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.removeUser(w, r, req.UserID)
}

func (s *Server) handleRemoveDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	s.removeUser(w, r, userID)
}

func (s *Server) removeUser(w http.ResponseWriter, r *http.Request, userID int64) {
	if userID <= 0 {
		writeError(w, http.StatusBadRequest, "no user_id provided")
		return
	}

	entry, err := s.gateway.Remove(r.Context(), userID, types.Administrator())
	switch {
	case errors.Is(err, service.ErrNotWhitelisted):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "user is not whitelisted",
		})
	case err != nil:
		s.internalError(w, "whitelist remove", err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"user_id":  entry.UserID,
			"username": entry.Username,
		})
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "unexpected server error")
}

func checkResponse(res types.CheckResult) map[string]any {
	return map[string]any{
		"success":     true,
		"whitelisted": res.Whitelisted,
		"user_id":     res.UserID,
		"username":    res.Username,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
