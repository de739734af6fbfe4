// Package server implements the Cheeko web backend: LiveKit token
// issuance with agent dispatch, Google/GitHub auth status, the local
// OAuth bootstrap flow and static serving of the browser frontend.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/altio-ai/cheeko/pkg/config"
	"github.com/altio-ai/cheeko/spytools"
)

// tokenTTL is how long an issued room token stays valid.
const tokenTTL = 2 * time.Hour

// Dispatcher requests an agent into a room. Dispatch failures are
// logged by the caller, never surfaced to the web client.
type Dispatcher interface {
	Dispatch(ctx context.Context, room string) error
}

// liveKitDispatcher dispatches the Cheeko agent through the LiveKit
// agent dispatch service.
type liveKitDispatcher struct {
	client    *lksdk.AgentDispatchClient
	agentName string
}

func newLiveKitDispatcher(cfg *config.Config) *liveKitDispatcher {
	return &liveKitDispatcher{
		client:    lksdk.NewAgentDispatchServiceClient(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret),
		agentName: cfg.AgentName,
	}
}

func (d *liveKitDispatcher) Dispatch(ctx context.Context, room string) error {
	_, err := d.client.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		Room:      room,
		AgentName: d.agentName,
	})
	return err
}

// Server is the Cheeko token/auth HTTP server.
type Server struct {
	cfg      *config.Config
	dispatch Dispatcher
	router   chi.Router
}

// New builds the server. When LiveKit credentials are configured a
// real dispatcher is attached; the token endpoint refuses to mint
// tokens without them either way.
func New(cfg *config.Config) *Server {
	s := &Server{cfg: cfg}
	if cfg.HasLiveKit() {
		s.dispatch = newLiveKitDispatcher(cfg)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(addCORS)

	r.Get("/api/token", s.handleToken)
	r.Post("/api/token", s.handleToken)
	r.Get("/api/auth/status", s.handleAuthStatus)
	r.Post("/api/auth/google", s.handleGoogleAuth)

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return r
}

// Handler returns the HTTP handler, for mounting and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr(), Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Cheeko server listening on %s", s.cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// addCORS wraps the API for the browser frontend, which may be served
// from another origin during development.
func addCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type tokenRequest struct {
	UserDetails map[string]interface{} `json:"userDetails"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	URL      string `json:"url"`
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

// handleToken mints a fresh room and participant token. The optional
// userDetails record rides inside the token's metadata claim so the
// agent can read it off the participant after join.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.HasLiveKit() {
		writeError(w, http.StatusInternalServerError, "LiveKit credentials not configured")
		return
	}

	var req tokenRequest
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	identity := "user-" + shortID()
	room := "cheeko-room-" + shortID()

	name := "User"
	if n, ok := req.UserDetails["name"].(string); ok && n != "" {
		name = n
	}

	at := auth.NewAccessToken(s.cfg.LiveKitAPIKey, s.cfg.LiveKitAPISecret)
	grant := &auth.VideoGrant{RoomJoin: true, Room: room}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)
	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(tokenTTL)

	if len(req.UserDetails) > 0 {
		meta, err := json.Marshal(req.UserDetails)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid userDetails")
			return
		}
		at.SetMetadata(string(meta))
	}

	jwt, err := at.ToJWT()
	if err != nil {
		log.Printf("[Server] token signing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	// Best effort: a room with no agent worker still gets a token
	if s.dispatch != nil {
		if err := s.dispatch.Dispatch(r.Context(), room); err != nil {
			log.Printf("[Server] agent dispatch note: %v", err)
		}
	}

	log.Printf("[Server] issued token for %s in %s", identity, room)
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:    jwt,
		URL:      s.cfg.LiveKitURL,
		Identity: identity,
		Room:     room,
	})
}

type authStatus struct {
	Google googleStatus `json:"google"`
	GitHub githubStatus `json:"github"`
}

type googleStatus struct {
	Connected      bool   `json:"connected"`
	HasCredentials bool   `json:"hasCredentials"`
	Source         string `json:"source,omitempty"`
}

type githubStatus struct {
	Connected bool `json:"connected"`
}

// handleAuthStatus reports whether each spy tool credential is in
// place, and where the Google one came from.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	status := authStatus{
		GitHub: githubStatus{Connected: s.cfg.GitHubToken != ""},
	}

	if _, err := os.Stat(s.cfg.CredentialsPath); err == nil {
		status.Google.HasCredentials = true
	}

	if s.cfg.GoogleTokenJSON != "" {
		if spytools.HasUsableToken([]byte(s.cfg.GoogleTokenJSON)) {
			status.Google.Connected = true
			status.Google.Source = "env"
		}
	} else if raw, err := os.ReadFile(s.cfg.TokenPath); err == nil {
		if spytools.HasUsableToken(raw) {
			status.Google.Connected = true
			status.Google.Source = "file"
		}
	}

	writeJSON(w, http.StatusOK, status)
}

// handleGoogleAuth runs the local interactive OAuth flow. It only
// works on a machine with a browser; headless deployments inject
// GOOGLE_TOKEN_JSON instead and never hit the flow.
func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.GoogleTokenJSON != "" && spytools.HasUsableToken([]byte(s.cfg.GoogleTokenJSON)) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "already_authorized",
			"source": "env",
		})
		return
	}

	if _, err := os.Stat(s.cfg.CredentialsPath); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("OAuth client secrets not found at %s", s.cfg.CredentialsPath),
			"hint":  "On headless deployments set GOOGLE_TOKEN_JSON with a pre-obtained credential instead.",
		})
		return
	}

	if err := spytools.RunLocalFlow(r.Context(), s.cfg); err != nil {
		log.Printf("[Server] OAuth flow failed: %v", err)
		writeError(w, http.StatusInternalServerError, "authorization flow failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}

func shortID() string {
	return uuid.NewString()[:8]
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
