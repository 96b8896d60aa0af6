package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/remoctl/internal/climate"
	"github.com/dokzlo13/remoctl/internal/config"
)

// StatusService provides HTTP health, readiness and session state endpoints.
type StatusService struct {
	cfg     *config.Config
	session *climate.Session
	server  *http.Server
}

type stateResponse struct {
	RoomTemperature   float64    `json:"room_temperature"`
	Power             string     `json:"power"`
	Mode              string     `json:"mode"`
	TargetTemperature float64    `json:"target_temperature"`
	SyncError         string     `json:"sync_error,omitempty"`
	CommandError      string     `json:"command_error,omitempty"`
	Loading           bool       `json:"loading"`
	SyncedAt          *time.Time `json:"synced_at,omitempty"`
}

// NewStatusService creates a new StatusService.
func NewStatusService(cfg *config.Config, session *climate.Session) *StatusService {
	return &StatusService{
		cfg:     cfg,
		session: session,
	}
}

// Handler returns the status endpoints
func (s *StatusService) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Ready once the first synchronization has completed
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.session.State().Loading {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		st := s.session.State()
		resp := stateResponse{
			RoomTemperature:   st.RoomTemperature,
			Power:             string(st.Power),
			Mode:              string(st.Mode),
			TargetTemperature: st.TargetTemperature,
			SyncError:         st.SyncError,
			CommandError:      st.CommandError,
			Loading:           st.Loading,
		}
		if !st.SyncedAt.IsZero() {
			resp.SyncedAt = &st.SyncedAt
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return mux
}

// Start begins the status server if enabled.
func (s *StatusService) Start(ctx context.Context) {
	if !s.cfg.Status.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *StatusService) run(ctx context.Context) {
	addr := s.cfg.Status.Addr()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info().Str("addr", addr).Msg("Starting status server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Status server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write status response")
	}
}
