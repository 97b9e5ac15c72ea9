package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"roamctl/internal/api"
	"roamctl/internal/backend"
	"roamctl/internal/clients"
	"roamctl/internal/metrics"
	"roamctl/internal/status"
	"roamctl/internal/toggle"
	"roamctl/internal/wifi"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Deps are the components the HTTP surface delegates to.
type Deps struct {
	Backend  backend.Backend
	Status   *status.Reconciler
	Clients  *clients.Inventory
	Wifi     *wifi.Service
	Toggles  *toggle.Controller
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger

	// RebootTimeout bounds the detached reboot request.
	RebootTimeout time.Duration
}

// Server provides the appliance HTTP API.
type Server struct {
	d      Deps
	log    zerolog.Logger
	router *mux.Router

	// onReboot observes the outcome of the detached reboot call.
	onReboot func(error)
}

// NewServer constructs the server and its routes.
func NewServer(d Deps) *Server {
	if d.RebootTimeout <= 0 {
		d.RebootTimeout = 30 * time.Second
	}
	s := &Server{
		d:      d,
		log:    d.Log.With().Str("component", "http").Logger(),
		router: mux.NewRouter(),
	}
	s.RegisterRoutes(s.router)
	return s
}

// RegisterRoutes installs every endpoint on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Use(s.requestMiddleware)

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	a.HandleFunc("/wifi/scan", s.handleWifiScan).Methods(http.MethodGet)
	a.HandleFunc("/wifi/connect", s.handleWifiConnect).Methods(http.MethodPost)
	a.HandleFunc("/hotspot/toggle", s.handleHotspotToggle).Methods(http.MethodPost)
	a.HandleFunc("/hotspot/config", s.handleHotspotConfig).Methods(http.MethodPost)
	a.HandleFunc("/vpn/toggle", s.handleVPNToggle).Methods(http.MethodPost)
	a.HandleFunc("/vpn/config", s.handleVPNConfig).Methods(http.MethodPost)
	a.HandleFunc("/clients", s.handleClients).Methods(http.MethodGet)
	a.HandleFunc("/system/reboot", s.handleReboot).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.d.Status.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, api.NewStatusResponse(snap))
}

func (s *Server) handleWifiScan(w http.ResponseWriter, r *http.Request) {
	nets, err := s.d.Wifi.Scan(r.Context())
	if err != nil {
		s.backendFailed(err)
		writeJSON(w, http.StatusOK, api.ScanResponse{Networks: []api.WifiNetwork{}, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, api.NewScanResponse(nets))
}

func (s *Server) handleWifiConnect(w http.ResponseWriter, r *http.Request) {
	var req api.WifiConnectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.d.Wifi.Connect(r.Context(), req.SSID, req.Password); err != nil {
		s.backendFailed(err)
		writeResult(w, err)
		return
	}
	writeResult(w, nil)
}

func (s *Server) handleHotspotToggle(w http.ResponseWriter, r *http.Request) {
	res, _ := s.d.Toggles.ToggleAP(r.Context())
	writeJSON(w, http.StatusOK, api.NewToggleResponse(res))
}

func (s *Server) handleHotspotConfig(w http.ResponseWriter, r *http.Request) {
	var req api.HotspotConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeResult(w, s.d.Toggles.SaveHotspot(r.Context(), req.SSID, req.Password))
}

func (s *Server) handleVPNToggle(w http.ResponseWriter, r *http.Request) {
	res, _ := s.d.Toggles.ToggleVPN(r.Context())
	writeJSON(w, http.StatusOK, api.NewToggleResponse(res))
}

func (s *Server) handleVPNConfig(w http.ResponseWriter, r *http.Request) {
	var req api.VPNConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeResult(w, s.d.Toggles.SaveVPNConfig(r.Context(), req.Config))
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	records, err := s.d.Clients.List(r.Context())
	if err != nil {
		s.backendFailed(err)
		s.log.Error().Err(err).Msg("client inventory unavailable")
	}
	writeJSON(w, http.StatusOK, api.NewClientsResponse(records))
}

// handleReboot acknowledges first; the reboot runs detached from the request.
func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	log.Warn().Msg("reboot requested")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.d.RebootTimeout)
		defer cancel()
		err := s.d.Backend.Reboot(ctx)
		if err != nil {
			s.backendFailed(err)
			s.log.Error().Err(err).Msg("reboot failed")
		}
		if s.onReboot != nil {
			s.onReboot(err)
		}
	}()

	writeJSON(w, http.StatusOK, api.ResultResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) backendFailed(err error) {
	var be *backend.Error
	if errors.As(err, &be) {
		s.d.Metrics.BackendError(be.Op)
	}
}

// decodeJSON reads a bounded JSON body into v. On failure it writes a 400
// and reports false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeJSON(w, http.StatusOK, api.ResultResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, api.ResultResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ResultResponse{Success: false, Error: message})
}
