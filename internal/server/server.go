// Package server exposes the liveness endpoint used by process supervisors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"job-bot-go/internal/jsearch"
)

// Probes are the read-only views of the running bot the health check
// reports on.
type Probes struct {
	SearchStats    func() jsearch.Stats
	GatewayLatency func() time.Duration
	ActiveSessions func() int
}

// Server serves HTTP requests for the health endpoint
type Server struct {
	router  *gin.Engine
	http    *http.Server
	probes  Probes
	version string
	logger  zerolog.Logger
}

type healthResponse struct {
	Status           string        `json:"status"`
	Service          string        `json:"service"`
	Version          string        `json:"version"`
	GatewayLatencyMS int64         `json:"gateway_latency_ms"`
	ActiveSessions   int           `json:"active_sessions"`
	SearchMetrics    jsearch.Stats `json:"search_metrics"`
}

// NewServer creates a new HTTP server and setups routing
func NewServer(addr, version string, probes Probes, logger zerolog.Logger) *Server {
	server := &Server{
		probes:  probes,
		version: version,
		logger:  logger.With().Str("component", "server").Logger(),
	}
	server.setupRouter()
	server.http = &http.Server{
		Addr:              addr,
		Handler:           server.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

func (server *Server) setupRouter() {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", server.health)
	server.router = router
}

func (server *Server) health(ctx *gin.Context) {
	resp := healthResponse{
		Status:  "ok",
		Service: "job-bot",
		Version: server.version,
	}
	if server.probes.GatewayLatency != nil {
		resp.GatewayLatencyMS = server.probes.GatewayLatency().Milliseconds()
	}
	if server.probes.ActiveSessions != nil {
		resp.ActiveSessions = server.probes.ActiveSessions()
	}
	if server.probes.SearchStats != nil {
		resp.SearchMetrics = server.probes.SearchStats()
	}

	ctx.JSON(http.StatusOK, resp)
}

// Start serves in the background until Shutdown is called.
func (server *Server) Start() {
	go func() {
		server.logger.Info().Str("addr", server.http.Addr).Msg("health server listening")
		if err := server.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.logger.Error().Err(err).Msg("health server stopped")
		}
	}()
}

func (server *Server) Shutdown(ctx context.Context) error {
	if err := server.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down health server: %w", err)
	}
	return nil
}
