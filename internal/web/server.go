// Package web expõe o governor via HTTP: status, tunáveis, histórico
// de transições e os pontos de controle (disable, boost, suspend).
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"cpu-hotplug-manager/internal/activity"
	"cpu-hotplug-manager/internal/governor"
	"cpu-hotplug-manager/internal/storage"
	"cpu-hotplug-manager/internal/web/handlers"
	"cpu-hotplug-manager/internal/web/middleware"
)

// ServerConfig configuração do servidor HTTP
type ServerConfig struct {
	Port  int
	Token string // vazio desabilita auth
	Debug bool
}

// Server servidor HTTP do governor
type Server struct {
	router *gin.Engine
	httpd  *http.Server
	config ServerConfig

	gov         *governor.Governor
	persistence *storage.Persistence
	activity    *activity.ChannelSource
}

// NewServer cria o servidor web sobre um governor já construído
func NewServer(cfg ServerConfig, gov *governor.Governor, p *storage.Persistence, src *activity.ChannelSource) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	// gin.New() ao invés de gin.Default() para controle manual dos middlewares
	router := gin.New()

	s := &Server{
		router:      router,
		config:      cfg,
		gov:         gov,
		persistence: p,
		activity:    src,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configura os middlewares do servidor
func (s *Server) setupMiddleware() {
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
}

// setupRoutes configura as rotas da API
func (s *Server) setupRoutes() {
	// Health check (sem auth)
	s.router.GET("/health", func(c *gin.Context) {
		st := s.gov.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"running":     st.Running,
			"online_cpus": st.OnlineCPUs,
		})
	})

	// Métricas Prometheus (sem auth, scraping local)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (com auth quando token configurado)
	api := s.router.Group("/api/v1")
	api.Use(middleware.TokenAuth(s.config.Token))

	// Estado e controle do governor
	controlHandler := handlers.NewControlHandler(s.gov, s.activity)
	api.GET("/status", controlHandler.Status)
	api.POST("/control/disable", controlHandler.Disable)
	api.POST("/control/boost", controlHandler.Boost)
	api.POST("/control/suspend", controlHandler.Suspend)
	api.POST("/control/resume", controlHandler.Resume)

	// Tunáveis
	paramsHandler := handlers.NewParamsHandler(s.gov)
	api.GET("/params", paramsHandler.List)
	api.GET("/params/:name", paramsHandler.Get)
	api.PUT("/params/:name", paramsHandler.Set)

	// Histórico de transições
	eventsHandler := handlers.NewEventsHandler(s.persistence)
	api.GET("/transitions", eventsHandler.List)
	api.GET("/transitions/stats", eventsHandler.Stats)
}

// Start sobe o servidor HTTP. Bloqueia até Shutdown ou erro fatal.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpd = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Info().
		Str("addr", addr).
		Bool("auth", s.config.Token != "").
		Msg("Starting web server")

	if err := s.httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Shutdown encerra o servidor gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpd == nil {
		return nil
	}

	log.Info().Msg("Shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpd.Shutdown(shutdownCtx)
}
