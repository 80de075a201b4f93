// Package api exposes the dashboard, backtest and paper ledger over HTTP.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aikkad/mac-trading-academy/internal/desk"
	"github.com/Aikkad/mac-trading-academy/internal/metrics"
	"github.com/Aikkad/mac-trading-academy/internal/paper"
)

// Defaults fill in query parameters the client leaves out.
type Defaults struct {
	Request desk.Request
	Params  desk.Params
}

// Server is the HTTP front end.
type Server struct {
	engine *gin.Engine
	server *http.Server
}

// NewServer builds the router. acct may be nil, which disables the paper routes.
func NewServer(addr string, d *desk.Desk, acct *paper.Account, m *metrics.Metrics, defaults Defaults) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine: engine,
		server: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.setupRoutes(NewHandler(d, acct, defaults), m)
	return s
}

func (s *Server) setupRoutes(h *Handler, m *metrics.Metrics) {
	api := s.engine.Group("/api")
	{
		api.GET("/indicators", h.GetIndicators)
		api.GET("/backtest", h.GetBacktest)
		api.GET("/chart.svg", h.GetChart)

		if h.account != nil {
			api.GET("/paper", h.GetStatement)
			api.POST("/paper/orders", h.PostOrder)
		}
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(m.Handler()))
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("[INFO] HTTP server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting up to five seconds for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("[INFO] %s %s %d %v", c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
