// Package web serves the health, status and metrics endpoints.
// It uses Gin for routing and middleware.
package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds the per-IP rate limit
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	// MaxClients bounds the number of tracked IPs
	MaxClients int
}

// DefaultRateLimit allows 100 requests per minute per IP
var DefaultRateLimit = RateLimitConfig{
	Window:      60 * time.Second,
	MaxRequests: 100,
	MaxClients:  4096,
}

// Server represents the web server
type Server struct {
	engine *gin.Engine
	mu     sync.Mutex
	http   *http.Server
}

var (
	server *Server
)

// Init initializes the global web server
func Init(limit RateLimitConfig) *Server {
	server = NewServer(limit)
	return server
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a new web server
func NewServer(limit RateLimitConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine}

	s.engine.Use(s.logsMiddleware())
	s.engine.Use(rateLimitMiddleware(limit))

	s.setupErrorHandlers()

	return s
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// logsMiddleware logs every request with its status and latency
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(fmt.Sprintf("%s %s %d %s | %s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.ClientIP()), "WebServer")
	}
}

// rateLimitMiddleware keeps a token bucket per client IP. Idle buckets
// expire after the window.
func rateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.MaxClients <= 0 {
		config.MaxClients = DefaultRateLimit.MaxClients
	}
	every := rate.Every(config.Window / time.Duration(config.MaxRequests))
	clients := expirable.NewLRU[string, *rate.Limiter](config.MaxClients, nil, config.Window)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		limiter, ok := clients.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(every, config.MaxRequests)
			clients.Add(ip, limiter)
		}

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Troppe richieste, riprova più tardi.",
			})
			return
		}

		c.Next()
	}
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La risorsa richiesta non esiste.",
			"status":  404,
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "Metodo HTTP non consentito per questa risorsa.",
			"status":  405,
		})
	})
}

// Start serves on port until Shutdown is called
func (s *Server) Start(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	logger.Info(fmt.Sprintf("Web server listening on http://localhost:%s", port), "WebServer")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil {
			logger.Error(fmt.Sprintf("Error starting web server: %v", err), "WebServer")
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// GET registers a GET route
func (s *Server) GET(path string, handlers ...gin.HandlerFunc) {
	s.engine.GET(path, handlers...)
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}
