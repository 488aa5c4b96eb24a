package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/rl"
	"github.com/zeu5/wumpus-rl/wumpus"
)

type hyperparams struct {
	LearningRate   float64 `json:"learningRate" binding:"gt=0,lte=1"`
	DiscountFactor float64 `json:"discountFactor" binding:"gte=0,lte=1"`
	Epsilon        float64 `json:"epsilon" binding:"gte=0,lte=1"`
	Episodes       int     `json:"episodes" binding:"gt=0"`
}

type trainRequest struct {
	Algorithm   string         `json:"algorithm" binding:"required"`
	Hyperparams *hyperparams   `json:"hyperparams" binding:"required"`
	Seed        uint64         `json:"seed"`
	Horizon     int            `json:"horizon" binding:"gte=0"`
	Layout      *wumpus.Layout `json:"layout"`
}

func (t *trainRequest) toRequest() *rl.Request {
	return &rl.Request{
		Algorithm: t.Algorithm,
		Hyperparams: rl.Hyperparams{
			LearningRate:   t.Hyperparams.LearningRate,
			DiscountFactor: t.Hyperparams.DiscountFactor,
			Epsilon:        t.Hyperparams.Epsilon,
			Episodes:       t.Hyperparams.Episodes,
		},
		Seed:    t.Seed,
		Horizon: t.Horizon,
		Layout:  t.Layout,
	}
}

type Config struct {
	Port int
	// MaxEpisodes bounds the work of a single request, 0 for no bound
	MaxEpisodes    int
	AllowedOrigins []string
	Logger         log.Logger
}

// Server exposes training over HTTP. Every request trains its own agent;
// nothing mutable is shared between requests.
type Server struct {
	config *Config
	logger log.Logger
	server *http.Server
}

func NewServer(config *Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		config: config,
		logger: log.With(logger, "component", "server"),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.GET("/api/health", healthHandler)
	r.POST("/api/train", s.handleTrain)

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", config.Port),
		Handler: c.Handler(r),
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	level.Debug(s.logger).Log(
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

func (s *Server) handleTrain(c *gin.Context) {
	req := &trainRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}
	if s.config.MaxEpisodes > 0 && req.Hyperparams.Episodes > s.config.MaxEpisodes {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("episodes must be at most %d", s.config.MaxEpisodes),
		})
		return
	}

	result, err := rl.Run(c.Request.Context(), req.toRequest(), s.logger)
	if err != nil {
		switch errors.Cause(err) {
		case policies.ErrUnknownAlgorithm:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid algorithm specified"})
		case policies.ErrInvalidHyperparams, wumpus.ErrInvalidLayout:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		default:
			level.Error(s.logger).Log("msg", "training failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "training failed"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// Start serves until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		level.Info(s.logger).Log("msg", "listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
