// Package server exposes the booking agent over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/comigor/jarvis-booking/internal/agent"
	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/internal/logger"
)

// TurnRunner runs one conversational turn over a caller-owned transcript.
type TurnRunner interface {
	RunTurn(ctx context.Context, transcript []openai.ChatCompletionMessage, today time.Time) ([]openai.ChatCompletionMessage, error)
}

// TurnLog records the messages a turn appended.
type TurnLog interface {
	Append(ctx context.Context, sessionID string, msgs ...openai.ChatCompletionMessage)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string                         `json:"session_id"`
	Message   string                         `json:"message"`
	History   []openai.ChatCompletionMessage `json:"history"`
}

// ChatResponse is returned by POST /chat. History is the full transcript,
// ready to be sent back with the next message.
type ChatResponse struct {
	Response  string                         `json:"response"`
	SessionID string                         `json:"session_id"`
	History   []openai.ChatCompletionMessage `json:"history"`
}

// Server is the HTTP front end.
type Server struct {
	cfg      config.ServerConfig
	runner   TurnRunner
	turnLog  TurnLog
	location *time.Location
	metrics  http.Handler
	engine   *gin.Engine

	now func() time.Time
}

// New builds the router. turnLog and metrics may be nil.
func New(cfg config.ServerConfig, runner TurnRunner, turnLog TurnLog, location *time.Location, metrics http.Handler) *Server {
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		turnLog:  turnLog,
		location: location,
		metrics:  metrics,
		now:      time.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/", s.handleRoot)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	r.POST("/chat", rateLimit(cfg.RateLimitPerMinute), s.handleChat)

	s.engine = r
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("starting server", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Appointment booking agent is running."})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := c.Request.Context()
	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message}
	transcript := append(append(make([]openai.ChatCompletionMessage, 0, len(req.History)+1), req.History...), userMsg)

	logger.L.Info("chat request", logger.Session(req.SessionID), "history_len", len(req.History))
	out, err := s.runner.RunTurn(ctx, transcript, s.now().In(s.location))
	if err != nil {
		logger.L.Error("turn failed", logger.Session(req.SessionID), logger.Err(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "session_id": req.SessionID})
		return
	}

	if s.turnLog != nil {
		s.turnLog.Append(ctx, req.SessionID, out[len(req.History):]...)
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  agent.FinalReply(out),
		SessionID: req.SessionID,
		History:   out,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrLoopLimitExceeded):
		return http.StatusBadGateway
	case errors.Is(err, agent.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request through the shared slog logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
