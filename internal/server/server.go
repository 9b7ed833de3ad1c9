// Package server exposes the concierge agent over HTTP with fiber.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/diogo/concierge/internal/logging"
	"github.com/diogo/concierge/internal/models"
)

// Defaults
const (
	DefaultRateLimit      = 30
	DefaultRateWindow     = time.Minute
	DefaultRequestTimeout = 2 * time.Minute
	ShutdownTimeout       = 5 * time.Second
	bodyLimit             = 64 * 1024
)

// Agent answers a single user message
type Agent interface {
	Run(ctx context.Context, input string) (string, error)
}

// Options configures the server
type Options struct {
	// RateLimit is the number of /chat requests per client IP per RateWindow;
	// zero uses DefaultRateLimit, negative disables limiting
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// Server serves POST /chat backed by an Agent
type Server struct {
	app     *fiber.App
	agent   Agent
	logger  *log.Logger
	timeout time.Duration
}

// New builds the fiber app and registers all routes
func New(agent Agent, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = DefaultRateWindow
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	s := &Server{
		agent:   agent,
		logger:  opts.Logger,
		timeout: opts.RequestTimeout,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "concierge",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          opts.RequestTimeout + 10*time.Second,
		IdleTimeout:           30 * time.Second,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(requestLogger(s.logger))

	s.app.Get(models.EndpointHealth, s.health)
	s.app.Get(models.EndpointReady, s.ready)

	chatHandlers := []fiber.Handler{s.chat}
	if opts.RateLimit > 0 {
		chatHandlers = append([]fiber.Handler{rateLimit(opts.RateLimit, opts.RateWindow)}, chatHandlers...)
	}
	s.app.Post(models.EndpointChat, chatHandlers...)

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	s.logger.Info("concierge server listening", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	if err := s.app.ShutdownWithTimeout(ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// errorHandler renders errors that escape handlers as JSON
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "path", c.Path(), "request_id", requestID(c))
	}
	message := err.Error()
	if code >= fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}
