package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Request log thresholds
const (
	slowRequest      = 500 * time.Millisecond
	errorStatusFloor = 400
)

// requestLogFormat is parsed back by filteredWriter
const requestLogFormat = "${status} | ${latency} | ${method} ${path} | ${locals:requestid}\n"

// requestLogger logs only slow or failed requests
func requestLogger(l *log.Logger) fiber.Handler {
	return logger.New(logger.Config{
		Format: requestLogFormat,
		Output: &filteredWriter{logger: l},
	})
}

// filteredWriter turns fiber access log lines into structured log entries,
// dropping fast successful requests
type filteredWriter struct {
	logger *log.Logger
}

func (w *filteredWriter) Write(p []byte) (int, error) {
	parts := strings.Split(strings.TrimSpace(string(p)), " | ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		w.logger.Info(strings.TrimSpace(string(p)))
		return len(p), nil
	}

	status, _ := strconv.Atoi(parts[0])
	latency, latencyErr := time.ParseDuration(parts[1])

	slow := latencyErr == nil && latency >= slowRequest
	if status < errorStatusFloor && !slow {
		return len(p), nil
	}

	kv := []any{"status", status, "latency", parts[1], "route", parts[2]}
	if len(parts) > 3 && parts[3] != "" {
		kv = append(kv, "request_id", parts[3])
	}

	switch {
	case status >= 500:
		w.logger.Error("request", kv...)
	case status >= errorStatusFloor:
		w.logger.Warn("request", kv...)
	default:
		w.logger.Warn("slow request", kv...)
	}
	return len(p), nil
}

// rateLimit allows max requests per client IP per window
func rateLimit(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}
