package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/concierge/internal/errors"
	"github.com/diogo/concierge/internal/models"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{Status: "ok"})
}

func (s *Server) ready(c *fiber.Ctx) error {
	if s.agent == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.HealthResponse{
			Status: "not ready",
			Error:  "agent not initialised",
		})
	}
	return c.JSON(models.HealthResponse{Status: "ready"})
}

// chat answers {"message": "..."} with {"response": "..."}. Agent failures
// are logged and reported with a fixed apology and status 200.
func (s *Server) chat(c *fiber.Ctx) error {
	message, err := parseMessage(c.Body())
	if err != nil {
		s.logger.Debug("chat request rejected", "err", err, "request_id", requestID(c))
		return c.Status(fiber.StatusBadRequest).JSON(models.ChatResponse{Response: models.NoMessageText})
	}

	if s.agent == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ChatResponse{Response: models.AgentFailedText})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.timeout)
	defer cancel()

	reply, err := s.agent.Run(ctx, message)
	if err != nil {
		s.logger.Error("agent invocation failed", "err", err, "request_id", requestID(c))
		return c.JSON(models.ChatResponse{Response: models.AgentFailedText})
	}

	return c.JSON(models.ChatResponse{Response: reply})
}

// parseMessage extracts a non-blank string "message" from a JSON object.
// Every rejection wraps ErrNoMessage.
func parseMessage(body []byte) (string, error) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", fmt.Errorf("body is not JSON: %w", apierrors.ErrNoMessage)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", fmt.Errorf("body is not an object: %w", apierrors.ErrNoMessage)
	}
	msg := root.Get("message")
	if msg.Type != gjson.String || strings.TrimSpace(msg.Str) == "" {
		return "", apierrors.ErrNoMessage
	}
	return msg.Str, nil
}
