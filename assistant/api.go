package assistant

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

// Service serves the chat endpoint. A nil Agent means no model key was
// configured.
type Service struct {
	Agent  *Agent
	Logger *logrus.Logger
}

// Chat answers ?chat_message= or a JSON {"message"} body and echoes the
// prompt back next to the response.
func (s *Service) Chat(c *fiber.Ctx) error {
	if s.Agent == nil {
		return apperr.ErrAssistantDisabled
	}
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}

	prompt := c.Query("chat_message")
	if strings.TrimSpace(prompt) == "" && len(c.Body()) > 0 {
		var req fields.ChatRequest
		if err := gateway.BindJSON(c, &req); err != nil {
			return err
		}
		prompt = req.Message
	}
	if strings.TrimSpace(prompt) == "" {
		return apperr.WithMessage(apperr.ErrBadRequest, "chat_message is required")
	}

	answer, err := s.Agent.Chat(c.UserContext(), userID, prompt)
	if err != nil {
		logger := s.Logger
		if logger == nil {
			logger = s.Agent.logger()
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"request_id": gateway.RequestIDFromCtx(c),
		}).Error("chat failed")
		answer = Apology(err)
	}
	return c.JSON(fields.ChatResponse{Message: prompt, Response: answer})
}

func (s *Service) Routes(r fiber.Router) {
	r.Post("/", s.Chat)
}
