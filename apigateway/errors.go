package gateway

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

// ErrorHandler renders handler errors as {"code","message","fields"}.
// Unknown errors become a 500 with the message logged and hidden.
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, payload := renderError(err)
		if status >= fiber.StatusInternalServerError && logger != nil {
			logger.WithFields(logrus.Fields{
				"request_id": RequestIDFromCtx(c),
				"path":       c.Path(),
				"method":     c.Method(),
			}).WithError(err).Error("request failed")
		}
		return c.Status(status).JSON(payload)
	}
}

func renderError(err error) (int, map[string]any) {
	if e, ok := apperr.As(err); ok {
		status := apperr.Status(e)
		payload := apperr.Payload(e)
		if status >= fiber.StatusInternalServerError && e.Code == apperr.ErrInternal.Code {
			payload["message"] = "internal server error"
		}
		return status, payload
	}
	if fe, ok := ValidationError(err); ok {
		return apperr.Status(fe), apperr.Payload(fe)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, map[string]any{
			"code":    codeForStatus(fiberErr.Code),
			"message": fiberErr.Message,
		}
	}
	return fiber.StatusInternalServerError, map[string]any{
		"code":    apperr.ErrInternal.Code,
		"message": "internal server error",
	}
}

// ValidationError converts validator errors into an apperr validation error.
func ValidationError(err error) (*apperr.Error, bool) {
	fs, ok := fields.ValidationFields(err)
	if !ok {
		return nil, false
	}
	out := apperr.Wrap(err, apperr.ErrValidation, "request validation failed")
	out.Fields = fs
	return out, true
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return apperr.ErrBadRequest.Code
	case fiber.StatusUnauthorized:
		return apperr.ErrUnauthorized.Code
	case fiber.StatusForbidden:
		return apperr.ErrForbidden.Code
	case fiber.StatusNotFound:
		return apperr.ErrNotFound.Code
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusConflict:
		return apperr.ErrConflict.Code
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusServiceUnavailable:
		return apperr.ErrUnavailable.Code
	}
	if status >= fiber.StatusInternalServerError {
		return apperr.ErrInternal.Code
	}
	return apperr.ErrBadRequest.Code
}

// BindJSON decodes the request body into dst and validates it.
func BindJSON(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return apperr.ErrEmptyBody
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return apperr.Wrap(err, apperr.ErrBadRequest, "invalid JSON body")
	}
	if err := fields.ValidateStruct(dst); err != nil {
		if verr, ok := ValidationError(err); ok {
			return verr
		}
		return apperr.Wrap(err, apperr.ErrValidation, err.Error())
	}
	return nil
}

// UUIDParam parses a path parameter as a uuid, failing with 400.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.WithFields(apperr.WithMessage(apperr.ErrBadRequest, "invalid "+name), map[string]any{name: "uuid"})
	}
	return id, nil
}
