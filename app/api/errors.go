package api

import (
	"errors"
	"log/slog"

	"healcure/app/i18n"
	"healcure/app/service/conversation"
	"healcure/app/service/detection"
	"healcure/app/service/places"

	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	target error
	status int
	key    i18n.Key
}

var errorMappings = []errorMapping{
	{conversation.ErrSessionNotFound, fiber.StatusNotFound, i18n.SessionNotFound},
	{conversation.ErrSessionEnded, fiber.StatusNotFound, i18n.SessionNotFound},
	{conversation.ErrTooManySessions, fiber.StatusServiceUnavailable, i18n.TooManySessions},
	{conversation.ErrEmptyMessage, fiber.StatusBadRequest, i18n.EmptyMessage},
	{detection.ErrPermissionDenied, fiber.StatusForbidden, i18n.PermissionDenied},
	{detection.ErrCancelled, fiber.StatusBadRequest, i18n.Cancelled},
	{detection.ErrUnknownSource, fiber.StatusBadRequest, i18n.UnknownSource},
	{detection.ErrUnsupportedImage, fiber.StatusUnsupportedMediaType, i18n.UnsupportedImage},
	{detection.ErrImageTooLarge, fiber.StatusRequestEntityTooLarge, i18n.ImageTooLarge},
	{detection.ErrImageNotFound, fiber.StatusNotFound, i18n.ImageNotFound},
	{places.ErrPermissionDenied, fiber.StatusForbidden, i18n.PermissionDenied},
	{places.ErrUnknownCategory, fiber.StatusBadRequest, i18n.UnknownCategory},
}

// handleError renders every handler error as a localized JSON body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code, message := describeError(s.requestLocale(c), err)

	if status >= fiber.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	} else {
		slog.Debug("Request rejected",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	}

	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func describeError(locale i18n.Locale, err error) (status int, code, message string) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			return mapping.status, string(mapping.key), i18n.Text(locale, mapping.key)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, "http_error", fiberErr.Message
	}

	return fiber.StatusInternalServerError, string(i18n.InternalError), i18n.Text(locale, i18n.InternalError)
}
