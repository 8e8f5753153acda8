package handlers

import (
	"errors"
	"log"

	"taskapi/internal/middleware"
	"taskapi/internal/services"
	"taskapi/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Response messages shared by the handlers and the app error handler.
const (
	MessageSuccess           = "Success"
	MessageRequestFailed     = "Request Failed"
	MessageInvalidBody       = "Invalid request body"
	MessageNotFound          = "Not Found"
	MessageForbidden         = "Unauthorized Action"
	MessageBadCredentials    = "Unauthorized"
	MessageServerError       = "Server Error"
	MessageInvalidEndpoint   = "Invalid Endpoint"
	MessageMethodUnsupported = "Method not supported"
)

var errInvalidBody = errors.New("invalid request body")

// Envelope is the JSON shape of every response.
type Envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{Status: true, Message: message, Data: data})
}

// Fail renders a failure envelope with no data.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Status: false, Message: message})
}

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and rendered without detail.
func respondError(c *fiber.Ctx, err error) error {
	var verrs validation.Errors
	switch {
	case errors.Is(err, errInvalidBody):
		return Fail(c, fiber.StatusBadRequest, MessageInvalidBody)
	case errors.As(err, &verrs):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
			Status:  false,
			Message: MessageRequestFailed,
			Errors:  verrs,
		})
	case errors.Is(err, services.ErrNotFound):
		return Fail(c, fiber.StatusNotFound, MessageNotFound)
	case errors.Is(err, services.ErrForbidden):
		return Fail(c, fiber.StatusForbidden, MessageForbidden)
	case errors.Is(err, services.ErrInvalidCredentials):
		return Fail(c, fiber.StatusUnauthorized, MessageBadCredentials)
	case errors.Is(err, services.ErrUnauthenticated):
		return Fail(c, fiber.StatusUnauthorized, middleware.UnauthenticatedMessage)
	default:
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
		return Fail(c, fiber.StatusInternalServerError, MessageServerError)
	}
}

// parseBody decodes a JSON body into out whatever the Content-Type says. An
// empty body leaves out zeroed so that field rules, not the decoder, report
// what is missing. Wrongly typed fields are reported by validation as 422.
func parseBody(c *fiber.Ctx, out validation.Request) error {
	if err := validation.DecodeJSON(c.Body(), out); err != nil {
		log.Printf("Error parsing request body for %s %s: %v", c.Method(), c.Path(), err)
		return errInvalidBody
	}
	return nil
}

// actingUserID is the authenticated user of the request. Only called from
// routes mounted behind middleware.AuthRequired.
func actingUserID(c *fiber.Ctx) uint {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return 0
}
