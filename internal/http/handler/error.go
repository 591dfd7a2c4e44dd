package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"catalogapi/internal/http/middleware"
	"catalogapi/internal/service"
)

// errorPayload defines the standardized error response body for framework-level failures.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// response is the envelope of every product endpoint.
type response struct {
	RequestID string `json:"request_id"`
	Result    any    `json:"result"`
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
}

// verdictPayload is the result of a response rejected by moderation.
type verdictPayload struct {
	TextSafe   bool  `json:"textSafe"`
	VisualSafe *bool `json:"visualSafe"`
}

// requestError is a failure detected by the HTTP boundary itself.
type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &requestError{status: fiber.StatusBadRequest, code: code, message: message}
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeResult writes a successful product envelope.
func writeResult(c *fiber.Ctx, status int, message string, result any) error {
	return c.Status(status).JSON(response{
		RequestID: requestIDFromCtx(c),
		Result:    result,
		IsSuccess: true,
		Message:   message,
	})
}

// writeFailure maps a service or boundary error to a status and a failed product envelope.
func writeFailure(c *fiber.Ctx, err error) error {
	res := response{RequestID: requestIDFromCtx(c)}
	status := fiber.StatusInternalServerError

	var (
		reqErr     *requestError
		validErr   *service.ValidationError
		blockedErr *service.BlockedError
	)
	switch {
	case errors.As(err, &reqErr):
		status, res.Code, res.Message = reqErr.status, reqErr.code, reqErr.message
	case errors.As(err, &validErr):
		status, res.Code, res.Message = fiber.StatusBadRequest, "VALIDATION_FAILED", validErr.Error()
	case errors.As(err, &blockedErr):
		status, res.Code, res.Message = fiber.StatusUnprocessableEntity, "MODERATION_BLOCKED", blockedErr.Reason
		res.Result = verdictPayload{TextSafe: blockedErr.Verdict.TextSafe, VisualSafe: blockedErr.Verdict.VisualSafe}
	case errors.Is(err, service.ErrForbidden):
		status, res.Code, res.Message = fiber.StatusForbidden, "FORBIDDEN", "product belongs to another user"
	case errors.Is(err, service.ErrNotFound):
		status, res.Code, res.Message = fiber.StatusNotFound, "NOT_FOUND", "product not found"
	case errors.Is(err, service.ErrScannerUnavailable):
		status, res.Code, res.Message = fiber.StatusServiceUnavailable, "SCANNER_UNAVAILABLE", "image could not be verified, try again later"
	case errors.Is(err, service.ErrPromotionFailed):
		status, res.Code, res.Message = fiber.StatusInternalServerError, "PROMOTION_FAILED", "image could not be stored"
	default:
		res.Code, res.Message = "INTERNAL_ERROR", "internal server error"
	}

	if status >= fiber.StatusInternalServerError {
		zerolog.Ctx(c.UserContext()).Error().Err(err).Str("component", "handler").Msg(res.Code)
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "missing or invalid bearer token")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
