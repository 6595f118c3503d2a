// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/helperhq/helper/internal/errors"
)

// Outcome is the value a handler produces for a successful request. The
// rendering adapter turns it into the response envelope; handlers never write
// to the response themselves.
type Outcome struct {
	// Data is the success payload. A nil Data renders as "not found".
	Data any
	// StatusCode overrides the default 200 success status.
	StatusCode int
	// Meta carries extra envelope metadata alongside the status code.
	Meta map[string]any
}

// Data creates a 200 outcome with the given payload.
func Data(payload any) *Outcome {
	return &Outcome{Data: payload}
}

// Created creates a 201 outcome with the given payload.
func Created(payload any) *Outcome {
	return &Outcome{Data: payload, StatusCode: http.StatusCreated}
}

// HandlerFunc is a handler in outcome form. Exactly one of the return values
// should be meaningful: a non-nil error always wins over the outcome.
type HandlerFunc func(c *gin.Context) (*Outcome, error)

// errorBody is the error half of the response envelope.
type errorBody struct {
	Message string `json:"message"`
}

// errEmptyOutcome renders when a handler returns neither data nor an error.
var errEmptyOutcome = &apperrors.Error{
	Kind:       apperrors.KindNotFound,
	StatusCode: http.StatusBadRequest,
	Message:    "Cannot find the requested resource. Please change your query and try again.",
}

// Handle adapts an outcome-form handler to gin. It is the single place where
// outcomes and errors become HTTP responses: success renders
// {"data": ..., "meta": {"statusCode": ...}}, failure renders
// {"error": {"message": ...}, "meta": {"statusCode": ...}}.
func Handle(logger *slog.Logger, fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome, err := fn(c)
		if err != nil {
			RenderError(c, err, logger)
			return
		}
		if outcome == nil || outcome.Data == nil {
			RenderError(c, errEmptyOutcome, logger)
			return
		}

		statusCode := outcome.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		c.JSON(statusCode, gin.H{
			"data": outcome.Data,
			"meta": buildMeta(statusCode, outcome.Meta),
		})
	}
}

// RenderError writes the error envelope for err. The status code and message
// come from the tagged error when present; anything untagged renders as a
// generic 500 so driver or library text never reaches a client.
func RenderError(c *gin.Context, err error, logger *slog.Logger) {
	statusCode := apperrors.StatusCode(err)

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("kind", string(apperrors.KindOf(err))),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, gin.H{
		"error": errorBody{Message: apperrors.ClientMessage(err)},
		"meta":  buildMeta(statusCode, nil),
	})
}

// AbortWithError renders the error envelope and stops the middleware chain.
// Gate middlewares use this so denied requests never reach the handler.
func AbortWithError(c *gin.Context, err error, logger *slog.Logger) {
	RenderError(c, err, logger)
	c.Abort()
}

func buildMeta(statusCode int, extra map[string]any) map[string]any {
	meta := map[string]any{"statusCode": statusCode}
	for key, value := range extra {
		if key == "statusCode" {
			continue
		}
		meta[key] = value
	}
	return meta
}
