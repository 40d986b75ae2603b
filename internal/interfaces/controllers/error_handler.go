package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusForError maps an error to the caller-facing status code and message
func StatusForError(err error) (int, string) {
	var upstreamErr *upstream.Error
	if errors.As(err, &upstreamErr) {
		switch upstreamErr.Kind {
		case upstream.KindUnauthenticated:
			return http.StatusUnauthorized, upstreamErr.Error()
		case upstream.KindInvalidInput:
			return http.StatusBadRequest, upstreamErr.Error()
		case upstream.KindUpstream, upstream.KindParse, upstream.KindTransport:
			return http.StatusBadGateway, upstreamErr.Error()
		}
		return http.StatusInternalServerError, upstreamErr.Error()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if httpErr.Message != nil {
			message = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, message
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// NewErrorHandler returns an echo error handler rendering ErrorResponse bodies
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := StatusForError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.String("kind", string(upstream.KindOf(err))),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, ErrorResponse{Error: message})
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}
