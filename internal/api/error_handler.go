package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// Error codes carried in ErrorResponse.ErrorCode.
const (
	CodeInvalidInput       = "INVALID_INPUT_VALUE"
	CodeBadRequest         = "BAD_REQUEST"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeNotExists          = "NOT_EXISTS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	ErrorCode string              `json:"errorCode"`
	Status    int                 `json:"status"`
	Message   string              `json:"message"`
	Errors    []domain.FieldError `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders every failure as an ErrorResponse.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		if resp.Status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Status)
			return
		}
		_ = c.JSON(resp.Status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) ErrorResponse {
	var (
		ve  *domain.ValidationError
		dup *domain.DuplicateEmailError
		nf  *domain.NotFoundError
		te  *domain.TokenError
	)

	switch {
	case errors.As(err, &ve):
		return ErrorResponse{ErrorCode: CodeInvalidInput, Status: http.StatusBadRequest, Message: "invalid input value", Errors: ve.Fields}
	case errors.As(err, &dup):
		return ErrorResponse{ErrorCode: CodeDuplicateEmail, Status: http.StatusConflict, Message: "email already registered"}
	case errors.As(err, &nf):
		return ErrorResponse{ErrorCode: CodeNotExists, Status: http.StatusNotFound, Message: nf.Resource + " not found"}
	case errors.As(err, &te):
		return ErrorResponse{ErrorCode: CodeInvalidToken, Status: http.StatusUnauthorized, Message: "invalid token: " + te.Kind.String()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ErrorResponse{ErrorCode: CodeInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"}
	case errors.Is(err, domain.ErrUnauthenticated):
		return ErrorResponse{ErrorCode: CodeUnauthorized, Status: http.StatusUnauthorized, Message: "authentication required"}
	case errors.Is(err, domain.ErrForbidden):
		return ErrorResponse{ErrorCode: CodeAccessDenied, Status: http.StatusForbidden, Message: "access denied"}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
			return ErrorResponse{ErrorCode: CodeInternal, Status: he.Code, Message: http.StatusText(he.Code)}
		}
		return ErrorResponse{ErrorCode: httpErrorCode(he.Code), Status: he.Code, Message: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnhandled(log, c, err)
	return ErrorResponse{ErrorCode: CodeInternal, Status: http.StatusInternalServerError, Message: "internal server error"}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeAccessDenied
	case http.StatusNotFound:
		return CodeNotExists
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	default:
		return CodeBadRequest
	}
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
