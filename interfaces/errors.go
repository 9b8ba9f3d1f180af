package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-interviewer/domain"
)

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidationFailed:   http.StatusBadRequest,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodePreconditionFailed: http.StatusBadRequest,
	domain.CodeUpstreamFormat:     http.StatusBadGateway,
	domain.CodeUpstreamFailure:    http.StatusBadGateway,
	domain.CodeUnauthorized:       http.StatusUnauthorized,
	domain.CodeForbidden:          http.StatusForbidden,
	domain.CodeConflict:           http.StatusConflict,
	domain.CodeInternal:           http.StatusInternalServerError,
}

// respondError writes err as JSON. Errors without an AppError in their chain
// are logged and reported as internal errors without leaking the cause.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		appErr = domain.WrapError(err, domain.CodeInternal, "internal server error")
	}

	status, known := statusByCode[appErr.Code]
	if !known {
		status = http.StatusInternalServerError
	}

	fields := []zap.Field{
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("code", string(appErr.Code)),
		zap.Error(err),
	}
	switch {
	case status == http.StatusBadGateway:
		log.Warn("upstream model error", fields...)
	case status >= http.StatusInternalServerError:
		log.Error("request failed", fields...)
	default:
		log.Debug("request rejected", fields...)
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(status, body)
}

func bindError(c *gin.Context, log *zap.Logger, err error) {
	respondError(c, log, domain.WrapError(err, domain.CodeValidationFailed, "invalid request body").
		WithDetails(gin.H{"reason": err.Error()}))
}
