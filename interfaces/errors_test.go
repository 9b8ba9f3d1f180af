package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ai-interviewer/domain"
)

func TestRespondErrorLogLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLevel  zapcore.Level
		wantMsg    string
	}{
		{
			name:       "malformed model output",
			err:        domain.ErrUpstreamFormat(errors.New("no JSON"), domain.TaskEvaluate),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_FORMAT",
			wantLevel:  zapcore.WarnLevel,
			wantMsg:    "upstream model error",
		},
		{
			name:       "model unreachable",
			err:        domain.ErrUpstreamFailure(errors.New("timeout"), domain.TaskFollowup),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_FAILURE",
			wantLevel:  zapcore.WarnLevel,
			wantMsg:    "upstream model error",
		},
		{
			name:       "unexpected error",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantLevel:  zapcore.ErrorLevel,
			wantMsg:    "request failed",
		},
		{
			name:       "client error",
			err:        domain.ErrValidation("bad input"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantLevel:  zapcore.DebugLevel,
			wantMsg:    "request rejected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, zap.New(core), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
		})
	}
}
