package interfaces

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/usecase"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Accounts *usecase.Accounts
	Resumes  *usecase.ResumeIntake
	Engine   *usecase.Engine
	Reports  *usecase.ReportCompiler
	Admin    *usecase.Admin
}

type HTTPHandler struct {
	svc            Services
	maxUploadBytes int64
	log            *zap.Logger
}

// NewHTTPHandler registers every route on router.
func NewHTTPHandler(router *gin.Engine, svc Services, maxUploadBytes int64, log *zap.Logger) *HTTPHandler {
	h := &HTTPHandler{svc: svc, maxUploadBytes: maxUploadBytes, log: log}

	router.GET("/", h.Health)

	authGroup := router.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)

	protected := router.Group("/", Auth(svc.Accounts, log))
	protected.POST("/interviews/upload_resume", h.UploadResume)
	protected.GET("/interviews/:id/next_question", h.NextQuestion)
	protected.POST("/interviews/:id/abort", h.AbortInterview)
	protected.POST("/questions/:id/answer", h.SubmitAnswer)
	protected.GET("/report/:id", h.GetReport)

	admin := protected.Group("/admin")
	admin.POST("/job_description", h.SetJobDescription)
	admin.POST("/threshold", h.SetThreshold)
	admin.POST("/question_config", h.SetQuestionConfig)
	admin.GET("/settings", h.GetSettings)
	admin.GET("/candidates", h.ListCandidates)

	return h
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	creds, err := h.svc.Accounts.Signup(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user_id": creds.UserID,
		"api_key": creds.APIKey,
	})
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	creds, err := h.svc.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"role":    creds.Role,
		"api_key": creds.APIKey,
	})
}

func (h *HTTPHandler) UploadResume(c *gin.Context) {
	filename, data, err := h.readUpload(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	result, err := h.svc.Resumes.Upload(c.Request.Context(), principalFrom(c), filename, data)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Resume processed",
		"interview_id": result.InterviewID,
		"profile":      result.Profile,
	})
}

func (h *HTTPHandler) NextQuestion(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	result, err := h.svc.Engine.NextQuestion(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if result.Done {
		c.JSON(http.StatusOK, gin.H{"done": true, "message": "Interview completed. Fetch final report."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"done":        false,
		"question_id": result.Question.ID,
		"text":        result.Question.Text,
		"source_type": result.Question.SourceType,
	})
}

func (h *HTTPHandler) AbortInterview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.svc.Engine.AbortInterview(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interview_id": id, "status": domain.StatusAborted})
}

func (h *HTTPHandler) SubmitAnswer(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	result, err := h.svc.Engine.SubmitAnswer(c.Request.Context(), principalFrom(c), id, req.Answer)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) GetReport(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	report, err := h.svc.Reports.GenerateReport(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SetJobDescription accepts a multipart "file" or a JSON {"content": "..."}.
func (h *HTTPHandler) SetJobDescription(c *gin.Context) {
	p := principalFrom(c)
	ctx := c.Request.Context()

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if !p.IsAdmin() {
			respondError(c, h.log, domain.ErrForbidden("admin access required"))
			return
		}
		filename, data, err := h.readUpload(c)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		if err := h.svc.Admin.SetJobDescriptionFile(ctx, p, filename, data); err != nil {
			respondError(c, h.log, err)
			return
		}
	} else {
		var req jobDescriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if !p.IsAdmin() {
				respondError(c, h.log, domain.ErrForbidden("admin access required"))
				return
			}
			bindError(c, h.log, err)
			return
		}
		if err := h.svc.Admin.SetJobDescription(ctx, p, req.Content); err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job description updated successfully"})
}

func (h *HTTPHandler) SetThreshold(c *gin.Context) {
	p := principalFrom(c)
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.adminBindError(c, p, err)
		return
	}
	if err := h.svc.Admin.SetThreshold(c.Request.Context(), p, *req.Value); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Hiring threshold set to %.1f%%", *req.Value*100)})
}

func (h *HTTPHandler) SetQuestionConfig(c *gin.Context) {
	p := principalFrom(c)
	var req questionConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.adminBindError(c, p, err)
		return
	}
	cfg := domain.QuestionConfig{
		TotalQuestions:   *req.TotalQuestions,
		ConsequentialMax: *req.ConsequentialMax,
		FollowupMax:      *req.FollowupMax,
	}
	if err := h.svc.Admin.SetQuestionConfig(c.Request.Context(), p, cfg); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question config updated", "config": cfg})
}

func (h *HTTPHandler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Admin.GetSettings(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *HTTPHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.svc.Admin.ListCandidates(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// adminBindError reports a malformed admin payload, answering non-admins with
// the authorization error first.
func (h *HTTPHandler) adminBindError(c *gin.Context, p domain.Principal, err error) {
	if !p.IsAdmin() {
		respondError(c, h.log, domain.ErrForbidden("admin access required"))
		return
	}
	bindError(c, h.log, err)
}

// readUpload reads the multipart "file" field, refusing anything above the
// configured size.
func (h *HTTPHandler) readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, domain.ErrValidation("file is required")
	}
	if header.Size > h.maxUploadBytes {
		return "", nil, domain.ErrValidation(fmt.Sprintf("uploaded file exceeds %d bytes", h.maxUploadBytes))
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func pathID(c *gin.Context) (uint, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrValidation(fmt.Sprintf("invalid id %q", raw))
	}
	return uint(id), nil
}
