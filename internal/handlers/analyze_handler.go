package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-analyzer/internal/auth"
	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/services"
)

const (
	msgNoFile         = "No resume file uploaded. Please upload a PDF, DOCX, or TXT file."
	msgTooShort       = "Resume file appears to be empty or too short. Please upload a valid resume."
	msgInvalidType    = "Invalid file type. Only PDF, DOCX, DOC, and TXT files are allowed."
	msgReadFailed     = "Failed to read uploaded file. Please try again."
	msgNotConfigured  = "Analysis service is not configured. Please set PERPLEXITY_API_KEY (or GEMINI_API_KEY) in the server environment."
	msgAnalysisFailed = "Failed to analyze resume. Please try again."
)

// AnalysisState is a step of one /api/analyze request.
type AnalysisState string

const (
	StateReceived   AnalysisState = "received"
	StateValidated  AnalysisState = "validated"
	StateExtracted  AnalysisState = "extracted"
	StateAnalyzed   AnalysisState = "analyzed"
	StateNormalized AnalysisState = "normalized"
	StateResponded  AnalysisState = "responded"
	StateErrored    AnalysisState = "errored"
)

type AnalyzeOptions struct {
	Timeout     time.Duration
	MinTextLen  int
	MaxFileSize int64
}

type AnalyzeHandler struct {
	uploads     services.UploadReader
	extractor   services.Extractor
	prompts     *services.PromptBuilder
	llm         services.LLMClient
	normalizer  *services.Normalizer
	bookkeeping services.BookkeepingWorker
	logger      *slog.Logger
	opts        AnalyzeOptions
}

func NewAnalyzeHandler(
	uploads services.UploadReader,
	extractor services.Extractor,
	prompts *services.PromptBuilder,
	llm services.LLMClient,
	normalizer *services.Normalizer,
	bookkeeping services.BookkeepingWorker,
	logger *slog.Logger,
	opts AnalyzeOptions,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		uploads:     uploads,
		extractor:   extractor,
		prompts:     prompts,
		llm:         llm,
		normalizer:  normalizer,
		bookkeeping: bookkeeping,
		logger:      logger,
		opts:        opts,
	}
}

// analysisRun tracks the state of a single request. Only the terminal
// transitions write to the response.
type analysisRun struct {
	state  AnalysisState
	logger *slog.Logger
}

func (r *analysisRun) advance(to AnalysisState) {
	r.logger.Debug("analysis state changed", "from", r.state, "to", to)
	r.state = to
}

func (r *analysisRun) fail(c *fiber.Ctx, status int, message string, err error) error {
	level := slog.LevelWarn
	if status >= fiber.StatusInternalServerError {
		level = slog.LevelError
	}
	r.logger.Log(c.UserContext(), level, "analysis failed", "state", r.state, "status", status, "error", err)
	r.state = StateErrored
	return c.Status(status).JSON(models.ErrorResponse{Error: message})
}

// HandleAnalyze runs upload → extract → prompt → model → normalize for one résumé.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	subject := auth.SubjectFrom(c)
	run := &analysisRun{
		state: StateReceived,
		logger: h.logger.With(
			"subject", subject,
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		),
	}

	if subject == "" {
		return run.fail(c, fiber.StatusUnauthorized, "Unauthorized", auth.ErrUnauthenticated)
	}

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		return run.fail(c, fiber.StatusBadRequest, msgNoFile, err)
	}

	file, err := h.uploads.Read(fileHeader)
	switch {
	case errors.Is(err, services.ErrFileTooLarge):
		return run.fail(c, fiber.StatusBadRequest, FileTooLargeMessage(h.opts.MaxFileSize), err)
	case errors.Is(err, services.ErrInvalidFileType):
		return run.fail(c, fiber.StatusBadRequest, msgInvalidType, err)
	case err != nil:
		return run.fail(c, fiber.StatusBadRequest, msgReadFailed, err)
	}
	run.advance(StateValidated)
	h.bookkeeping.Enqueue(services.BookkeepingJob{Kind: services.JobEnsureUser, Subject: subject})

	ctx, cancel := context.WithTimeout(c.UserContext(), h.opts.Timeout)
	defer cancel()

	extracted, err := h.extractor.Extract(ctx, file)
	if err != nil {
		var extErr *services.ExtractionError
		if errors.As(err, &extErr) {
			return run.fail(c, fiber.StatusBadRequest, extErr.Message, err)
		}
		return run.fail(c, fiber.StatusBadRequest, err.Error(), err)
	}
	resumeText := strings.TrimSpace(extracted.Text)
	if utf8.RuneCountInString(resumeText) < h.opts.MinTextLen {
		return run.fail(c, fiber.StatusBadRequest, msgTooShort,
			fmt.Errorf("extracted %d characters from %s", utf8.RuneCountInString(resumeText), extracted.Format))
	}
	run.advance(StateExtracted)

	prompt := h.prompts.Build(services.AnalysisRequest{
		ResumeText:     resumeText,
		JobDescription: c.FormValue("job_description"),
	})
	raw, err := h.llm.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		if errors.Is(err, services.ErrMissingCredential) {
			return run.fail(c, fiber.StatusInternalServerError, msgNotConfigured, err)
		}
		return run.fail(c, fiber.StatusInternalServerError, msgAnalysisFailed, err)
	}
	run.advance(StateAnalyzed)

	result, err := h.normalizer.Normalize(raw)
	if err != nil {
		return run.fail(c, fiber.StatusInternalServerError, msgAnalysisFailed, err)
	}
	run.advance(StateNormalized)

	if err := c.JSON(result); err != nil {
		return run.fail(c, fiber.StatusInternalServerError, msgAnalysisFailed, err)
	}
	run.advance(StateResponded)
	h.bookkeeping.Enqueue(services.BookkeepingJob{Kind: services.JobIncrementCount, Subject: subject})

	run.logger.Info("analysis completed",
		"format", extracted.Format,
		"pages", extracted.PageCount,
		"overall_score", result.OverallScore,
	)
	return nil
}

func FileTooLargeMessage(maxSize int64) string {
	return fmt.Sprintf("File too large. Maximum file size is %dMB.", maxSize>>20)
}
