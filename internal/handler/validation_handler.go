package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"finguard/internal/csvexport"
	"finguard/internal/domain"
	"finguard/internal/intake"
	"finguard/internal/report"
	"finguard/internal/service"
	"finguard/internal/validator"
)

// maxBodyBytes bounds request bodies for single and batch validation.
const maxBodyBytes = 32 << 20

// ValidationHandler handles invoice validation endpoints.
type ValidationHandler struct {
	validationService service.ValidationService
	logger            *zap.Logger
}

// NewValidationHandler creates a new ValidationHandler.
func NewValidationHandler(validationService service.ValidationService, logger *zap.Logger) *ValidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationHandler{validationService: validationService, logger: logger}
}

// BatchResponse is the body of a batch validation response.
type BatchResponse struct {
	Summary *validator.BatchSummary `json:"summary"`
	Report  *service.ReportLocation `json:"report,omitempty"`
}

// Validate handles POST /api/v1/validations
//
// Any well-formed JSON value is accepted: records that fail intake come back
// as a REJECTED result, not as an HTTP error.
func (h *ValidationHandler) Validate(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON invoice")
		return
	}

	RespondOK(c, h.validationService.Validate(c.Request.Context(), raw))
}

// ValidateBatch handles POST /api/v1/validations/batch
//
// The body is a JSON array, an object with "invoices", or JSON Lines.
// ?format=csv|xlsx downloads the report instead of the JSON envelope;
// ?publish=json|csv|xlsx also uploads the report to object storage.
func (h *ValidationHandler) ValidateBatch(c *gin.Context) {
	download, publish, ok := h.reportParams(c)
	if !ok {
		return
	}

	body, err := readBody(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	raws, err := intake.DecodeBatch(body)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			HandleError(c, h.logger, err)
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	summary, err := h.validationService.ValidateBatch(c.Request.Context(), raws)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	h.respondBatch(c, summary, download, publish)
}

// ValidateObject handles POST /api/v1/validations/batch/s3
func (h *ValidationHandler) ValidateObject(c *gin.Context) {
	var req struct {
		URI     string `json:"uri" binding:"required"`
		Publish string `json:"publish"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "uri is required")
		return
	}
	var publish report.Format
	if req.Publish != "" {
		f, err := report.ParseFormat(req.Publish)
		if err != nil {
			HandleError(c, h.logger, err)
			return
		}
		publish = f
	}

	summary, err := h.validationService.ValidateObject(c.Request.Context(), req.URI)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) || errors.Is(err, domain.ErrBatchTooLarge) {
			HandleError(c, h.logger, err)
			return
		}
		h.logger.Warn("handler.ValidationHandler: batch object could not be validated",
			zap.String("uri", req.URI), zap.Error(err))
		RespondError(c, http.StatusBadRequest, "INVALID_SOURCE", err.Error())
		return
	}
	h.respondBatch(c, summary, "", publish)
}

// Get handles GET /api/v1/validations/:id
func (h *ValidationHandler) Get(c *gin.Context) {
	result, err := h.validationService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, result)
}

// List handles GET /api/v1/validations
func (h *ValidationHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	results, total, err := h.validationService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondPaginated(c, results, PagMeta{Total: total, Offset: offset, Limit: limit})
}

func (h *ValidationHandler) reportParams(c *gin.Context) (download, publish report.Format, ok bool) {
	if v := c.Query("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			HandleError(c, h.logger, err)
			return "", "", false
		}
		if f != report.FormatJSON {
			download = f
		}
	}
	if v := c.Query("publish"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			HandleError(c, h.logger, err)
			return "", "", false
		}
		publish = f
	}
	return download, publish, true
}

func (h *ValidationHandler) respondBatch(c *gin.Context, summary *validator.BatchSummary, download, publish report.Format) {
	resp := BatchResponse{Summary: summary}
	if publish != "" {
		loc, err := h.validationService.PublishReport(c.Request.Context(), summary, publish)
		if err != nil {
			HandleError(c, h.logger, err)
			return
		}
		resp.Report = loc
	}

	if download == "" {
		RespondOK(c, resp)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, download, summary); err != nil {
		HandleError(c, h.logger, err)
		return
	}
	name := csvexport.BuildFilename(c.DefaultQuery("name", "validation"), download.Extension(), time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, download.ContentType(), buf.Bytes())
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}
