package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finguard/internal/csvexport"
	"finguard/internal/domain"
	"finguard/internal/handler"
	"finguard/internal/report"
	"finguard/internal/service"
	"finguard/internal/validator"
	"finguard/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(svc service.ValidationService) *gin.Engine {
	h := handler.NewValidationHandler(svc, nil)
	r := gin.New()
	r.POST("/validations", h.Validate)
	r.POST("/validations/batch", h.ValidateBatch)
	r.POST("/validations/batch/s3", h.ValidateObject)
	r.GET("/validations", h.List)
	r.GET("/validations/:id", h.Get)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func summary() *validator.BatchSummary {
	return validator.Summarize([]*domain.ValidationResult{
		{RunID: "r1", InvoiceID: "INV-1", OverallStatus: domain.OverallPass},
		{RunID: "r2", InvoiceID: "INV-2", OverallStatus: domain.OverallRejected, IntakeErrors: []string{"Missing required field: vendor"}},
	})
}

func TestValidationHandler_Validate(t *testing.T) {
	svc := new(mocks.MockValidationService)
	svc.On("Validate", mock.Anything, mock.MatchedBy(func(raw any) bool {
		m, ok := raw.(map[string]any)
		return ok && m["invoice_number"] == "INV-1"
	})).Return(&domain.ValidationResult{RunID: "r1", InvoiceID: "INV-1", OverallStatus: domain.OverallPass})
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/validations", `{"invoice_number": "INV-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "INV-1", resp.Data.(map[string]any)["invoice_id"])

	w = do(r, http.MethodPost, "/validations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
}

func TestValidationHandler_ValidateBatch(t *testing.T) {
	t.Run("json envelope", func(t *testing.T) {
		svc := new(mocks.MockValidationService)
		svc.On("ValidateBatch", mock.Anything, mock.MatchedBy(func(raws []any) bool { return len(raws) == 2 })).
			Return(summary(), nil)
		r := setupRouter(svc)

		w := do(r, http.MethodPost, "/validations/batch", `[{"invoice_number": "INV-1"}, {"invoice_number": "INV-2"}]`)
		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data struct {
				Summary struct {
					TotalInvoices int `json:"total_invoices"`
					Rejected      int `json:"rejected"`
				} `json:"summary"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Data.Summary.TotalInvoices)
		assert.Equal(t, 1, body.Data.Summary.Rejected)
	})

	t.Run("csv download", func(t *testing.T) {
		svc := new(mocks.MockValidationService)
		svc.On("ValidateBatch", mock.Anything, mock.Anything).Return(summary(), nil)
		r := setupRouter(svc)

		w := do(r, http.MethodPost, "/validations/batch?format=csv&name=June+batch", `[{}, {}]`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "June_batch_")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), csvexport.BOM))
	})

	t.Run("publish", func(t *testing.T) {
		svc := new(mocks.MockValidationService)
		s := summary()
		svc.On("ValidateBatch", mock.Anything, mock.Anything).Return(s, nil)
		svc.On("PublishReport", mock.Anything, s, report.FormatXLSX).
			Return(&service.ReportLocation{Bucket: "reports", Key: "batches/x.xlsx"}, nil)
		r := setupRouter(svc)

		w := do(r, http.MethodPost, "/validations/batch?publish=xlsx", `[{}]`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "batches/x.xlsx")
		svc.AssertExpectations(t)
	})

	t.Run("bad format", func(t *testing.T) {
		r := setupRouter(new(mocks.MockValidationService))
		w := do(r, http.MethodPost, "/validations/batch?format=pdf", `[{}]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "UNSUPPORTED_FORMAT", decode(t, w).Error.Code)
	})

	t.Run("empty batch", func(t *testing.T) {
		r := setupRouter(new(mocks.MockValidationService))
		w := do(r, http.MethodPost, "/validations/batch", `[]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "EMPTY_BATCH", decode(t, w).Error.Code)
	})

	t.Run("too large", func(t *testing.T) {
		svc := new(mocks.MockValidationService)
		svc.On("ValidateBatch", mock.Anything, mock.Anything).Return(nil, domain.ErrBatchTooLarge)
		r := setupRouter(svc)
		w := do(r, http.MethodPost, "/validations/batch", `[{}, {}]`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestValidationHandler_ValidateObject(t *testing.T) {
	svc := new(mocks.MockValidationService)
	svc.On("ValidateObject", mock.Anything, "s3://invoices/june.json").Return(summary(), nil)
	svc.On("ValidateObject", mock.Anything, "s3://invoices/missing.json").Return(nil, errors.New("downloading batch: NoSuchKey"))
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/validations/batch/s3", `{"uri": "s3://invoices/june.json"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/validations/batch/s3", `{"uri": "s3://invoices/missing.json"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SOURCE", decode(t, w).Error.Code)

	w = do(r, http.MethodPost, "/validations/batch/s3", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationHandler_GetAndList(t *testing.T) {
	svc := new(mocks.MockValidationService)
	svc.On("GetRun", mock.Anything, "r1").Return(&domain.ValidationResult{RunID: "r1"}, nil)
	svc.On("GetRun", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	svc.On("ListRuns", mock.Anything, 20, 20).Return([]domain.ValidationResult{{RunID: "r1"}}, 21, nil)
	r := setupRouter(svc)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/validations/r1", "").Code)

	w := do(r, http.MethodGet, "/validations/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)

	w = do(r, http.MethodGet, "/validations?offset=20&limit=500", "")
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, handler.PagMeta{Total: 21, Offset: 20, Limit: 20}, *resp.Meta)
}

func TestMapDomainError(t *testing.T) {
	status, code, _ := handler.MapDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", code)

	status, code, _ = handler.MapDomainError(domain.ErrUploadFailed)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "UPLOAD_FAILED", code)
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(_ context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	r := gin.New()
	healthy := handler.NewHealthHandler(nil)
	broken := handler.NewHealthHandler(failingPinger{err: errors.New("refused")})
	r.GET("/healthz", healthy.Liveness)
	r.GET("/readyz", healthy.Readiness)
	r.GET("/readyz-broken", broken.Readiness)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/readyz-broken", "").Code)
}
