package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/intake"
	"finguard/internal/port"
	"finguard/internal/report"
	s3storage "finguard/internal/storage/s3"
	"finguard/internal/validator"
)

// ValidationServiceConfig bounds batch work and names the report location.
type ValidationServiceConfig struct {
	Concurrency       int
	MaxBatchSize      int
	ReportBucket      string
	ReportPrefix      string
	PresignExpirySecs int64
}

// ReportLocation identifies an uploaded batch report.
type ReportLocation struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
}

// ValidationService defines the invoice validation contract.
type ValidationService interface {
	Validate(ctx context.Context, raw any) *domain.ValidationResult
	ValidateBatch(ctx context.Context, raws []any) (*validator.BatchSummary, error)
	ValidateObject(ctx context.Context, uri string) (*validator.BatchSummary, error)
	GetRun(ctx context.Context, runID string) (*domain.ValidationResult, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.ValidationResult, int, error)
	PublishReport(ctx context.Context, summary *validator.BatchSummary, format report.Format) (*ReportLocation, error)
}

type validationService struct {
	engine  *validator.Engine
	runs    port.ValidationRunRepository
	storage port.ObjectStorage
	cfg     ValidationServiceConfig
	logger  *zap.Logger
}

// NewValidationService creates a new ValidationService. runs and storage may
// be nil when history or object storage are not configured.
func NewValidationService(
	engine *validator.Engine,
	runs port.ValidationRunRepository,
	storage port.ObjectStorage,
	cfg ValidationServiceConfig,
	logger *zap.Logger,
) ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PresignExpirySecs <= 0 {
		cfg.PresignExpirySecs = 3600
	}
	return &validationService{
		engine:  engine,
		runs:    runs,
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *validationService) Validate(ctx context.Context, raw any) *domain.ValidationResult {
	return s.engine.Validate(ctx, raw)
}

func (s *validationService) ValidateBatch(ctx context.Context, raws []any) (*validator.BatchSummary, error) {
	if len(raws) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if s.cfg.MaxBatchSize > 0 && len(raws) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d invoices, limit is %d", domain.ErrBatchTooLarge, len(raws), s.cfg.MaxBatchSize)
	}
	return s.engine.ValidateBatch(ctx, raws, s.cfg.Concurrency)
}

// ValidateObject downloads a batch file from object storage and validates it.
func (s *validationService) ValidateObject(ctx context.Context, uri string) (*validator.BatchSummary, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	bucket, key, err := s3storage.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("downloading batch: %w", err)
	}
	raws, err := intake.DecodeBatch(data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("service.ValidationService: batch downloaded",
		zap.String("uri", uri), zap.Int("invoices", len(raws)))
	return s.ValidateBatch(ctx, raws)
}

func (s *validationService) GetRun(ctx context.Context, runID string) (*domain.ValidationResult, error) {
	if s.runs == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uuid.Parse(runID); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.runs.GetByRunID(ctx, runID)
}

func (s *validationService) ListRuns(ctx context.Context, offset, limit int) ([]domain.ValidationResult, int, error) {
	if s.runs == nil {
		return []domain.ValidationResult{}, 0, nil
	}
	return s.runs.ListRecent(ctx, offset, limit)
}

// PublishReport renders summary and uploads it under the report prefix.
func (s *validationService) PublishReport(ctx context.Context, summary *validator.BatchSummary, format report.Format) (*ReportLocation, error) {
	if s.storage == nil || s.cfg.ReportBucket == "" {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrUploadFailed)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, summary); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	key := s3storage.ReportKey(s.cfg.ReportPrefix, uuid.New().String(), format.Extension())
	size := int64(buf.Len())
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.ReportBucket,
		Key:         key,
		Body:        &buf,
		ContentType: format.ContentType(),
		Size:        size,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	loc := &ReportLocation{Bucket: s.cfg.ReportBucket, Key: key}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.ReportBucket, key, s.cfg.PresignExpirySecs)
	if err != nil {
		s.logger.Warn("service.ValidationService: presigning report URL failed",
			zap.String("key", key), zap.Error(err))
	} else {
		loc.URL = url
	}

	s.logger.Info("service.ValidationService: report uploaded",
		zap.String("bucket", loc.Bucket), zap.String("key", key),
		zap.String("format", string(format)), zap.Int64("bytes", size))
	return loc, nil
}
