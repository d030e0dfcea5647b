package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInvoice      = errors.New("invoice failed intake validation")
	ErrEmptyBatch          = errors.New("batch contains no invoices")
	ErrBatchTooLarge       = errors.New("batch exceeds maximum allowed size")
	ErrReasonerUnavailable = errors.New("reasoner unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported report format")
	ErrReferenceData       = errors.New("reference data could not be loaded")
	ErrUploadFailed        = errors.New("report upload to storage failed")
)
