// Package app wires the validation engine and its collaborators from
// configuration. Both the HTTP server and the batch CLI start here.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"finguard/internal/aggregate"
	"finguard/internal/config"
	"finguard/internal/email/noop"
	"finguard/internal/email/ses"
	"finguard/internal/intake"
	"finguard/internal/port"
	"finguard/internal/reasoner"
	"finguard/internal/reasoner/providers"
	"finguard/internal/refdata"
	"finguard/internal/repository/postgres"
	s3storage "finguard/internal/storage/s3"
	"finguard/internal/validator"
	"finguard/internal/validator/suite"
)

// App holds the wired engine. DB, Runs and PriorRuns are nil when no
// database is configured.
type App struct {
	Engine    *validator.Engine
	Store     *refdata.Store
	DB        *sqlx.DB
	Runs      port.ValidationRunRepository
	PriorRuns port.DuplicateInvoiceFinder
	Storage   port.ObjectStorage
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Build connects to the optional database and object storage, loads
// reference data and assembles the engine.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{}

	if cfg.DB.Enabled() {
		db, err := postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.DB = db
		a.Runs = postgres.NewValidationRunRepo(db)
		a.PriorRuns = postgres.NewDuplicateFinderRepo(db)
	} else {
		logger.Info("app.Build: no database configured, run history disabled")
	}

	store, err := LoadReferenceData(ctx, cfg, a.DB, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	notifier, err := NewNotifier(&cfg.Email, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	providers.Register()
	r, err := reasoner.Build(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("building reasoner: %w", err)
	}
	if r == nil {
		logger.Info("app.Build: no reasoner provider configured, ambiguous-case check disabled")
	}

	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("initializing S3 client: %w", err)
	}
	a.Storage = storage

	a.Engine = NewEngine(cfg, store, r, a.PriorRuns, notifier, a.Runs, logger)
	return a, nil
}

// NewEngine assembles the engine from already-built collaborators. Any of
// r, prior, notifier and runs may be nil.
func NewEngine(
	cfg *config.Config,
	store *refdata.Store,
	r port.Reasoner,
	prior port.DuplicateInvoiceFinder,
	notifier port.EscalationNotifier,
	runs port.ValidationRunRepository,
	logger *zap.Logger,
) *validator.Engine {
	sc := suite.Config{
		Store:        store,
		CompanyGSTIN: store.Policy.Company.GSTIN,
		Reasoner:     r,
		PriorRuns:    prior,
		Logger:       logger,
	}
	agg := aggregate.New(Thresholds(cfg.Engine))
	return validator.NewEngine(intake.NewValidator(nil), suite.New(sc), agg, notifier, runs, logger)
}

// Thresholds maps engine settings onto aggregation thresholds. Unset
// positive settings keep their defaults; the failure allowance is taken
// as configured, zero included.
func Thresholds(e config.EngineConfig) aggregate.Thresholds {
	t := aggregate.DefaultThresholds()
	if e.ConfidenceThreshold > 0 {
		t.ConfidenceThreshold = e.ConfidenceThreshold
	}
	if e.HighValueThreshold > 0 {
		t.HighValueThreshold = e.HighValueThreshold
	}
	if e.PassWithWarningsMaxFailures >= 0 {
		t.PassWithWarningsMaxFailures = e.PassWithWarningsMaxFailures
	}
	if e.PassWithWarningsMinConfidence > 0 {
		t.PassWithWarningsMinConfidence = e.PassWithWarningsMinConfidence
	}
	if e.MultipleFailuresThreshold > 0 {
		t.MultipleFailuresThreshold = e.MultipleFailuresThreshold
	}
	return t
}

// ReferenceFiles resolves the configured reference data file names.
func ReferenceFiles(cfg config.RefDataConfig) refdata.Files {
	files := refdata.DefaultFiles(cfg.DataDir)
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&files.Rates, cfg.RatesFile)
	override(&files.HSN, cfg.HSNFile)
	override(&files.TDS, cfg.TDSFile)
	override(&files.Vendors, cfg.VendorsFile)
	override(&files.Policy, cfg.PolicyFile)
	override(&files.Decisions, cfg.HistoryFile)
	return files
}

// LoadReferenceData reads reference data from files or, when the source is
// "postgres", from db, then applies the company overrides.
func LoadReferenceData(ctx context.Context, cfg *config.Config, db *sqlx.DB, logger *zap.Logger) (*refdata.Store, error) {
	files := ReferenceFiles(cfg.RefData)

	var (
		store *refdata.Store
		err   error
	)
	switch cfg.RefData.Source {
	case "", "files":
		store, err = refdata.LoadFiles(files, logger)
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("reference data source postgres needs a database")
		}
		store, err = refdata.LoadRepository(ctx, postgres.NewRefDataRepo(db), files, logger)
	default:
		return nil, fmt.Errorf("unknown reference data source %q", cfg.RefData.Source)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Policy.Apply(refdata.Overrides{
		GSTIN:             cfg.Company.GSTIN,
		FYStart:           cfg.Company.FYStart,
		FYEnd:             cfg.Company.FYEnd,
		MarchGraceUntil:   cfg.Company.MarchGraceUntil,
		MaxInvoiceAgeDays: cfg.Company.MaxInvoiceAgeDays,
	}); err != nil {
		return nil, err
	}
	return store, nil
}

// NewNotifier selects the escalation notifier by provider name.
func NewNotifier(cfg *config.EmailConfig, logger *zap.Logger) (port.EscalationNotifier, error) {
	switch cfg.Provider {
	case "ses":
		n, err := ses.NewSESNotifier(cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing SES notifier: %w", err)
		}
		return n, nil
	case "", "noop":
		return noop.NewNoopNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
