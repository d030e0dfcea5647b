// Package suite assembles the six category validators around one batch run.
package suite

import (
	"time"

	"go.uber.org/zap"

	"finguard/internal/history"
	"finguard/internal/port"
	"finguard/internal/refdata"
	"finguard/internal/validator"
	"finguard/internal/validator/arithmetic"
	"finguard/internal/validator/document"
	"finguard/internal/validator/gst"
	"finguard/internal/validator/policy"
	"finguard/internal/validator/tds"
	"finguard/internal/validator/vendor"
)

// Config carries the shared reference data and optional collaborators.
type Config struct {
	Store        *refdata.Store
	CompanyGSTIN string
	Reasoner     port.Reasoner
	Retriever    port.RegulationRetriever
	PriorRuns    port.DuplicateInvoiceFinder
	Clock        validator.Clock
	Logger       *zap.Logger
}

// New returns a validator.Suite. Reference data is shared by every run; the
// duplicate history and vendor aggregates come from the run state.
func New(cfg Config) validator.Suite {
	if cfg.Store == nil {
		cfg.Store = refdata.NewStore(nil, nil, nil, nil, nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := cfg.Store

	gstOpts := []gst.Option{gst.WithLogger(cfg.Logger)}
	if cfg.Reasoner != nil {
		gstOpts = append(gstOpts, gst.WithReasoner(cfg.Reasoner))
	}
	if cfg.Retriever != nil {
		gstOpts = append(gstOpts, gst.WithRetriever(cfg.Retriever))
	}
	policyOpts := []policy.Option{policy.WithClock(cfg.Clock), policy.WithLogger(cfg.Logger)}
	if cfg.PriorRuns != nil {
		policyOpts = append(policyOpts, policy.WithPriorRuns(cfg.PriorRuns))
	}

	return func(state *history.RunState) *validator.Registry {
		return validator.NewRegistry(
			document.New(s.Vendors, state.Duplicates, cfg.CompanyGSTIN, document.WithClock(cfg.Clock)),
			gst.New(s.Rates, s.HSN, s.Vendors, gstOpts...),
			arithmetic.New(),
			tds.New(s.TDS, s.Vendors, state.Aggregates),
			policy.New(s.Policy, s.Vendors, state.Duplicates, policyOpts...),
			vendor.New(s.Vendors, cfg.CompanyGSTIN),
		)
	}
}
