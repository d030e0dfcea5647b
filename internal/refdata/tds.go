package refdata

import (
	"strings"

	"finguard/internal/domain"
)

// Threshold keys. Aggregate keys carry a suffix.
const (
	Threshold194C          = "194C"
	Threshold194CAggregate = "194C_aggregate"
	Threshold194J          = "194J"
	Threshold194H          = "194H"
	Threshold194I          = "194I"
	Threshold194IProperty  = "194I_property"
	Threshold194Q          = "194Q"
	ThresholdDefault       = "default"
	// AggregateSuffix turns a section code into its aggregate threshold key.
	AggregateSuffix           = "_aggregate"
	ThresholdDefaultAggregate = "default" + AggregateSuffix
)

// DefaultThresholds are the single-payment and aggregate TDS limits in rupees.
var DefaultThresholds = map[string]float64{
	Threshold194C:             30000,
	Threshold194CAggregate:    100000,
	Threshold194J:             30000,
	Threshold194H:             15000,
	Threshold194I:             180000,
	Threshold194IProperty:     240000,
	Threshold194Q:             5000000,
	ThresholdDefault:          30000,
	ThresholdDefaultAggregate: 100000,
}

// DefaultTDSSections is used when no sections file is configured.
var DefaultTDSSections = []domain.TDSSection{
	{Section: "194C", Description: "Payment to contractors", Rate: 2, RateCompany: 2, RateIndividual: 1, RateNoPAN: 20, Threshold: 30000, AggregateThreshold: 100000},
	{Section: "194J", Description: "Fees for professional or technical services", Rate: 10, RateTechnical: 2, RateNoPAN: 20, Threshold: 30000},
	{Section: "194H", Description: "Commission or brokerage", Rate: 5, RateNoPAN: 20, Threshold: 15000},
	{Section: "194I", Description: "Rent", Rate: 10, RateNoPAN: 20, Threshold: 180000},
	{Section: "194Q", Description: "Purchase of goods", Rate: 0.1, RateNoPAN: 5, Threshold: 5000000},
	{Section: "195", Description: "Payments to non-residents", Rate: 20, RateNoPAN: 20},
}

// TDSSections indexes TDS section rules by section code.
type TDSSections struct {
	bySection  map[string]domain.TDSSection
	thresholds map[string]float64
}

// NewTDSSections builds the table. Section thresholds in entries override defaults.
func NewTDSSections(entries []domain.TDSSection) *TDSSections {
	t := &TDSSections{
		bySection:  make(map[string]domain.TDSSection, len(entries)),
		thresholds: make(map[string]float64, len(DefaultThresholds)),
	}
	for k, v := range DefaultThresholds {
		t.thresholds[k] = v
	}
	for _, e := range entries {
		t.bySection[e.Section] = e
		if e.Threshold > 0 {
			t.thresholds[e.Section] = e.Threshold
		}
		if e.AggregateThreshold > 0 {
			t.thresholds[e.Section+AggregateSuffix] = e.AggregateThreshold
		}
	}
	return t
}

// Len returns the number of sections.
func (t *TDSSections) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bySection)
}

// Section returns the rules for a section code.
func (t *TDSSections) Section(code string) (domain.TDSSection, bool) {
	if t == nil {
		return domain.TDSSection{}, false
	}
	s, ok := t.bySection[code]
	return s, ok
}

// Threshold returns the limit for key. Unknown single-payment keys fall back
// to the default limit and unknown aggregate keys to the default aggregate.
func (t *TDSSections) Threshold(key string) float64 {
	table := DefaultThresholds
	if t != nil {
		table = t.thresholds
	}
	if v, ok := table[key]; ok {
		return v
	}
	if strings.HasSuffix(key, AggregateSuffix) {
		return table[ThresholdDefaultAggregate]
	}
	return table[ThresholdDefault]
}
