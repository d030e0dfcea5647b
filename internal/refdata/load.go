package refdata

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/encoding"
	"finguard/internal/port"
)

// Files names the reference data files inside Dir. Empty names are skipped.
type Files struct {
	Dir       string
	Rates     string
	HSN       string
	TDS       string
	Vendors   string
	Policy    string
	Decisions string
}

// DefaultFiles returns the conventional file names under dir.
func DefaultFiles(dir string) Files {
	return Files{
		Dir:       dir,
		Rates:     "gst_rates_schedule.csv",
		HSN:       "hsn_sac_codes.json",
		TDS:       "tds_sections.json",
		Vendors:   "vendor_registry.json",
		Policy:    "company_policy.yaml",
		Decisions: "historical_decisions.jsonl",
	}
}

// Store bundles every reference lookup used by the validators.
type Store struct {
	Rates     *RateSchedule
	HSN       *HSNMaster
	TDS       *TDSSections
	Vendors   *VendorRegistry
	Policy    *Policy
	Decisions []domain.HistoricalDecision
}

// NewStore builds a store from in-memory records. Nil vendors yields an
// unloaded registry; a nil policy yields DefaultPolicy.
func NewStore(rates []domain.RateEntry, hsn []domain.HSNEntry, tds []domain.TDSSection, vendors []domain.Vendor, policy *Policy) *Store {
	if tds == nil {
		tds = DefaultTDSSections
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Store{
		Rates:   NewRateSchedule(rates),
		HSN:     NewHSNMaster(hsn),
		TDS:     NewTDSSections(tds),
		Vendors: NewVendorRegistry(vendors),
		Policy:  policy,
	}
}

// LoadFiles reads every configured file. A missing file is logged and the
// corresponding lookup is left empty; a malformed file is an error.
func LoadFiles(files Files, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		rates   []domain.RateEntry
		hsn     []domain.HSNEntry
		tds     []domain.TDSSection
		vendors []domain.Vendor
		policy  *Policy
		history []domain.HistoricalDecision
	)

	steps := []struct {
		name  string
		parse func(io.Reader) error
	}{
		{files.Rates, func(r io.Reader) (err error) { rates, err = ParseRateScheduleCSV(r); return }},
		{files.HSN, func(r io.Reader) (err error) { hsn, err = ParseHSNJSON(r); return }},
		{files.TDS, func(r io.Reader) (err error) { tds, err = ParseTDSJSON(r); return }},
		{files.Vendors, func(r io.Reader) (err error) { vendors, err = ParseVendorsJSON(r); return }},
		{files.Policy, func(r io.Reader) (err error) { policy, err = ParsePolicy(r); return }},
		{files.Decisions, func(r io.Reader) (err error) { history, err = ParseHistoricalDecisions(r); return }},
	}
	for _, step := range steps {
		if step.name == "" {
			continue
		}
		path := filepath.Join(files.Dir, step.name)
		if err := parseFile(path, step.parse); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("refdata.LoadFiles: file not found, continuing without it", zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrReferenceData, path, err)
		}
	}

	store := NewStore(rates, hsn, tds, vendors, policy)
	store.Decisions = history
	logger.Info("refdata.LoadFiles: reference data loaded",
		zap.Int("rate_codes", store.Rates.Len()),
		zap.Int("hsn_codes", store.HSN.Len()),
		zap.Int("tds_sections", store.TDS.Len()),
		zap.Int("vendors", store.Vendors.Len()),
		zap.Int("historical_decisions", len(store.Decisions)),
	)
	return store, nil
}

// LoadRepository reads the rate schedule, HSN master and vendor registry
// from repo. TDS sections, policy and historical decisions still come from
// files, since they are versioned with the deployment.
func LoadRepository(ctx context.Context, repo port.ReferenceDataRepository, files Files, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rates, err := repo.LoadRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: rates: %v", domain.ErrReferenceData, err)
	}
	hsn, err := repo.LoadHSN(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: hsn: %v", domain.ErrReferenceData, err)
	}
	vendors, err := repo.LoadVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: vendors: %v", domain.ErrReferenceData, err)
	}

	files.Rates, files.HSN, files.Vendors = "", "", ""
	fromFiles, err := LoadFiles(files, logger)
	if err != nil {
		return nil, err
	}

	store := NewStore(rates, hsn, nil, vendors, fromFiles.Policy)
	store.TDS = fromFiles.TDS
	store.Decisions = fromFiles.Decisions
	logger.Info("refdata.LoadRepository: reference data loaded from database",
		zap.Int("rate_codes", store.Rates.Len()),
		zap.Int("hsn_codes", store.HSN.Len()),
		zap.Int("vendors", store.Vendors.Len()),
	)
	return store, nil
}

func parseFile(path string, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return parse(f)
}

// ParseRateScheduleCSV reads the rate schedule. Columns are matched by header
// name: hsn_sac_code, description, rate_cgst, rate_sgst, rate_igst,
// effective_from, effective_to. The input charset is detected.
func ParseRateScheduleCSV(r io.Reader) ([]domain.RateEntry, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(utf8r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"hsn_sac_code", "effective_from"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []domain.RateEntry
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		from, err := ParseDate(get(rec, "effective_from"))
		if err != nil {
			return nil, fmt.Errorf("line %d: effective_from: %w", line, err)
		}
		e := domain.RateEntry{
			Code:          get(rec, "hsn_sac_code"),
			Description:   get(rec, "description"),
			CGST:          parseFloat(get(rec, "rate_cgst")),
			SGST:          parseFloat(get(rec, "rate_sgst")),
			IGST:          parseFloat(get(rec, "rate_igst")),
			EffectiveFrom: from,
		}
		if to := get(rec, "effective_to"); to != "" {
			t, err := ParseDate(to)
			if err != nil {
				return nil, fmt.Errorf("line %d: effective_to: %w", line, err)
			}
			e.EffectiveTo = &t
		}
		out = append(out, e)
	}
	return out, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseDate accepts ISO dates and the common Indian day-first layouts.
func ParseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"2006/01/02",
		"02 Jan 2006",
		"2 Jan 2006",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	s = strings.TrimSpace(s)
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}

type hsnFile struct {
	HSNCodes map[string]struct {
		Description string  `json:"description"`
		GSTRate     float64 `json:"gst_rate"`
	} `json:"hsn_codes"`
	SACCodes map[string]struct {
		Description string  `json:"description"`
		GSTRate     float64 `json:"gst_rate"`
	} `json:"sac_codes"`
}

// ParseHSNJSON reads {"hsn_codes": {...}, "sac_codes": {...}}.
func ParseHSNJSON(r io.Reader) ([]domain.HSNEntry, error) {
	var f hsnFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding hsn master: %w", err)
	}
	out := make([]domain.HSNEntry, 0, len(f.HSNCodes)+len(f.SACCodes))
	for code, e := range f.HSNCodes {
		out = append(out, domain.HSNEntry{Code: code, Description: e.Description, GSTRate: e.GSTRate})
	}
	for code, e := range f.SACCodes {
		out = append(out, domain.HSNEntry{Code: code, Description: e.Description, GSTRate: e.GSTRate, IsService: true})
	}
	return out, nil
}

// ParseTDSJSON reads {"tds_sections": [...]}.
func ParseTDSJSON(r io.Reader) ([]domain.TDSSection, error) {
	var f struct {
		Sections []domain.TDSSection `json:"tds_sections"`
	}
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding tds sections: %w", err)
	}
	return f.Sections, nil
}

type vendorRecord struct {
	domain.Vendor
	Name string `json:"name"`
}

// ParseVendorsJSON reads {"vendors": [...]}. "name" is accepted for legal_name
// and status values are upper-cased.
func ParseVendorsJSON(r io.Reader) ([]domain.Vendor, error) {
	var f struct {
		Vendors []vendorRecord `json:"vendors"`
	}
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding vendor registry: %w", err)
	}
	out := make([]domain.Vendor, 0, len(f.Vendors))
	for _, rec := range f.Vendors {
		v := rec.Vendor
		if v.LegalName == "" {
			v.LegalName = rec.Name
		}
		v.Status = domain.VendorStatus(strings.ToUpper(string(v.Status)))
		v.ResidentStatus = domain.ResidentStatus(strings.ToUpper(string(v.ResidentStatus)))
		v.VendorType = strings.ToUpper(v.VendorType)
		out = append(out, v)
	}
	return out, nil
}

// ParseHistoricalDecisions reads one JSON object per line, skipping blanks.
// The decisions are reported on but never consulted by any validator.
func ParseHistoricalDecisions(r io.Reader) ([]domain.HistoricalDecision, error) {
	var out []domain.HistoricalDecision
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var d domain.HistoricalDecision
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning decisions: %w", err)
	}
	return out, nil
}
