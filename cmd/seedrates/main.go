// Command seedrates loads the GST rate schedule and HSN/SAC master into
// PostgreSQL for the "postgres" reference data source.
//
// Usage:
//
//	seedrates -workbook rates.xlsx
//	seedrates -rates gst_rates_schedule.csv -hsn hsn_sac_codes.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finguard/internal/config"
	"finguard/internal/domain"
	"finguard/internal/refdata"
	"finguard/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	workbookPath := flag.String("workbook", "", "xlsx workbook with Rates and HSN sheets")
	ratesPath := flag.String("rates", "", "rate schedule CSV")
	hsnPath := flag.String("hsn", "", "HSN/SAC master JSON")
	flag.Parse()

	if *workbookPath == "" && *ratesPath == "" && *hsnPath == "" {
		flag.Usage()
		return fmt.Errorf("nothing to import")
	}

	var (
		rates []domain.RateEntry
		hsn   []domain.HSNEntry
	)
	if *workbookPath != "" {
		err := readFile(*workbookPath, func(r io.Reader) (err error) {
			rates, hsn, err = refdata.ParseWorkbook(r)
			return err
		})
		if err != nil {
			return err
		}
	}
	if *ratesPath != "" {
		err := readFile(*ratesPath, func(r io.Reader) error {
			entries, err := refdata.ParseRateScheduleCSV(r)
			rates = append(rates, entries...)
			return err
		})
		if err != nil {
			return err
		}
	}
	if *hsnPath != "" {
		err := readFile(*hsnPath, func(r io.Reader) error {
			entries, err := refdata.ParseHSNJSON(r)
			hsn = append(hsn, entries...)
			return err
		})
		if err != nil {
			return err
		}
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.DB.Enabled() {
		return fmt.Errorf("no database configured: set FINGUARD_DB_HOST")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := postgres.NewRefDataRepo(db)
	n, err := repo.UpsertRates(ctx, rates)
	if err != nil {
		return err
	}
	log.Printf("upserted %d rate schedule entries", n)

	n, err = repo.UpsertHSN(ctx, hsn)
	if err != nil {
		return err
	}
	log.Printf("upserted %d HSN/SAC codes", n)
	return nil
}

func readFile(path string, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if err := parse(f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
