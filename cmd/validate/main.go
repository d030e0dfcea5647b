// Command validate runs a batch of invoices through the validation engine
// and prints a summary.
//
// Usage:
//
//	validate invoices.json                      # every invoice in the file
//	validate --invoice INV-2024-001 invoices.json
//	validate --complexity LOW invoices.json
//	validate --category STANDARD_VALID --format xlsx --out report.xlsx invoices.json
//	validate --publish s3://finguard-invoices/batches/2025-01.jsonl
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"finguard/internal/app"
	"finguard/internal/config"
	"finguard/internal/intake"
	"finguard/internal/logger"
	"finguard/internal/report"
	"finguard/internal/service"
	s3storage "finguard/internal/storage/s3"
	"finguard/internal/validator"
)

type options struct {
	invoice    string
	complexity string
	category   string
	format     string
	out        string
	publish    bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	pflag.StringVar(&opts.invoice, "invoice", "", "validate only the invoice with this number")
	pflag.StringVar(&opts.complexity, "complexity", "", "keep invoices whose _complexity matches")
	pflag.StringVar(&opts.category, "category", "", "keep invoices whose _test_category matches")
	pflag.StringVar(&opts.format, "format", "json", "report format: json, csv or xlsx")
	pflag.StringVarP(&opts.out, "out", "o", "", "write the report to this file")
	pflag.BoolVar(&opts.publish, "publish", false, "upload the report to the configured bucket")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false, "list non-passing checks per invoice")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: validate [flags] <file | s3://bucket/key>")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	source := pflag.Arg(0)

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer a.Close()

	data, err := readSource(ctx, a, source)
	if err != nil {
		return err
	}
	records, err := intake.DecodeBatch(data)
	if err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}
	records = filter(records, opts)
	if len(records) == 0 {
		return fmt.Errorf("no invoices in %s match the filters", source)
	}

	svc := service.NewValidationService(a.Engine, a.Runs, a.Storage, service.ValidationServiceConfig{
		Concurrency:  cfg.Engine.BatchConcurrency,
		ReportBucket: cfg.S3.Bucket,
		ReportPrefix: cfg.S3.ReportPrefix,
	}, zl)

	summary, err := svc.ValidateBatch(ctx, records)
	if err != nil {
		return err
	}

	fmt.Println(report.RenderConsole(summary, opts.verbose))

	if opts.out != "" {
		if err := writeReport(opts.out, format, summary); err != nil {
			return err
		}
		zl.Info("report written", zap.String("path", opts.out), zap.String("format", string(format)))
	}
	if opts.publish {
		loc, err := svc.PublishReport(ctx, summary, format)
		if err != nil {
			return err
		}
		fmt.Printf("report: s3://%s/%s\n", loc.Bucket, loc.Key)
		if loc.URL != "" {
			fmt.Println(loc.URL)
		}
	}
	return nil
}

func readSource(ctx context.Context, a *app.App, source string) ([]byte, error) {
	if strings.HasPrefix(source, "s3://") {
		bucket, key, err := s3storage.ParseURI(source)
		if err != nil {
			return nil, err
		}
		return a.Storage.Download(ctx, bucket, key)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return data, nil
}

func filter(records []any, opts options) []any {
	if opts.invoice != "" {
		var out []any
		for _, r := range records {
			if strings.EqualFold(intake.InvoiceID(r), opts.invoice) {
				out = append(out, r)
			}
		}
		records = out
	}
	records = intake.Select(records, "_complexity", opts.complexity)
	return intake.Select(records, "_test_category", opts.category)
}

func writeReport(path string, format report.Format, summary *validator.BatchSummary) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.Write(f, format, summary)
}
