package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"battery-revenue/internal/analysis"
	"battery-revenue/internal/config"
	"battery-revenue/internal/data"
	"battery-revenue/internal/logger"
	"battery-revenue/internal/report"
	"battery-revenue/internal/revenue"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("REVENUE_CONFIG"))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAgeDays); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "revenue":
		err = cmdRevenue(os.Stdout, cfg, os.Args[2:])
	case "ledger":
		err = cmdLedger(os.Stdout, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli revenue --file_path dispatch.csv --date 2024-04-01 --chunk 100")
	fmt.Println("  cli ledger  --file_path dispatch.csv --date 2024-04-01 --chunk 100 --out results/ledger.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - defaults come from $REVENUE_CONFIG (YAML) when set")
	fmt.Println("  - ledger writes one CSV row per priced interval and a summary line")
}

type runFlags struct {
	filePath *string
	date     *string
	chunk    *int
}

func bindRunFlags(fs *flag.FlagSet, cfg *config.Config) runFlags {
	return runFlags{
		filePath: fs.String("file_path", cfg.Input.FilePath, "Path to the CSV file containing battery dispatch data"),
		date:     fs.String("date", cfg.Input.Date, "Date of interest in YYYY-MM-DD format"),
		chunk:    fs.Int("chunk", cfg.Input.BatchSize, "Number of records to process in batches"),
	}
}

func cmdRevenue(stdout io.Writer, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("revenue", flag.ContinueOnError)
	rf := bindRunFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := run(cfg, rf)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, report.NetLine(res.Date, res.NetRevenue))
	return nil
}

func cmdLedger(stdout io.Writer, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	rf := bindRunFlags(fs, cfg)
	outPath := fs.String("out", orDefault(cfg.Ledger.Path, "results/ledger.csv"), "Output ledger CSV path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ledger := revenue.NewLedgerWriter(f)
	var stats analysis.DayStats
	res, err := run(cfg, rf, ledger, &stats)
	if err != nil {
		return err
	}
	if err := ledger.Flush(); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	fmt.Fprintln(stdout, report.NetLine(res.Date, res.NetRevenue))
	fmt.Fprintln(stdout, report.SummaryLine(res, stats.Summary()))
	fmt.Fprintf(stdout, "Wrote %d rows to %s\n", ledger.Rows(), *outPath)
	return nil
}

func run(cfg *config.Config, rf runFlags, observers ...revenue.Observer) (*revenue.Result, error) {
	date, err := revenue.ParseDate(*rf.date)
	if err != nil {
		return nil, err
	}
	src, err := data.OpenCSV(*rf.filePath, *rf.chunk)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	engine, err := revenue.New(revenue.Options{
		Date:           date,
		IntervalLength: cfg.IntervalLength(),
		Observers:      observers,
		Logger:         logger.GetLogger(),
	})
	if err != nil {
		return nil, err
	}
	return engine.Run(src)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
