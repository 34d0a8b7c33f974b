package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"innsight/config"
	"innsight/handlers"
	"innsight/models"
	"innsight/nlp"
	"innsight/services"
	"innsight/storage"
	"innsight/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// One interrupt cancels the context so in-flight batch work stops at
	// a batch boundary; a second interrupt kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "etl":
		err = runETL(ctx, cfg, logger, os.Args[2:])
	case "load":
		err = runLoad(ctx, cfg, logger, os.Args[2:])
	case "sentiment":
		err = runSentiment(ctx, cfg, logger, os.Args[2:])
	case "export":
		err = runExport(cfg, logger, os.Args[2:])
	case "api":
		err = runAPI(ctx, cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if errors.Is(err, context.Canceled) {
		logger.Warn("Interrupted; partial progress is preserved")
		os.Exit(1)
	}
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: innsight <command> [flags]

Commands:
  etl        clean a city's raw exports into processed CSV artifacts
  load       load cleaned artifacts into the document store
  sentiment  attach sentiment labels to loaded reviews
  export     export cleaned listings to PostgreSQL
  api        serve the analytics HTTP API`)
}

func cityFlag(fs *flag.FlagSet) *string {
	return fs.String("city", "london", "city to process")
}

func checkCity(cfg *config.Config, city string) error {
	if !cfg.KnownCity(city) {
		return fmt.Errorf("unknown city %q (configured: %v)", city, cfg.Cities)
	}
	return nil
}

func runETL(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("etl", flag.ExitOnError)
	city := cityFlag(fs)
	skipCalendar := fs.Bool("skip-calendar", false, "skip the calendar file (largest input)")
	_ = fs.Parse(args)

	if err := checkCity(cfg, *city); err != nil {
		return err
	}

	cleaner := services.NewCleaner(*city, nlp.NewWhatlangDetector(), cfg.TargetLanguage, logger)
	pipeline := services.NewPipeline(cfg, *city, cleaner, logger)
	return pipeline.Run(ctx, *skipCalendar)
}

func runLoad(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	city := cityFlag(fs)
	drop := fs.Bool("drop", false, "drop existing collections before loading (full reload)")
	_ = fs.Parse(args)

	if err := checkCity(cfg, *city); err != nil {
		return err
	}

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if *drop {
		if err := store.DropCollections(ctx); err != nil {
			return err
		}
	}

	listings, err := store.LoadListings(ctx, cfg.ProcessedPath(*city, "listings"), cfg.ListingBatchSize)
	if err != nil {
		return err
	}
	reviews, err := store.LoadReviews(ctx, cfg.ProcessedPath(*city, "reviews"), cfg.ReviewBatchSize)
	if err != nil {
		return err
	}

	calendar := 0
	calendarPath := cfg.ProcessedPath(*city, "calendar")
	if _, statErr := os.Stat(calendarPath); statErr == nil {
		if calendar, err = store.LoadCalendar(ctx, calendarPath, cfg.CalendarBatchSize); err != nil {
			return err
		}
	} else {
		logger.Warn("No calendar artifact at %s; skipping", calendarPath)
	}

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	logger.Info("Load complete for %s: %d listings, %d reviews, %d calendar days",
		*city, listings, reviews, calendar)
	return nil
}

func runSentiment(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("sentiment", flag.ExitOnError)
	city := cityFlag(fs)
	rescore := fs.Bool("rescore", false, "rescore all reviews, including already-scored ones")
	_ = fs.Parse(args)

	if err := checkCity(cfg, *city); err != nil {
		return err
	}

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	job := services.NewEnrichmentJob(store, nlp.NewVaderAnalyzer(), cfg.SentimentBatch, logger)
	_, err = job.Run(ctx, *city, *rescore)
	return err
}

func runExport(cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	city := cityFlag(fs)
	_ = fs.Parse(args)

	if err := checkCity(cfg, *city); err != nil {
		return err
	}

	writer, err := storage.NewPostgresWriter(cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer writer.Close()

	total := 0
	path := cfg.ProcessedPath(*city, "listings")
	err = storage.ReadCleanedListings(path, cfg.ListingBatchSize, func(batch []*models.Listing) error {
		if err := writer.Export(batch); err != nil {
			return err
		}
		total += len(batch)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Exported %d %s listings to PostgreSQL", total, *city)
	return nil
}

func runAPI(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("api", flag.ExitOnError)
	addr := fs.String("addr", cfg.APIAddr, "listen address")
	_ = fs.Parse(args)

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	insights := services.NewInsightService(store, logger)
	api := handlers.NewAPI(cfg, insights, logger)

	logger.Info("Serving analytics API on %s", *addr)
	return api.Router().Run(*addr)
}
