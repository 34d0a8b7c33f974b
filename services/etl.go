package services

import (
	"context"
	"fmt"

	"innsight/config"
	"innsight/storage"
	"innsight/utils"
)

// Pipeline drives extract -> clean -> save for one city. Reviews and
// calendar files can exceed available memory, so they stream through
// the cleaner in chunks; memory use is bounded by one chunk. A failure
// in any chunk aborts the run with its cause; nothing retries here.
type Pipeline struct {
	cfg     *config.Config
	city    string
	cleaner *Cleaner
	logger  *utils.Logger
}

// NewPipeline creates the ETL pipeline for a city.
func NewPipeline(cfg *config.Config, city string, cleaner *Cleaner, logger *utils.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, city: city, cleaner: cleaner, logger: logger}
}

// ProcessListings cleans a city's listings in one pass and writes the
// cleaned artifact. Only the reading is chunked: the full row set is
// cleaned at once, so deduplication sees every row and price imputation
// means are computed over the whole file.
func (p *Pipeline) ProcessListings(ctx context.Context) (int, error) {
	raw := p.cfg.RawPath(p.city, "listings")
	out := p.cfg.ProcessedPath(p.city, "listings")
	p.logger.Info("[etl] Processing %s listings from %s", p.city, raw)

	var rows []storage.Row
	err := storage.ReadChunks(raw, p.cfg.ChunkSize, func(chunk []storage.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows = append(rows, chunk...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("etl: listings for %s: %w", p.city, err)
	}

	cleaned, _ := p.cleaner.CleanListings(rows)

	writer, err := storage.NewListingWriter(out)
	if err != nil {
		return 0, err
	}
	if err := writer.Append(cleaned); err != nil {
		_ = writer.Close()
		return 0, fmt.Errorf("etl: listings for %s: %w", p.city, err)
	}
	if err := writer.Close(); err != nil {
		return len(cleaned), fmt.Errorf("etl: close %s: %w", out, err)
	}

	p.logger.Info("[etl] Saved %d cleaned listings to %s", len(cleaned), out)
	return len(cleaned), nil
}

// ProcessReviews streams a city's reviews through the cleaner in chunks
// and appends cleaned records to the artifact in input order.
func (p *Pipeline) ProcessReviews(ctx context.Context) (int, error) {
	raw := p.cfg.RawPath(p.city, "reviews")
	out := p.cfg.ProcessedPath(p.city, "reviews")
	p.logger.Info("[etl] Processing %s reviews in chunks of %d", p.city, p.cfg.ChunkSize)

	writer, err := storage.NewReviewWriter(out)
	if err != nil {
		return 0, err
	}

	total := 0
	chunkNum := 0
	err = storage.ReadChunks(raw, p.cfg.ChunkSize, func(chunk []storage.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunkNum++
		p.logger.Info("[etl] Reviews chunk %d (%d rows)", chunkNum, len(chunk))
		cleaned, _ := p.cleaner.CleanReviews(chunk)
		if err := writer.Append(cleaned); err != nil {
			return err
		}
		total += len(cleaned)
		return nil
	})
	if err != nil {
		_ = writer.Close()
		return total, fmt.Errorf("etl: reviews for %s: %w", p.city, err)
	}
	if err := writer.Close(); err != nil {
		return total, fmt.Errorf("etl: close %s: %w", out, err)
	}

	p.logger.Info("[etl] Saved %d cleaned reviews to %s", total, out)
	return total, nil
}

// ProcessCalendar streams a city's calendar, the largest input, through
// the cleaner in chunks.
func (p *Pipeline) ProcessCalendar(ctx context.Context) (int, error) {
	raw := p.cfg.RawPath(p.city, "calendar")
	out := p.cfg.ProcessedPath(p.city, "calendar")
	p.logger.Info("[etl] Processing %s calendar in chunks of %d", p.city, p.cfg.ChunkSize)

	writer, err := storage.NewCalendarWriter(out)
	if err != nil {
		return 0, err
	}

	total := 0
	chunkNum := 0
	err = storage.ReadChunks(raw, p.cfg.ChunkSize, func(chunk []storage.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunkNum++
		p.logger.Info("[etl] Calendar chunk %d (%d rows)", chunkNum, len(chunk))
		cleaned, _ := p.cleaner.CleanCalendar(chunk)
		if err := writer.Append(cleaned); err != nil {
			return err
		}
		total += len(cleaned)
		return nil
	})
	if err != nil {
		_ = writer.Close()
		return total, fmt.Errorf("etl: calendar for %s: %w", p.city, err)
	}
	if err := writer.Close(); err != nil {
		return total, fmt.Errorf("etl: close %s: %w", out, err)
	}

	p.logger.Info("[etl] Saved %d cleaned calendar days to %s", total, out)
	return total, nil
}

// Run executes the full pipeline for the city. Calendar processing can
// be skipped; it is by far the largest input.
func (p *Pipeline) Run(ctx context.Context, skipCalendar bool) error {
	p.logger.Info("[etl] ===== Starting full ETL for %s =====", p.city)

	listings, err := p.ProcessListings(ctx)
	if err != nil {
		return err
	}
	reviews, err := p.ProcessReviews(ctx)
	if err != nil {
		return err
	}

	calendar := 0
	if skipCalendar {
		p.logger.Info("[etl] Skipping calendar processing")
	} else {
		if calendar, err = p.ProcessCalendar(ctx); err != nil {
			return err
		}
	}

	p.logger.Info("[etl] ===== ETL complete for %s: %d listings, %d reviews, %d calendar days =====",
		p.city, listings, reviews, calendar)
	return nil
}
