package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"innsight/config"
	"innsight/storage"
	"innsight/utils"
)

func testPipeline(t *testing.T, chunkSize int) (*Pipeline, *config.Config) {
	t.Helper()
	tmp := t.TempDir()
	cfg := &config.Config{
		RawDataDir:       filepath.Join(tmp, "raw"),
		ProcessedDataDir: filepath.Join(tmp, "processed"),
		ChunkSize:        chunkSize,
	}
	cleaner := NewCleaner("london", stubDetector{code: "en"}, "en", utils.NewLoggerTo(io.Discard))
	return NewPipeline(cfg, "london", cleaner, utils.NewLoggerTo(io.Discard)), cfg
}

func writeRawFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func countArtifactRows(t *testing.T, path string) int {
	t.Helper()
	rows := 0
	err := storage.ReadChunks(path, 10000, func(chunk []storage.Row) error {
		rows += len(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("reading artifact %s: %v", path, err)
	}
	return rows
}

func TestProcessListingsWritesCleanedArtifact(t *testing.T) {
	p, cfg := testPipeline(t, 2)
	writeRawFile(t, cfg.RawPath("london", "listings"),
		"id,name,neighbourhood_cleansed,price,room_type\n"+
			"1,Flat one,Camden,$100.00,Entire home/apt\n"+
			"2,Flat two,Camden,,Private room\n"+
			"3,Flat three,Soho,$80.00,Entire home/apt\n"+
			"4,Flat four,Soho,$120.00,Private room\n"+
			"5,Flat five,Camden,$90.00,Entire home/apt\n")

	n, err := p.ProcessListings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("processed %d listings; want 5", n)
	}

	out := cfg.ProcessedPath("london", "listings")
	if got := countArtifactRows(t, out); got != 5 {
		t.Errorf("artifact has %d rows; want 5", got)
	}

	// Spot-check the null price was imputed within its chunk.
	err = storage.ReadChunks(out, 10000, func(chunk []storage.Row) error {
		for _, row := range chunk {
			if row["id"] == "2" && row["price"] == "" {
				t.Errorf("listing 2 price was not imputed")
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestProcessReviewsFiltersAcrossChunks(t *testing.T) {
	p, cfg := testPipeline(t, 2)
	writeRawFile(t, cfg.RawPath("london", "reviews"),
		"id,listing_id,date,reviewer_id,reviewer_name,comments\n"+
			"1,10,2019-01-01,5,Ann,A lovely weekend in a lovely flat.\n"+
			"2,10,2019-01-02,6,Bob,Nice.\n"+
			"3,11,2019-01-03,7,Cem,Spotless apartment close to the station.\n"+
			"4,11,2019-01-04,8,Dee,Comfortable room and a helpful host.\n"+
			"5,12,2019-01-05,9,Eli,Great location and very quiet at night.\n")

	n, err := p.ProcessReviews(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Review 2 is dropped for length; the rest survive chunked cleaning.
	if n != 4 {
		t.Errorf("processed %d reviews; want 4", n)
	}
	if got := countArtifactRows(t, cfg.ProcessedPath("london", "reviews")); got != 4 {
		t.Errorf("artifact has %d rows; want 4", got)
	}
}

func TestProcessListingsCleansWholeFileNotPerChunk(t *testing.T) {
	p, cfg := testPipeline(t, 2)
	// The duplicate of id 1 and the null price land in the second read
	// chunk; dedup and imputation must still see the whole file.
	writeRawFile(t, cfg.RawPath("london", "listings"),
		"id,name,neighbourhood_cleansed,price\n"+
			"1,Flat one,Camden,$100.00\n"+
			"2,Flat two,Camden,$700.00\n"+
			"1,Flat one again,Camden,$100.00\n"+
			"3,Flat three,Camden,\n")

	n, err := p.ProcessListings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("processed %d listings; want 3 after dedup", n)
	}

	seen := map[string]int{}
	prices := map[string]string{}
	err = storage.ReadChunks(cfg.ProcessedPath("london", "listings"), 10000, func(chunk []storage.Row) error {
		for _, row := range chunk {
			seen[row["id"]]++
			prices[row["id"]] = row["price"]
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("id %s appears %d times in the artifact", id, count)
		}
	}
	// Whole-file Camden mean over valid prices is (100+700+100)/3 = 300;
	// a per-chunk mean would have yielded 100.
	if prices["3"] != "300" {
		t.Errorf("listing 3 price = %q; want 300 from the whole-file mean", prices["3"])
	}
}

func TestProcessListingsMissingRawFile(t *testing.T) {
	p, _ := testPipeline(t, 100)
	if _, err := p.ProcessListings(context.Background()); err == nil {
		t.Fatal("expected error for missing raw export")
	}
}

func TestProcessListingsStopsOnCancelledContext(t *testing.T) {
	p, cfg := testPipeline(t, 1)
	writeRawFile(t, cfg.RawPath("london", "listings"),
		"id,name,price\n1,Flat one,$100.00\n2,Flat two,$90.00\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.ProcessListings(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
