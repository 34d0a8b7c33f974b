package services

import (
	"io"
	"testing"
	"time"

	"innsight/config"
	"innsight/storage"
	"innsight/utils"
)

// stubDetector reports a fixed language for every text, or a detection
// failure when code is empty.
type stubDetector struct {
	code string
}

func (d stubDetector) Detect(string) (string, bool) {
	return d.code, d.code != ""
}

func testCleaner(t *testing.T, detectedLang string) *Cleaner {
	t.Helper()
	return NewCleaner("london", stubDetector{code: detectedLang}, "en", utils.NewLoggerTo(io.Discard))
}

func listingRow(id, neighbourhood, price string) storage.Row {
	return storage.Row{
		"id":                     id,
		"name":                   "Cosy flat",
		"neighbourhood_cleansed": neighbourhood,
		"price":                  price,
	}
}

func TestCleanListingsImputesPricesFromNeighbourhoodMean(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		listingRow("1", "Camden", ""),
		listingRow("2", "Camden", "$100.00"),
		listingRow("3", "Soho", ""),
	}

	listings, _ := c.CleanListings(rows)
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}

	// Listing 1 takes the Camden mean; listing 3 has no neighbourhood
	// data and falls back to the batch mean, also 100 here.
	for _, l := range listings {
		if l.Price == nil {
			t.Fatalf("listing %s: price not imputed", l.ID)
		}
		if *l.Price != 100 {
			t.Errorf("listing %s: price = %v; want 100", l.ID, *l.Price)
		}
	}
}

func TestCleanListingsBatchWithoutPricesStaysNull(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		listingRow("1", "Camden", ""),
		listingRow("2", "Soho", ""),
	}

	listings, summary := c.CleanListings(rows)
	for _, l := range listings {
		if l.Price != nil {
			t.Errorf("listing %s: price = %v; want nil", l.ID, *l.Price)
		}
	}
	if summary.Missing["price"] != 2 {
		t.Errorf("missing price count = %d; want 2", summary.Missing["price"])
	}
}

func TestCleanListingsDropsDuplicateIDs(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		listingRow("1", "Camden", "$50.00"),
		listingRow("1", "Camden", "$999.00"),
		listingRow("2", "Soho", "$80.00"),
	}

	listings, _ := c.CleanListings(rows)
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings after dedup, got %d", len(listings))
	}
	// First occurrence wins.
	if *listings[0].Price != 50 {
		t.Errorf("kept duplicate price = %v; want 50", *listings[0].Price)
	}
}

func TestCleanListingsProjectsRecognizedColumns(t *testing.T) {
	c := testCleaner(t, "en")
	row := listingRow("1", "Camden", "$50.00")
	row["scrape_id"] = "20210401"
	row["license"] = "exempt"

	listings, summary := c.CleanListings([]storage.Row{row})
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if want := len(config.ListingColumns) + 1; summary.Columns != want {
		t.Errorf("summary columns = %d; want %d", summary.Columns, want)
	}
}

func reviewRow(id, date, comments string) storage.Row {
	return storage.Row{
		"id":            id,
		"listing_id":    "77",
		"date":          date,
		"reviewer_id":   "9",
		"reviewer_name": "Alice",
		"comments":      comments,
	}
}

func TestCleanReviewsDropsShortComments(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		reviewRow("1", "2019-01-01", "Great place to stay, would come back."),
		reviewRow("2", "2019-01-02", "Nice."),
		reviewRow("3", "2019-01-03", ""),
		reviewRow("4", "2019-01-04", "<p></p>"),
	}

	reviews, _ := c.CleanReviews(rows)
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
	if reviews[0].ID != "1" {
		t.Errorf("kept review %s; want 1", reviews[0].ID)
	}
}

func TestCleanReviewsDropsWrongLanguage(t *testing.T) {
	c := testCleaner(t, "fr")
	rows := []storage.Row{
		reviewRow("1", "2019-01-01", "Appartement magnifique, proche de tout."),
	}

	reviews, _ := c.CleanReviews(rows)
	if len(reviews) != 0 {
		t.Fatalf("expected 0 reviews, got %d", len(reviews))
	}
}

func TestCleanReviewsSortsByDateWithNilLast(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		reviewRow("1", "2020-06-01", "A lovely weekend in a lovely flat."),
		reviewRow("2", "", "Comfortable room and a helpful host."),
		reviewRow("3", "2019-03-15", "Spotless apartment close to the station."),
	}

	reviews, _ := c.CleanReviews(rows)
	if len(reviews) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(reviews))
	}
	wantOrder := []string{"3", "1", "2"}
	for i, want := range wantOrder {
		if reviews[i].ID != want {
			t.Errorf("position %d: review %s; want %s", i, reviews[i].ID, want)
		}
	}
	if reviews[2].Date != nil {
		t.Errorf("nil-date review should sort last")
	}
}

func TestCleanReviewsStripsMarkup(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		reviewRow("1", "2019-01-01", "Great stay!<br/>Clean and <b>quiet</b> rooms."),
	}

	reviews, _ := c.CleanReviews(rows)
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
	want := "Great stay! Clean and quiet rooms."
	if reviews[0].Comments != want {
		t.Errorf("comments = %q; want %q", reviews[0].Comments, want)
	}
}

func calendarRow(listingID, date, available string) storage.Row {
	return storage.Row{
		"listing_id": listingID,
		"date":       date,
		"available":  available,
		"price":      "$90.00",
	}
}

func TestCleanCalendarDropsBadDatesAndDuplicates(t *testing.T) {
	c := testCleaner(t, "en")
	rows := []storage.Row{
		calendarRow("10", "2021-05-02", "t"),
		calendarRow("10", "2021-05-01", "f"),
		calendarRow("10", "2021-05-01", "t"),
		calendarRow("10", "garbage", "t"),
		calendarRow("9", "2021-05-01", "f"),
	}

	days, _ := c.CleanCalendar(rows)
	if len(days) != 3 {
		t.Fatalf("expected 3 calendar days, got %d", len(days))
	}

	// Sorted by (listing_id, date) with listing_id compared as a string,
	// so "10" orders before "9". The first 2021-05-01 row for listing 10
	// wins the dedup.
	if days[0].ListingID != "10" || days[2].ListingID != "9" {
		t.Errorf("listing order = [%s %s %s]; want [10 10 9]",
			days[0].ListingID, days[1].ListingID, days[2].ListingID)
	}
	if days[0].Date != time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("first day date = %v", days[0].Date)
	}
	if days[0].Available == nil || *days[0].Available {
		t.Errorf("duplicate resolution should keep the first occurrence (available=f)")
	}
}
