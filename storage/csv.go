package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"innsight/config"
	"innsight/models"
)

// Row is one delimited record keyed by header column. Columns missing
// from a short row are simply absent from the map.
type Row map[string]string

// ReadChunks streams a delimited file with a header row in chunks of at
// most chunkSize rows, calling fn for each chunk. An error from fn
// aborts the read and is returned as-is, so a failed chunk fails the
// whole run.
func ReadChunks(path string, chunkSize int, fn func(chunk []Row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("csv: read header of %q: %w", path, err)
	}

	chunk := make([]Row, 0, chunkSize)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("csv: read %q: %w", path, err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		chunk = append(chunk, row)

		if len(chunk) >= chunkSize {
			if err := fn(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		return fn(chunk)
	}
	return nil
}

// Cleaned artifact column sets. These are the cleaned attribute names,
// not the raw export headers (neighbourhood_cleansed is projected to
// neighbourhood during cleaning).
var (
	listingHeader = []string{
		"id", "city", "name", "description", "host_id", "host_name",
		"host_since", "host_response_rate", "host_is_superhost",
		"neighbourhood", "latitude", "longitude", "room_type",
		"accommodates", "bathrooms", "bedrooms", "beds", "amenities",
		"price", "minimum_nights", "maximum_nights",
		"number_of_reviews", "review_scores_rating", "instant_bookable",
	}
	reviewHeader = []string{
		"id", "listing_id", "city", "date",
		"reviewer_id", "reviewer_name", "comments",
	}
	calendarHeader = []string{
		"listing_id", "city", "date", "available",
		"price", "minimum_nights", "maximum_nights",
	}
)

// cleanFile is a cleaned-artifact CSV being written. The header goes
// out on creation; batches are appended in input order.
type cleanFile struct {
	file   *os.File
	writer *csv.Writer
}

func newCleanFile(path string, header []string) (*cleanFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	return &cleanFile{file: f, writer: w}, nil
}

func (c *cleanFile) writeRow(row []string) error {
	return c.writer.Write(row)
}

func (c *cleanFile) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}

// ListingWriter appends cleaned listings to a city's artifact file.
type ListingWriter struct{ f *cleanFile }

func NewListingWriter(path string) (*ListingWriter, error) {
	f, err := newCleanFile(path, listingHeader)
	if err != nil {
		return nil, err
	}
	return &ListingWriter{f: f}, nil
}

func (w *ListingWriter) Append(listings []*models.Listing) error {
	for _, l := range listings {
		row := []string{
			l.ID, l.City, strPtr(l.Name), strPtr(l.Description),
			l.HostID, strPtr(l.HostName), datePtr(l.HostSince),
			floatPtr(l.HostResponseRate), boolPtr(l.HostIsSuperhost),
			strPtr(l.Neighbourhood), floatPtr(l.Latitude), floatPtr(l.Longitude),
			strPtr(l.RoomType), intPtr(l.Accommodates), floatPtr(l.Bathrooms),
			intPtr(l.Bedrooms), intPtr(l.Beds), joinAmenities(l.Amenities),
			floatPtr(l.Price), intPtr(l.MinimumNights), intPtr(l.MaximumNights),
			intPtr(l.NumberOfReviews), floatPtr(l.ReviewScoresRating),
			boolPtr(l.InstantBookable),
		}
		if err := w.f.writeRow(row); err != nil {
			return fmt.Errorf("csv: write listing %s: %w", l.ID, err)
		}
	}
	w.f.writer.Flush()
	return w.f.writer.Error()
}

func (w *ListingWriter) Close() error { return w.f.Close() }

// ReviewWriter appends cleaned reviews to a city's artifact file.
type ReviewWriter struct{ f *cleanFile }

func NewReviewWriter(path string) (*ReviewWriter, error) {
	f, err := newCleanFile(path, reviewHeader)
	if err != nil {
		return nil, err
	}
	return &ReviewWriter{f: f}, nil
}

func (w *ReviewWriter) Append(reviews []*models.Review) error {
	for _, r := range reviews {
		row := []string{
			r.ID, r.ListingID, r.City, datePtr(r.Date),
			r.ReviewerID, strPtr(r.ReviewerName), r.Comments,
		}
		if err := w.f.writeRow(row); err != nil {
			return fmt.Errorf("csv: write review %s: %w", r.ID, err)
		}
	}
	w.f.writer.Flush()
	return w.f.writer.Error()
}

func (w *ReviewWriter) Close() error { return w.f.Close() }

// CalendarWriter appends cleaned calendar days to a city's artifact file.
type CalendarWriter struct{ f *cleanFile }

func NewCalendarWriter(path string) (*CalendarWriter, error) {
	f, err := newCleanFile(path, calendarHeader)
	if err != nil {
		return nil, err
	}
	return &CalendarWriter{f: f}, nil
}

func (w *CalendarWriter) Append(days []*models.CalendarDay) error {
	for _, d := range days {
		row := []string{
			d.ListingID, d.City, d.Date.Format(config.DateFormat),
			boolPtr(d.Available), floatPtr(d.Price),
			intPtr(d.MinimumNights), intPtr(d.MaximumNights),
		}
		if err := w.f.writeRow(row); err != nil {
			return fmt.Errorf("csv: write calendar row %s/%s: %w",
				d.ListingID, d.Date.Format(config.DateFormat), err)
		}
	}
	w.f.writer.Flush()
	return w.f.writer.Error()
}

func (w *CalendarWriter) Close() error { return w.f.Close() }

// Serialization of optional values: nil becomes the empty cell.

func strPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func boolPtr(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func datePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(config.DateFormat)
}

func joinAmenities(amenities []string) string {
	if len(amenities) == 0 {
		return "[]"
	}
	quoted := make([]string, len(amenities))
	for i, a := range amenities {
		quoted[i] = `"` + a + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Deserialization of cleaned rows back into typed records, used by the
// store loader. Cleaned files are machine-written, so parsing is
// strict-format but still degrades to nil on damage.

func parseStrCell(row Row, col string) *string {
	if v, ok := row[col]; ok && v != "" {
		return &v
	}
	return nil
}

func parseFloatCell(row Row, col string) *float64 {
	v, ok := row[col]
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntCell(row Row, col string) *int {
	v, ok := row[col]
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func parseBoolCell(row Row, col string) *bool {
	v, ok := row[col]
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func parseDateCell(row Row, col string) *time.Time {
	v, ok := row[col]
	if !ok || v == "" {
		return nil
	}
	t, err := time.Parse(config.DateFormat, v)
	if err != nil {
		return nil
	}
	return &t
}

func parseAmenitiesCell(row Row, col string) []string {
	raw := strings.Trim(strings.TrimSpace(row[col]), "[]")
	if raw == "" {
		return []string{}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if a := strings.Trim(part, ` "`); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// ReadCleanedListings streams a cleaned listings artifact back as typed
// records in batches, for consumers other than the document store
// (the relational export).
func ReadCleanedListings(path string, batchSize int, fn func([]*models.Listing) error) error {
	return ReadChunks(path, batchSize, func(chunk []Row) error {
		listings := make([]*models.Listing, 0, len(chunk))
		for _, row := range chunk {
			listings = append(listings, listingFromRow(row))
		}
		return fn(listings)
	})
}

func listingFromRow(row Row) *models.Listing {
	return &models.Listing{
		ID:                 row["id"],
		City:               row["city"],
		Name:               parseStrCell(row, "name"),
		Description:        parseStrCell(row, "description"),
		HostID:             row["host_id"],
		HostName:           parseStrCell(row, "host_name"),
		HostSince:          parseDateCell(row, "host_since"),
		HostResponseRate:   parseFloatCell(row, "host_response_rate"),
		HostIsSuperhost:    parseBoolCell(row, "host_is_superhost"),
		Neighbourhood:      parseStrCell(row, "neighbourhood"),
		Latitude:           parseFloatCell(row, "latitude"),
		Longitude:          parseFloatCell(row, "longitude"),
		RoomType:           parseStrCell(row, "room_type"),
		Accommodates:       parseIntCell(row, "accommodates"),
		Bathrooms:          parseFloatCell(row, "bathrooms"),
		Bedrooms:           parseIntCell(row, "bedrooms"),
		Beds:               parseIntCell(row, "beds"),
		Amenities:          parseAmenitiesCell(row, "amenities"),
		Price:              parseFloatCell(row, "price"),
		MinimumNights:      parseIntCell(row, "minimum_nights"),
		MaximumNights:      parseIntCell(row, "maximum_nights"),
		NumberOfReviews:    parseIntCell(row, "number_of_reviews"),
		ReviewScoresRating: parseFloatCell(row, "review_scores_rating"),
		InstantBookable:    parseBoolCell(row, "instant_bookable"),
	}
}

func reviewFromRow(row Row) *models.Review {
	return &models.Review{
		ID:           row["id"],
		ListingID:    row["listing_id"],
		City:         row["city"],
		Date:         parseDateCell(row, "date"),
		ReviewerID:   row["reviewer_id"],
		ReviewerName: parseStrCell(row, "reviewer_name"),
		Comments:     row["comments"],
	}
}

func calendarFromRow(row Row) *models.CalendarDay {
	date := parseDateCell(row, "date")
	if date == nil {
		return nil
	}
	return &models.CalendarDay{
		ListingID:     row["listing_id"],
		City:          row["city"],
		Date:          *date,
		Available:     parseBoolCell(row, "available"),
		Price:         parseFloatCell(row, "price"),
		MinimumNights: parseIntCell(row, "minimum_nights"),
		MaximumNights: parseIntCell(row, "maximum_nights"),
	}
}
