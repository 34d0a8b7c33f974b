package services

import (
	"sort"

	"innsight/config"
	"innsight/models"
	"innsight/nlp"
	"innsight/storage"
	"innsight/utils"
)

// minCommentLength is the shortest review comment kept after cleaning.
const minCommentLength = 10

// CleanSummary is the diagnostic output of one cleaning pass. It is
// logged for the operator and carries no correctness weight.
type CleanSummary struct {
	Rows    int
	Columns int
	Missing map[string]int
}

// Cleaner transforms raw export rows into cleaned, typed records for
// one city. Field-level parse failures degrade to nil values; only
// records violating entity rules are dropped.
type Cleaner struct {
	city     string
	detector nlp.Detector
	target   string
	logger   *utils.Logger
}

// NewCleaner creates a Cleaner for a city. target is the language code
// kept by the review filter.
func NewCleaner(city string, detector nlp.Detector, target string, logger *utils.Logger) *Cleaner {
	return &Cleaner{city: city, detector: detector, target: target, logger: logger}
}

// CleanListings coerces raw listing rows and imputes null prices.
// Imputation is scoped to the rows in this batch: the mean price per
// neighbourhood fills first, the mean over all valid prices in the
// batch fills the rest. When the batch has no valid price at all,
// prices stay null and a warning is logged.
func (c *Cleaner) CleanListings(rows []storage.Row) ([]*models.Listing, *CleanSummary) {
	rows = projectColumns(rows, config.ListingColumns)
	listings := make([]*models.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, &models.Listing{
			ID:                 row["id"],
			City:               c.city,
			Name:               CleanText(row["name"], true),
			Description:        CleanText(row["description"], true),
			HostID:             row["host_id"],
			HostName:           CleanText(row["host_name"], false),
			HostSince:          ParseDate(row["host_since"]),
			HostResponseRate:   ParsePercentage(row["host_response_rate"]),
			HostIsSuperhost:    ParseBoolean(row["host_is_superhost"]),
			Neighbourhood:      CleanText(row["neighbourhood_cleansed"], false),
			Latitude:           ParseFloat(row["latitude"]),
			Longitude:          ParseFloat(row["longitude"]),
			RoomType:           CleanText(row["room_type"], false),
			Accommodates:       ParseInt(row["accommodates"]),
			Bathrooms:          ParseFloat(row["bathrooms"]),
			Bedrooms:           ParseInt(row["bedrooms"]),
			Beds:               ParseInt(row["beds"]),
			Amenities:          ParseAmenities(row["amenities"]),
			Price:              ParsePrice(row["price"]),
			MinimumNights:      ParseInt(row["minimum_nights"]),
			MaximumNights:      ParseInt(row["maximum_nights"]),
			NumberOfReviews:    ParseInt(row["number_of_reviews"]),
			ReviewScoresRating: ParseFloat(row["review_scores_rating"]),
			InstantBookable:    ParseBoolean(row["instant_bookable"]),
		})
	}

	c.imputePrices(listings)

	listings, removed := dedupeBy(listings, func(l *models.Listing) string { return l.ID })
	if removed > 0 {
		c.logger.Info("[cleaner] Removed %d duplicate listings", removed)
	}

	summary := listingSummary(listings)
	c.logSummary("listings", summary)
	return listings, summary
}

// imputePrices fills null prices from the neighbourhood mean, then the
// mean over all prices valid after that pass.
func (c *Cleaner) imputePrices(listings []*models.Listing) {
	nullCount := 0
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, l := range listings {
		if l.Price == nil {
			nullCount++
			continue
		}
		if l.Neighbourhood != nil {
			sums[*l.Neighbourhood] += *l.Price
			counts[*l.Neighbourhood]++
		}
	}
	if nullCount == 0 {
		return
	}
	c.logger.Info("[cleaner] Imputing %d null prices from neighbourhood averages", nullCount)

	for _, l := range listings {
		if l.Price != nil || l.Neighbourhood == nil {
			continue
		}
		if n := counts[*l.Neighbourhood]; n > 0 {
			mean := sums[*l.Neighbourhood] / float64(n)
			l.Price = &mean
		}
	}

	var total float64
	var valid int
	for _, l := range listings {
		if l.Price != nil {
			total += *l.Price
			valid++
		}
	}
	if valid == 0 {
		c.logger.Warn("[cleaner] No valid prices in batch; prices remain null")
		return
	}
	cityMean := total / float64(valid)
	for _, l := range listings {
		if l.Price == nil {
			mean := cityMean
			l.Price = &mean
		}
	}
}

// CleanReviews coerces raw review rows, drops comments shorter than
// minCommentLength after cleaning, and keeps only target-language
// comments. Drop counts are logged, not returned.
func (c *Cleaner) CleanReviews(rows []storage.Row) ([]*models.Review, *CleanSummary) {
	rows = projectColumns(rows, config.ReviewColumns)
	reviews := make([]*models.Review, 0, len(rows))
	tooShort := 0
	wrongLanguage := 0

	for _, row := range rows {
		comments := CleanText(row["comments"], true)
		if comments == nil || len(*comments) < minCommentLength {
			tooShort++
			continue
		}
		if !nlp.IsTargetLanguage(c.detector, *comments, c.target) {
			wrongLanguage++
			continue
		}
		reviews = append(reviews, &models.Review{
			ID:           row["id"],
			ListingID:    row["listing_id"],
			City:         c.city,
			Date:         ParseDate(row["date"]),
			ReviewerID:   row["reviewer_id"],
			ReviewerName: CleanText(row["reviewer_name"], false),
			Comments:     *comments,
		})
	}

	if tooShort > 0 || wrongLanguage > 0 {
		c.logger.Info("[cleaner] Dropped %d empty/short and %d non-%s reviews",
			tooShort, wrongLanguage, c.target)
	}

	reviews, removed := dedupeBy(reviews, func(r *models.Review) string { return r.ID })
	if removed > 0 {
		c.logger.Info("[cleaner] Removed %d duplicate reviews", removed)
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		a, b := reviews[i].Date, reviews[j].Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	summary := reviewSummary(reviews)
	c.logSummary("reviews", summary)
	return reviews, summary
}

// CleanCalendar coerces raw calendar rows; rows with unparsable dates
// are dropped.
func (c *Cleaner) CleanCalendar(rows []storage.Row) ([]*models.CalendarDay, *CleanSummary) {
	rows = projectColumns(rows, config.CalendarColumns)
	days := make([]*models.CalendarDay, 0, len(rows))
	badDates := 0

	for _, row := range rows {
		date := ParseDate(row["date"])
		if date == nil {
			badDates++
			continue
		}
		days = append(days, &models.CalendarDay{
			ListingID:     row["listing_id"],
			City:          c.city,
			Date:          *date,
			Available:     ParseBoolean(row["available"]),
			Price:         ParsePrice(row["price"]),
			MinimumNights: ParseInt(row["minimum_nights"]),
			MaximumNights: ParseInt(row["maximum_nights"]),
		})
	}

	if badDates > 0 {
		c.logger.Info("[cleaner] Dropped %d calendar rows with unparsable dates", badDates)
	}

	days, removed := dedupeBy(days, func(d *models.CalendarDay) string {
		return d.ListingID + "|" + d.Date.Format("2006-01-02")
	})
	if removed > 0 {
		c.logger.Info("[cleaner] Removed %d duplicate calendar rows", removed)
	}

	sort.SliceStable(days, func(i, j int) bool {
		if days[i].ListingID != days[j].ListingID {
			return days[i].ListingID < days[j].ListingID
		}
		return days[i].Date.Before(days[j].Date)
	})

	summary := calendarSummary(days)
	c.logSummary("calendar", summary)
	return days, summary
}

// projectColumns drops columns outside the recognized set for the
// entity. Recognized columns absent from the source stay absent; they
// are never synthesized.
func projectColumns(rows []storage.Row, cols []string) []storage.Row {
	out := make([]storage.Row, len(rows))
	for i, row := range rows {
		kept := make(storage.Row, len(cols))
		for _, col := range cols {
			if v, ok := row[col]; ok {
				kept[col] = v
			}
		}
		out[i] = kept
	}
	return out
}

func (c *Cleaner) logSummary(name string, s *CleanSummary) {
	c.logger.Info("[cleaner] %s %s: %d rows, %d columns", c.city, name, s.Rows, s.Columns)
	for col, n := range s.Missing {
		if n > 0 {
			c.logger.Info("[cleaner]   missing %s: %d (%.1f%%)",
				col, n, float64(n)/float64(s.Rows)*100)
		}
	}
}

func listingSummary(listings []*models.Listing) *CleanSummary {
	missing := make(map[string]int)
	for _, l := range listings {
		countMissing(missing, "name", l.Name == nil)
		countMissing(missing, "description", l.Description == nil)
		countMissing(missing, "host_name", l.HostName == nil)
		countMissing(missing, "host_since", l.HostSince == nil)
		countMissing(missing, "host_response_rate", l.HostResponseRate == nil)
		countMissing(missing, "host_is_superhost", l.HostIsSuperhost == nil)
		countMissing(missing, "neighbourhood", l.Neighbourhood == nil)
		countMissing(missing, "latitude", l.Latitude == nil)
		countMissing(missing, "longitude", l.Longitude == nil)
		countMissing(missing, "room_type", l.RoomType == nil)
		countMissing(missing, "accommodates", l.Accommodates == nil)
		countMissing(missing, "bathrooms", l.Bathrooms == nil)
		countMissing(missing, "bedrooms", l.Bedrooms == nil)
		countMissing(missing, "beds", l.Beds == nil)
		countMissing(missing, "price", l.Price == nil)
		countMissing(missing, "minimum_nights", l.MinimumNights == nil)
		countMissing(missing, "maximum_nights", l.MaximumNights == nil)
		countMissing(missing, "number_of_reviews", l.NumberOfReviews == nil)
		countMissing(missing, "review_scores_rating", l.ReviewScoresRating == nil)
		countMissing(missing, "instant_bookable", l.InstantBookable == nil)
	}
	// Recognized source columns plus the city tag.
	return &CleanSummary{Rows: len(listings), Columns: len(config.ListingColumns) + 1, Missing: missing}
}

func reviewSummary(reviews []*models.Review) *CleanSummary {
	missing := make(map[string]int)
	for _, r := range reviews {
		countMissing(missing, "date", r.Date == nil)
		countMissing(missing, "reviewer_name", r.ReviewerName == nil)
	}
	return &CleanSummary{Rows: len(reviews), Columns: len(config.ReviewColumns) + 1, Missing: missing}
}

func calendarSummary(days []*models.CalendarDay) *CleanSummary {
	missing := make(map[string]int)
	for _, d := range days {
		countMissing(missing, "available", d.Available == nil)
		countMissing(missing, "price", d.Price == nil)
		countMissing(missing, "minimum_nights", d.MinimumNights == nil)
		countMissing(missing, "maximum_nights", d.MaximumNights == nil)
	}
	return &CleanSummary{Rows: len(days), Columns: len(config.CalendarColumns) + 1, Missing: missing}
}

func countMissing(missing map[string]int, col string, isMissing bool) {
	if isMissing {
		missing[col]++
	}
}
