package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"innsight/models"
)

// PostgresWriter exports cleaned listings to PostgreSQL for BI tools
// that prefer a relational view over the document store.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, runs schema migrations and
// returns a ready writer.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			city            VARCHAR(50)   NOT NULL,
			id              VARCHAR(50)   NOT NULL,
			name            TEXT,
			neighbourhood   TEXT,
			room_type       TEXT,
			accommodates    INTEGER,
			price           NUMERIC(10,2),
			minimum_nights  INTEGER,
			number_of_reviews INTEGER,
			rating          NUMERIC(5,2),
			PRIMARY KEY (city, id)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price         ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_neighbourhood ON listings(neighbourhood);
		CREATE INDEX IF NOT EXISTS idx_listings_room_type     ON listings(room_type);
	`)
	return err
}

// Export upserts cleaned listings in batches, keyed by (city, id) so a
// re-run replaces rather than duplicates.
func (pw *PostgresWriter) Export(listings []*models.Listing) error {
	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.upsertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(batch []*models.Listing) error {
	const cols = 10
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.City, l.ID, l.Name, l.Neighbourhood, l.RoomType,
			l.Accommodates, l.Price, l.MinimumNights,
			l.NumberOfReviews, l.ReviewScoresRating)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (city, id, name, neighbourhood, room_type,
			accommodates, price, minimum_nights, number_of_reviews, rating)
		VALUES %s
		ON CONFLICT (city, id) DO UPDATE SET
			name = EXCLUDED.name,
			neighbourhood = EXCLUDED.neighbourhood,
			room_type = EXCLUDED.room_type,
			accommodates = EXCLUDED.accommodates,
			price = EXCLUDED.price,
			minimum_nights = EXCLUDED.minimum_nights,
			number_of_reviews = EXCLUDED.number_of_reviews,
			rating = EXCLUDED.rating
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert batch: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
