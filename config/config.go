package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Column sets retained from the Inside Airbnb exports, per entity type.
// Columns missing from a source file are simply omitted, never synthesized.
var (
	ListingColumns = []string{
		"id", "name", "description",
		"host_id", "host_name", "host_since",
		"host_response_rate", "host_is_superhost",
		"neighbourhood_cleansed", "latitude", "longitude",
		"room_type", "accommodates", "bathrooms",
		"bedrooms", "beds", "amenities", "price",
		"minimum_nights", "maximum_nights",
		"number_of_reviews", "review_scores_rating",
		"instant_bookable",
	}

	ReviewColumns = []string{
		"listing_id", "id", "date",
		"reviewer_id", "reviewer_name", "comments",
	}

	CalendarColumns = []string{
		"listing_id", "date", "available",
		"price", "minimum_nights", "maximum_nights",
	}
)

// DateFormat is the layout of all dates in the exports.
const DateFormat = "2006-01-02"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Cities []string

	RawDataDir       string
	ProcessedDataDir string

	ChunkSize         int
	ListingBatchSize  int
	ReviewBatchSize   int
	CalendarBatchSize int
	SentimentBatch    int

	TargetLanguage string

	MongoURI string
	MongoDB  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	APIAddr string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Cities: getEnvList("CITIES", []string{"london", "paris", "amsterdam"}),

		RawDataDir:       getEnv("RAW_DATA_DIR", "./data/raw"),
		ProcessedDataDir: getEnv("PROCESSED_DATA_DIR", "./data/processed"),

		ChunkSize:         getEnvInt("CHUNK_SIZE", 10000),
		ListingBatchSize:  getEnvInt("LISTING_BATCH_SIZE", 1000),
		ReviewBatchSize:   getEnvInt("REVIEW_BATCH_SIZE", 5000),
		CalendarBatchSize: getEnvInt("CALENDAR_BATCH_SIZE", 5000),
		SentimentBatch:    getEnvInt("SENTIMENT_BATCH_SIZE", 1000),

		TargetLanguage: getEnv("TARGET_LANGUAGE", "en"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "innsight_db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "innsight"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "innsight123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		APIAddr: getEnv("API_ADDR", ":8080"),
	}
}

// RawPath returns the path of a raw export file for a city
// (entity is "listings", "reviews" or "calendar").
func (c *Config) RawPath(city, entity string) string {
	return filepath.Join(c.RawDataDir, city, entity+".csv")
}

// ProcessedPath returns the path of a cleaned artifact for a city.
func (c *Config) ProcessedPath(city, entity string) string {
	return filepath.Join(c.ProcessedDataDir, city+"_"+entity+"_clean.csv")
}

// PostgresDSN returns the PostgreSQL connection string for the export command.
func (c *Config) PostgresDSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// KnownCity reports whether city is one of the configured cities.
func (c *Config) KnownCity(city string) bool {
	for _, known := range c.Cities {
		if known == city {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
