package config

import (
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	c := &Config{RawDataDir: "/data/raw", ProcessedDataDir: "/data/processed"}

	if got, want := c.RawPath("london", "reviews"), filepath.Join("/data/raw", "london", "reviews.csv"); got != want {
		t.Errorf("RawPath = %q; want %q", got, want)
	}
	if got, want := c.ProcessedPath("london", "reviews"), filepath.Join("/data/processed", "london_reviews_clean.csv"); got != want {
		t.Errorf("ProcessedPath = %q; want %q", got, want)
	}
}

func TestKnownCity(t *testing.T) {
	c := &Config{Cities: []string{"london", "paris"}}

	if !c.KnownCity("london") {
		t.Error("london should be known")
	}
	if c.KnownCity("London") {
		t.Error("city matching is case sensitive")
	}
	if c.KnownCity("atlantis") {
		t.Error("atlantis should be unknown")
	}
}

func TestGetEnvList(t *testing.T) {
	fallback := []string{"london"}

	t.Setenv("TEST_CITIES", "paris, amsterdam ,,berlin")
	got := getEnvList("TEST_CITIES", fallback)
	want := []string{"paris", "amsterdam", "berlin"}
	if len(got) != len(want) {
		t.Fatalf("getEnvList = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("getEnvList[%d] = %q; want %q", i, got[i], want[i])
		}
	}

	t.Setenv("TEST_CITIES", "")
	if got := getEnvList("TEST_CITIES", fallback); len(got) != 1 || got[0] != "london" {
		t.Errorf("empty env should fall back, got %v", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_N", "42")
	if got := getEnvInt("TEST_N", 7); got != 42 {
		t.Errorf("getEnvInt = %d; want 42", got)
	}
	t.Setenv("TEST_N", "not-a-number")
	if got := getEnvInt("TEST_N", 7); got != 7 {
		t.Errorf("invalid value should fall back, got %d", got)
	}
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{
		PostgresHost: "db", PostgresPort: "5432",
		PostgresUser: "u", PostgresPassword: "p",
		PostgresDB: "rental_db", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=rental_db sslmode=disable"
	if got := c.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN = %q; want %q", got, want)
	}
}
