package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		TelegramToken:        "123456:test-token",
		Port:                 "10000",
		DataDir:              "/data",
		PortalTimeout:        30 * time.Second,
		AssignmentStatusURLs: []string{"https://isms.ignou.ac.in/changeadmdata/StatusAssignment.asp"},
		GradeCardURLs:        []string{"https://gradecard.ignou.ac.in/gradecard/"},
		ItemsPerPage:         10,
		MaxMessageRunes:      4000,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	t.Parallel()
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.TelegramToken = "" }},
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"zero portal timeout", func(c *Config) { c.PortalTimeout = 0 }},
		{"no assignment URLs", func(c *Config) { c.AssignmentStatusURLs = nil }},
		{"no grade card URLs", func(c *Config) { c.GradeCardURLs = nil }},
		{"zero items per page", func(c *Config) { c.ItemsPerPage = 0 }},
		{"tiny chunk size", func(c *Config) { c.MaxMessageRunes = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.AdminChatIDs = []int64{100, 200}

	if !cfg.IsAdmin(100) {
		t.Error("Expected 100 to be admin")
	}
	if cfg.IsAdmin(300) {
		t.Error("Expected 300 not to be admin")
	}
}

func TestHasFileStore(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	if cfg.HasFileStore() {
		t.Error("Expected file store disabled with empty config")
	}

	cfg.S3Endpoint = "https://account.r2.cloudflarestorage.com"
	cfg.S3AccessKeyID = "key"
	cfg.S3SecretKey = "secret"
	cfg.S3Bucket = "files"
	if !cfg.HasFileStore() {
		t.Error("Expected file store enabled with full config")
	}
}

func TestGetSliceEnvParsing(t *testing.T) {
	t.Setenv("TEST_URLS", " https://a.example/ , https://b.example/ ,")
	got := getSliceEnv("TEST_URLS", []string{"fallback"})
	if len(got) != 2 || got[0] != "https://a.example/" || got[1] != "https://b.example/" {
		t.Errorf("Expected two trimmed URLs, got %v", got)
	}
}

func TestGetInt64SliceEnvSkipsInvalid(t *testing.T) {
	t.Setenv("TEST_ADMINS", "100,abc,200")
	got := getInt64SliceEnv("TEST_ADMINS")
	if len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Errorf("Expected [100 200], got %v", got)
	}
}

func TestSQLitePath(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	if cfg.SQLitePath() != "/data/store.db" {
		t.Errorf("Expected /data/store.db, got %s", cfg.SQLitePath())
	}
}
