package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionSecret   string
	SessionDuration time.Duration
	Debug           bool

	// Feeds
	SpreadsheetID   string
	SheetsAPIKey    string
	CredentialsFile string
	SheetsEndpoint  string
	LearnersRange   string
	SkillsRange     string
	ProgressRange   string
	VideosRange     string
	RefreshInterval time.Duration

	// Remote write
	PublishURL     string
	PortalName     string
	PublishTimeout time.Duration

	// Course content
	CatalogPath           string
	TranscriptURLTemplate string

	// Tutor
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string

	// Completion email
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./learnerportal.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionDuration: getDuration("SESSION_DURATION", 30*24*time.Hour),
		Debug:           getBool("DEBUG", false),

		SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
		SheetsAPIKey:    getEnv("SHEETS_API_KEY", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		SheetsEndpoint:  getEnv("SHEETS_ENDPOINT", ""),
		LearnersRange:   getEnv("LEARNERS_RANGE", "Usuarios2"),
		SkillsRange:     getEnv("SKILLS_RANGE", "Habilidades2"),
		ProgressRange:   getEnv("PROGRESS_RANGE", "Progreso2"),
		VideosRange:     getEnv("VIDEOS_RANGE", "Videos2"),
		RefreshInterval: getDuration("REFRESH_INTERVAL", 0),

		PublishURL:     getEnv("PUBLISH_URL", ""),
		PortalName:     getEnv("PORTAL_NAME", "simpledata"),
		PublishTimeout: getDuration("PUBLISH_TIMEOUT", 10*time.Second),

		CatalogPath:           getEnv("CATALOG_PATH", ""),
		TranscriptURLTemplate: getEnv("TRANSCRIPT_URL_TEMPLATE", ""),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiEndpoint: getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "SimpleData"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
	}
}

// FeedsConfigured reports whether a spreadsheet source is set up.
func (c *Config) FeedsConfigured() bool {
	return c.SpreadsheetID != "" && (c.SheetsAPIKey != "" || c.CredentialsFile != "")
}

// EmailConfigured reports whether completion emails can be sent.
func (c *Config) EmailConfigured() bool {
	return c.SESFromEmail != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
