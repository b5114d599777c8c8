package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/VP171097/vitality/models"
)

// Config carries everything read from the environment at startup.
type Config struct {
	Addr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// DocStore selects the document-store backend: "postgres" (default)
	// or "memory" for local development without a database.
	DocStore string

	JWTSecret string

	GeminiAPIKey string
	GeminiModel  string

	AWSRegion string
	SESSender string

	// GoogleFitToken is optional; steps degrade to an estimate without it.
	GoogleFitToken string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file, using process environment")
	}

	cfg := Config{
		Addr:           getenv("ADDR", ":8080"),
		DBHost:         os.Getenv("DB_HOST"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		DBPort:         getenv("DB_PORT", "5432"),
		DocStore:       getenv("DOC_STORE", "postgres"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		AWSRegion:      os.Getenv("AWS_REGION"),
		SESSender:      os.Getenv("SES_EMAIL"),
		GoogleFitToken: os.Getenv("GOOGLE_FIT_TOKEN"),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// OpenDB connects to Postgres and migrates the schema.
func OpenDB(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserDocument{},
		&models.Alert{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}
