package utils

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// Listeners
	HTTPAddr     string `yaml:"HTTP_ADDR"`
	RealtimeAddr string `yaml:"REALTIME_ADDR"`

	// JWT
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	AppURL           string `yaml:"APP_URL"`
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// Extraction and recipe models
	ExtractionProvider string `yaml:"EXTRACTION_PROVIDER"`
	GeminiAPIKey       string `yaml:"GEMINI_API_KEY"`
	GeminiModel        string `yaml:"GEMINI_MODEL"`
	OpenAIAPIKey       string `yaml:"OPENAI_API_KEY"`
	OpenAIModel        string `yaml:"OPENAI_MODEL"`

	// Receipt, invite and recipe limits
	ReceiptMaxWidth    string `yaml:"RECEIPT_MAX_WIDTH"`
	ReceiptJPEGQuality string `yaml:"RECEIPT_JPEG_QUALITY"`
	InviteCodeTTL      string `yaml:"INVITE_CODE_TTL"`
	RecipeDailyLimit   string `yaml:"RECIPE_DAILY_LIMIT"`
}

var (
	config     Config
	configOnce sync.Once
)

var defaults = map[string]string{
	"DB_PORT":              "5432",
	"HTTP_ADDR":            ":8080",
	"REALTIME_ADDR":        ":8081",
	"EXTRACTION_PROVIDER":  "gemini",
	"GEMINI_MODEL":         "gemini-1.5-flash",
	"OPENAI_MODEL":         "gpt-4o-mini",
	"RECEIPT_MAX_WIDTH":    "1024",
	"RECEIPT_JPEG_QUALITY": "70",
	"INVITE_CODE_TTL":      "24h",
	"RECIPE_DAILY_LIMIT":   "2",
	"SMTP_PORT":            "587",
}

// LoadConfig reads config.yaml (or the file named by NOMOREWASTE_CONFIG) once. A missing
// file is not fatal: environment variables and defaults still apply.
func LoadConfig() {
	configOnce.Do(func() {
		path := os.Getenv("NOMOREWASTE_CONFIG")
		if path == "" {
			path = "config.yaml"
		}
		file, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error reading YAML file: %s\n", err)
			return
		}

		err = yaml.Unmarshal(file, &config)
		if err != nil {
			log.Printf("Error parsing YAML file: %s\n", err)
			return
		}
	})
}

// GetConfig resolves key from the environment, then the YAML file, then the built-in default.
func GetConfig(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v := fromFile(key); v != "" {
		return v
	}
	return defaults[key]
}

func GetConfigInt(key string) int {
	v, err := strconv.Atoi(GetConfig(key))
	if err != nil {
		d, _ := strconv.Atoi(defaults[key])
		return d
	}
	return v
}

func GetConfigDuration(key string) time.Duration {
	v, err := time.ParseDuration(GetConfig(key))
	if err != nil {
		d, _ := time.ParseDuration(defaults[key])
		return d
	}
	return v
}

func fromFile(key string) string {
	switch key {
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "HTTP_ADDR":
		return config.HTTPAddr
	case "REALTIME_ADDR":
		return config.RealtimeAddr
	case "JWT_SECRET":
		return config.JWTSecret
	case "APP_URL":
		return config.AppURL
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "EXTRACTION_PROVIDER":
		return config.ExtractionProvider
	case "GEMINI_API_KEY":
		return config.GeminiAPIKey
	case "GEMINI_MODEL":
		return config.GeminiModel
	case "OPENAI_API_KEY":
		return config.OpenAIAPIKey
	case "OPENAI_MODEL":
		return config.OpenAIModel
	case "RECEIPT_MAX_WIDTH":
		return config.ReceiptMaxWidth
	case "RECEIPT_JPEG_QUALITY":
		return config.ReceiptJPEGQuality
	case "INVITE_CODE_TTL":
		return config.InviteCodeTTL
	case "RECIPE_DAILY_LIMIT":
		return config.RecipeDailyLimit
	default:
		return ""
	}
}
