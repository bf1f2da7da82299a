package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment
type Config struct {
	Port    string
	BaseURL string

	// Warehouse
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	// AWS
	AWSRegion   string
	AWSEndpoint string
	SQSQueueURL string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Slack
	SlackBotToken      string
	SlackChannel       string
	SlackSigningSecret string

	// ML enrichment
	MLAPIEndpoint string

	// Drive
	GoogleDriveName string

	// Pipeline behaviour
	PipelineTimeoutMinutes int
	PipelineSchedule       string
	ExportRoot             string
	ExportFolderFormat     string
	SkipVPN                bool
	VPNConfigFile          string
}

// Load reads configuration from the environment, with .env as a fallback
// for local development
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		MySQLHost:     getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:     getEnv("MYSQL_PORT", "3306"),
		MySQLUser:     getEnv("MYSQL_USER", "root"),
		MySQLPassword: os.Getenv("MYSQL_PASSWORD"),
		MySQLDatabase: getEnv("MYSQL_DATABASE", "claims"),

		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint: os.Getenv("AWS_ENDPOINT"),
		SQSQueueURL: getEnv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/pipeline-run-queue"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:       getEnv("SLACK_CHANNEL", "#claims-pipeline"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),

		MLAPIEndpoint:   os.Getenv("ML_API_ENDPOINT"),
		GoogleDriveName: os.Getenv("GOOGLE_DRIVE_NAME"),

		PipelineSchedule:   os.Getenv("PIPELINE_SCHEDULE"),
		ExportRoot:         getEnv("EXPORT_ROOT", "exports"),
		ExportFolderFormat: getEnv("EXPORT_FOLDER_FORMAT", "2006-01-02_15-04-05"),
		VPNConfigFile:      os.Getenv("VPN_CONFIG_FILE"),
	}

	var err error
	cfg.RedisDB, err = getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.PipelineTimeoutMinutes, err = getEnvInt("PIPELINE_TIMEOUT_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.SkipVPN, err = getEnvBool("SKIP_VPN", false)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// MySQLDSN builds the warehouse connection string
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}

// WebhookURL is the callback address handed to the ML service
func (c *Config) WebhookURL() string {
	return c.BaseURL + "/api/v1/pipeline/ml-webhook"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return b, nil
}
