package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort        int
	NotificationQueue string
	Database          DatabaseConfig
	SMTP              SMTPConfig
	MQBackend         string
	RabbitMQ          RabbitMQConfig
	PubSub            PubSubConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "notable"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "notable_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	smtpConfig := SMTPConfig{
		Host:     getEnv("SMTP_HOST", "localhost"),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "Notable <no-reply@notable.app>"),
	}

	rabbitConfig := RabbitMQConfig{
		URL:             getEnv("RABBITMQ_URL", ""),
		PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 8),
		QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
		QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
	}

	pubsubConfig := PubSubConfig{
		ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
		CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
	}

	return Config{
		ServerPort:        getEnvInt("SERVER_PORT", 8080),
		NotificationQueue: getEnv("NOTIFICATION_QUEUE", "notifications"),
		Database:          dbConfig,
		SMTP:              smtpConfig,
		MQBackend:         getEnv("MQ_BACKEND", ""),
		RabbitMQ:          rabbitConfig,
		PubSub:            pubsubConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(valueStr)
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
