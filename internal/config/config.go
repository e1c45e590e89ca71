// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitConnection        `yaml:"rabbit_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Quota                   `yaml:"quota"`
	OpenAI                  `yaml:"openai"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitConnection структура для настройки подключения к rabbitmq.
// Пустой URL отключает публикацию событий потребления.
type RabbitConnection struct {
	URL        string `yaml:"url"`
	UsageQueue string `yaml:"usage_queue"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Quota структура для настройки учёта токенов
type Quota struct {
	MaxTokensPerRequest int64   `yaml:"max_tokens_per_request" env:"MAX_TOKENS"`
	CostPerToken        float64 `yaml:"cost_per_token" env:"COST_BY_TOKEN"`
}

// OpenAI структура для настройки клиента провайдера завершений
type OpenAI struct {
	APIKey              string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model               string        `yaml:"model"`
	Temperature         float32       `yaml:"temperature"`
	MaxCompletionTokens int           `yaml:"max_completion_tokens"`
	Timeout             time.Duration `yaml:"timeout"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.yaml
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
