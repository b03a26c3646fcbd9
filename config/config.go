package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/airreserve/internal/telemetry"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig       `yaml:"http"`
	GRPC      GRPCConfig       `yaml:"grpc"`
	Database  DatabaseConfig   `yaml:"database"`
	Redis     RedisConfig      `yaml:"redis"`
	Kafka     KafkaConfig      `yaml:"kafka"`
	Booking   BookingConfig    `yaml:"booking"`
	Worker    WorkerConfig     `yaml:"worker"`
	Timezones TimezonesConfig  `yaml:"timezones"`
	Durations DurationsConfig  `yaml:"durations"`
	Auth      AuthConfig       `yaml:"auth"`
	Email     EmailConfig      `yaml:"email"`
	Temporal  TemporalConfig   `yaml:"temporal"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Log       LogConfig        `yaml:"log"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	Swagger bool   `yaml:"swagger"`
	// CORSOrigins enables CORS for browser clients; empty disables it.
	CORSOrigins []string `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	// Migrate applies the embedded schema on startup.
	Migrate bool `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers                []string `yaml:"brokers"`
	ReservationEventsTopic string   `yaml:"reservation_events_topic"`
	PaymentConfirmedTopic  string   `yaml:"payment_confirmed_topic"`
	GroupID                string   `yaml:"group_id"`
	NotifyGroupID          string   `yaml:"notify_group_id"`
}

type BookingConfig struct {
	FlightsCacheTTL int `yaml:"flights_cache_ttl_seconds"`
	SeatMapCacheTTL int `yaml:"seat_map_cache_ttl_seconds"`
}

func (b BookingConfig) FlightsTTL() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) SeatMapTTL() time.Duration {
	return time.Duration(b.SeatMapCacheTTL) * time.Second
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
	SweepBatchSize         int `yaml:"sweep_batch_size"`
}

type TimezonesConfig struct {
	DefaultRegion string `yaml:"default_region"`
	File          string `yaml:"file"`
}

type DurationsConfig struct {
	File string `yaml:"file"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type EmailConfig struct {
	Enabled bool   `yaml:"enabled"`
	From    string `yaml:"from"`
}

type TemporalConfig struct {
	Enabled   bool   `yaml:"enabled"`
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LoadConfig reads the YAML file at path, applies defaults and then environment
// overrides. A .env file next to the process is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080", Swagger: true},
		GRPC: GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			ReservationEventsTopic: "reservation-events",
			PaymentConfirmedTopic:  "payment-confirmed",
			GroupID:                "airreserve-worker",
			NotifyGroupID:          "airreserve-notifier",
		},
		Booking: BookingConfig{
			FlightsCacheTTL: 60,
			SeatMapCacheTTL: 30,
		},
		Worker: WorkerConfig{
			ExpirationSweepMinutes: 5,
			SweepBatchSize:         100,
		},
		Timezones: TimezonesConfig{DefaultRegion: "America/Bogota"},
		Email:     EmailConfig{From: "reservations@airreserve.local"},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "reservation-holds",
		},
		Telemetry: telemetry.Config{ServiceName: "airreserve"},
		Log:       LogConfig{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setString(&cfg.GRPC.Address, "GRPC_ADDRESS")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Temporal.HostPort, "TEMPORAL_HOST_PORT")
	setString(&cfg.Telemetry.CollectorAddr, "OTEL_COLLECTOR_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Worker.ExpirationSweepMinutes <= 0 {
		errs = append(errs, errors.New("worker.expiration_sweep_minutes must be positive"))
	}
	if c.Email.Enabled && c.Email.From == "" {
		errs = append(errs, errors.New("email.from is required when email is enabled"))
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, errors.New("temporal.task_queue is required when temporal is enabled"))
	}
	return errors.Join(errs...)
}
