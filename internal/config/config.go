package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// EnvPrefix префикс переменных окружения, переопределяющих значения из файла
// Например: RESERVATION_DATABASE_HOST, RESERVATION_SERVER_HTTP_PORT
const EnvPrefix = "RESERVATION"

var (
	// ErrReadConfig возвращается при ошибке чтения файла конфигурации
	ErrReadConfig = errors.New("config: failed to read config file")

	// ErrEnvOverride возвращается при ошибке разбора переменных окружения
	ErrEnvOverride = errors.New("config: failed to apply env overrides")

	// ErrInvalidConfig возвращается при некорректных значениях
	ErrInvalidConfig = errors.New("config: invalid config")
)

// Config конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Redis         RedisConfig         `toml:"redis"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Reference     ReferenceConfig     `toml:"reference"`
	Expiration    ExpirationConfig    `toml:"expiration"`
	Notifications NotificationsConfig `toml:"notifications"`
	Scheduler     SchedulerConfig     `toml:"scheduler"`
	// Resources справочник ресурсов для database.driver = "memory"
	Resources []ResourceConfig `toml:"resources" ignored:"true"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port" split_words:"true"`
	ReadTimeout     int `toml:"read_timeout" split_words:"true"`
	WriteTimeout    int `toml:"write_timeout" split_words:"true"`
	IdleTimeout     int `toml:"idle_timeout" split_words:"true"`
	ShutdownTimeout int `toml:"shutdown_timeout" split_words:"true"`
}

// DatabaseConfig настройки БД
// Driver: "postgres" или "memory" (in-process хранилище для локального запуска)
type DatabaseConfig struct {
	Driver          string `toml:"driver" split_words:"true"`
	Host            string `toml:"host" split_words:"true"`
	Port            int    `toml:"port" split_words:"true"`
	User            string `toml:"user" split_words:"true"`
	Password        string `toml:"password" split_words:"true"`
	DBName          string `toml:"dbname" split_words:"true"`
	SSLMode         string `toml:"sslmode" split_words:"true"`
	MaxOpenConns    int    `toml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `toml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" split_words:"true"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `toml:"addr" split_words:"true"`
	Password string `toml:"password" split_words:"true"`
	DB       int    `toml:"db" split_words:"true"`
}

type LogsConfig struct {
	File  string `toml:"file" split_words:"true"`
	Level string `toml:"level" split_words:"true"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" split_words:"true"`
	Path        string `toml:"path" split_words:"true"`
	ServiceName string `toml:"service_name" split_words:"true"`
}

// ReferenceConfig настройки выдачи номеров брони
// Store: "postgres", "redis" или "memory"
type ReferenceConfig struct {
	Store    string `toml:"store" split_words:"true"`
	Timezone string `toml:"timezone" split_words:"true"`
}

// Location часовой пояс, по которому определяется календарный день счетчика
func (c ReferenceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type ExpirationConfig struct {
	Enabled bool `toml:"enabled" split_words:"true"`
	// Interval период фонового прохода в секундах
	Interval int `toml:"interval" split_words:"true"`
	// BatchSize сколько pending бронирований обрабатывается за один проход
	BatchSize int `toml:"batch_size" split_words:"true"`
	// LockTTL время жизни распределенной блокировки в секундах
	LockTTL int `toml:"lock_ttl" split_words:"true"`
}

// NotificationsConfig настройки публикации уведомлений
// Transport: "amqp" или "gochannel"
type NotificationsConfig struct {
	Enabled   bool   `toml:"enabled" split_words:"true"`
	Transport string `toml:"transport" split_words:"true"`
	AMQPURL   string `toml:"amqp_url" split_words:"true"`
	Topic     string `toml:"topic" split_words:"true"`
}

type SchedulerConfig struct {
	Enabled     bool   `toml:"enabled" split_words:"true"`
	Concurrency int    `toml:"concurrency" split_words:"true"`
	Queue       string `toml:"queue" split_words:"true"`
	MonitorPath string `toml:"monitor_path" split_words:"true"`
}

// ResourceConfig ресурс, загружаемый в in-process хранилище при старте
type ResourceConfig struct {
	Kind          string `toml:"kind"`
	ID            int64  `toml:"id"`
	ParentID      *int64 `toml:"parent_id"`
	Name          string `toml:"name"`
	GuestCapacity int    `toml:"guest_capacity"`
	UnitCapacity  int    `toml:"unit_capacity"`
	Maintenance   bool   `toml:"maintenance"`
}

// Load читает конфигурацию из TOML файла и применяет переопределения из окружения
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvOverride, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "reservations",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "reservation-service",
		},
		Reference: ReferenceConfig{
			Store:    "postgres",
			Timezone: "UTC",
		},
		Expiration: ExpirationConfig{
			Enabled:   true,
			Interval:  60,
			BatchSize: 200,
			LockTTL:   30,
		},
		Notifications: NotificationsConfig{
			Enabled:   true,
			Transport: "gochannel",
			Topic:     "reservation.notifications",
		},
		Scheduler: SchedulerConfig{
			Enabled:     false,
			Concurrency: 5,
			Queue:       "reservations",
			MonitorPath: "/monitoring",
		},
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("%w: database.driver=%q", ErrInvalidConfig, c.Database.Driver)
	}

	switch c.Reference.Store {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("%w: reference.store=%q", ErrInvalidConfig, c.Reference.Store)
	}

	if c.Reference.Store == "postgres" && c.Database.Driver != "postgres" {
		return fmt.Errorf("%w: reference.store=postgres requires database.driver=postgres", ErrInvalidConfig)
	}

	switch c.Notifications.Transport {
	case "amqp", "gochannel":
	default:
		return fmt.Errorf("%w: notifications.transport=%q", ErrInvalidConfig, c.Notifications.Transport)
	}

	if c.Notifications.Transport == "amqp" && c.Notifications.AMQPURL == "" {
		return fmt.Errorf("%w: notifications.amqp_url is required for amqp transport", ErrInvalidConfig)
	}

	if c.Expiration.Interval <= 0 {
		return fmt.Errorf("%w: expiration.interval must be positive", ErrInvalidConfig)
	}

	for i, r := range c.Resources {
		if _, ok := domain.ParseReservationKind(r.Kind); !ok || r.ID <= 0 {
			return fmt.Errorf("%w: resources[%d]: kind=%q id=%d", ErrInvalidConfig, i, r.Kind, r.ID)
		}
	}

	if _, err := c.Reference.Location(); err != nil {
		return fmt.Errorf("%w: reference.timezone: %v", ErrInvalidConfig, err)
	}

	return nil
}
