package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int    `toml:"port"`
		Host        string `toml:"host"`
		Environment string `toml:"environment"`
	} `toml:"server"`
	GRPC struct {
		Port                int `toml:"port"`
		HealthCheckInterval int `toml:"health_check_interval"` // в секундах
	} `toml:"grpc"`
	Detector struct {
		BaseURL string `toml:"base_url"`
		Timeout int    `toml:"timeout"` // в секундах
	} `toml:"detector"`
	Counting struct {
		ConfidenceThreshold float64 `toml:"confidence_threshold"`
		LineRatio           float64 `toml:"line_ratio"`
		MaxIdleFrames       int     `toml:"max_idle_frames"` // 0 - объекты не удаляются
	} `toml:"counting"`
	Database struct {
		DSN             string `toml:"dsn"`
		MaxIdleConns    int    `toml:"max_idle_conns"`
		MaxOpenConns    int    `toml:"max_open_conns"`
		ConnMaxLifetime int    `toml:"conn_max_lifetime"` // в секундах
	} `toml:"database"`
	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Port = 8080
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Environment = "development"

	cfg.GRPC.Port = 9090
	cfg.GRPC.HealthCheckInterval = 15

	cfg.Detector.BaseURL = "http://localhost:8000"
	cfg.Detector.Timeout = 30

	// Значения совпадают с исходными положениями ползунков интерфейса
	cfg.Counting.ConfidenceThreshold = 0.1
	cfg.Counting.LineRatio = 0.6

	cfg.Database.DSN = "traffic_counter.db"
	cfg.Database.MaxIdleConns = 10
	cfg.Database.MaxOpenConns = 100
	cfg.Database.ConnMaxLifetime = 3600

	cfg.Logging.Level = "info"

	return cfg
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем файл TOML
// из CONFIG_FILE (если задан), затем переменные окружения
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile читает файл TOML поверх текущих значений
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv переопределяет значения из переменных окружения
func (c *Config) applyEnv() {
	// Конфигурация сервера
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)

	// Конфигурация gRPC
	c.GRPC.Port = getEnvInt("GRPC_PORT", c.GRPC.Port)
	c.GRPC.HealthCheckInterval = getEnvInt("GRPC_HEALTH_CHECK_INTERVAL_SECONDS", c.GRPC.HealthCheckInterval)

	// Конфигурация сервиса детекции
	c.Detector.BaseURL = getEnv("DETECTOR_API_BASE_URL", c.Detector.BaseURL)
	c.Detector.Timeout = getEnvInt("DETECTOR_API_TIMEOUT_SECONDS", c.Detector.Timeout)

	// Параметры подсчета
	c.Counting.ConfidenceThreshold = getEnvFloat("COUNTING_CONFIDENCE_THRESHOLD", c.Counting.ConfidenceThreshold)
	c.Counting.LineRatio = getEnvFloat("COUNTING_LINE_RATIO", c.Counting.LineRatio)
	c.Counting.MaxIdleFrames = getEnvInt("COUNTING_MAX_IDLE_FRAMES", c.Counting.MaxIdleFrames)

	// Конфигурация базы данных
	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
	c.Database.MaxIdleConns = getEnvInt("DATABASE_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.MaxOpenConns = getEnvInt("DATABASE_MAX_OPEN_CONNS", c.Database.MaxOpenConns)

	// Конфигурация логирования
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		errs = append(errs, fmt.Errorf("grpc port %d out of range", c.GRPC.Port))
	}
	if c.Detector.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("detector timeout must be positive"))
	}
	if c.Counting.ConfidenceThreshold < 0 || c.Counting.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence threshold %v not in [0,1]", c.Counting.ConfidenceThreshold))
	}
	if c.Counting.LineRatio < 0 || c.Counting.LineRatio > 1 {
		errs = append(errs, fmt.Errorf("line ratio %v not in [0,1]", c.Counting.LineRatio))
	}
	if c.Counting.MaxIdleFrames < 0 {
		errs = append(errs, fmt.Errorf("max idle frames must not be negative"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("database dsn is empty"))
	}

	return errors.Join(errs...)
}

// DetectorTimeout возвращает таймаут запросов к сервису детекции
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.Detector.Timeout) * time.Second
}

// HealthCheckInterval возвращает период опроса сервиса детекции
func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.GRPC.HealthCheckInterval) * time.Second
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float64 значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
