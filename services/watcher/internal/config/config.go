package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/ini/v2"
	"github.com/joho/godotenv"
)

const (
	defaultDatabaseName   = "solar"
	defaultMaxConns       = 1
	defaultInterval       = 5 * time.Minute
	defaultRequestTimeout = 30 * time.Second
	defaultChartDays      = 5
	defaultPricePerKWh    = 41.37
	defaultChartWidth     = 1280
	defaultChartHeight    = 1024
	defaultPort           = 8080
)

// DefaultFiles are the INI files looked up when no explicit path is given.
var DefaultFiles = []string{"/etc/solar-watcher.ini", "solar-watcher.ini"}

// Config holds runtime configuration for the watcher service.
type Config struct {
	DatabaseURL string
	MaxConns    int32

	SolarHost      string
	SolarUser      string
	SolarPassword  string
	RequestTimeout time.Duration

	Interval         time.Duration
	ChartDays        int
	PricePerKWhCents float64
	ChartWidth       int
	ChartHeight      int

	Port     int
	LogLevel string
	LogDir   string
}

// source resolves a key from the environment first, then the INI file.
type source struct {
	file *ini.Ini
}

func (s source) get(env, key string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file.String(key))
}

// Load reads configuration from INI files, .env and environment variables;
// environment variables take precedence. iniPath overrides DefaultFiles.
func Load(iniPath string) (Config, error) {
	_ = godotenv.Load(".env")

	file := ini.New()
	if iniPath != "" {
		if err := file.LoadFiles(iniPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", iniPath, err)
		}
	} else if err := file.LoadExists(DefaultFiles...); err != nil {
		return Config{}, fmt.Errorf("load config files: %w", err)
	}
	src := source{file: file}

	cfg := Config{}
	var err error

	cfg.DatabaseURL, err = databaseURL(src)
	if err != nil {
		return cfg, err
	}

	cfg.MaxConns = defaultMaxConns
	if v := src.get("DB_MAX_CONNS", "database.max_conns"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid DB_MAX_CONNS: %s", v)
		}
		cfg.MaxConns = int32(n)
	}

	cfg.SolarHost = src.get("SOLAR_HOST", "inverter.host")
	if cfg.SolarHost == "" {
		return cfg, errors.New("SOLAR_HOST is required")
	}
	cfg.SolarUser = src.get("SOLAR_USER", "inverter.user")
	if cfg.SolarUser == "" {
		return cfg, errors.New("SOLAR_USER is required")
	}
	cfg.SolarPassword = src.get("SOLAR_PASSWORD", "inverter.password")
	if cfg.SolarPassword == "" {
		return cfg, errors.New("SOLAR_PASSWORD is required")
	}

	cfg.RequestTimeout = defaultRequestTimeout
	if v := src.get("SOLAR_REQUEST_TIMEOUT", "inverter.timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid SOLAR_REQUEST_TIMEOUT: %s", v)
		}
		cfg.RequestTimeout = d
	}

	cfg.Interval = defaultInterval
	if v := src.get("WATCHER_INTERVAL", "watcher.interval"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid WATCHER_INTERVAL: %w", err)
		}
		cfg.Interval = d
	}

	cfg.ChartDays = defaultChartDays
	if v := src.get("WATCHER_CHART_DAYS", "watcher.chart_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid WATCHER_CHART_DAYS: %s", v)
		}
		cfg.ChartDays = n
	}

	cfg.PricePerKWhCents = defaultPricePerKWh
	if v := src.get("PRICE_PER_KWH_CENTS", "watcher.price_per_kwh_cents"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return cfg, fmt.Errorf("invalid PRICE_PER_KWH_CENTS: %s", v)
		}
		cfg.PricePerKWhCents = f
	}

	cfg.ChartWidth, err = positiveInt(src, "CHART_WIDTH", "chart.width", defaultChartWidth)
	if err != nil {
		return cfg, err
	}
	cfg.ChartHeight, err = positiveInt(src, "CHART_HEIGHT", "chart.height", defaultChartHeight)
	if err != nil {
		return cfg, err
	}
	cfg.Port, err = positiveInt(src, "PORT", "http.port", defaultPort)
	if err != nil {
		return cfg, err
	}

	cfg.LogLevel = src.get("LOG_LEVEL", "log.level")
	cfg.LogDir = src.get("LOG_DIR", "log.dir")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func databaseURL(src source) (string, error) {
	if dsn := src.get("DATABASE_URL", "database.url"); dsn != "" {
		return dsn, nil
	}

	host := src.get("DB_HOST", "database.host")
	if host == "" {
		return "", errors.New("DATABASE_URL or DB_HOST is required")
	}
	name := src.get("DB_NAME", "database.name")
	if name == "" {
		name = defaultDatabaseName
	}

	u := url.URL{Scheme: "postgres", Host: host, Path: "/" + name}
	user := src.get("DB_USER", "database.user")
	pass := src.get("DB_PASSWORD", "database.password")
	switch {
	case user != "" && pass != "":
		u.User = url.UserPassword(user, pass)
	case user != "":
		u.User = url.User(user)
	}
	return u.String(), nil
}

// parseInterval accepts a Go duration or a bare number of minutes.
func parseInterval(v string) (time.Duration, error) {
	var d time.Duration
	if n, err := strconv.Atoi(v); err == nil {
		d = time.Duration(n) * time.Minute
	} else {
		d, err = time.ParseDuration(v)
		if err != nil {
			return 0, err
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", v)
	}
	return d, nil
}

func positiveInt(src source, env, key string, def int) (int, error) {
	v := src.get(env, key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", env, v)
	}
	return n, nil
}
