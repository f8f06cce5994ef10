package confs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"sprinklex-server/device"
	"sprinklex-server/entities"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is everything the proxy needs at startup.
type Config struct {
	Port string

	// ESPURL is where /api/esp8266/toggle is relayed.
	ESPURL        string
	DiscoveryURLs []string
	DeviceTimeout time.Duration
	ProxyTimeout  time.Duration

	RefreshInterval time.Duration
	SensorInterval  time.Duration
	FlushInterval   time.Duration
	CalibratePause  time.Duration

	CORSOrigins []string
	JWTSecret   string
	TokenTTL    time.Duration
	LogFile     string

	// DSN is empty when no database is configured.
	DSN string

	WaterSources []entities.WaterSource
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
type fileConfig struct {
	WaterSources  []entities.WaterSource `yaml:"waterSources"`
	DiscoveryURLs []string               `yaml:"discoveryUrls"`
	CORSOrigins   []string               `yaml:"corsOrigins"`
}

var defaultCORSOrigins = []string{"http://localhost:5000", "https://*.replit.dev", "https://*.replit.co"}

// LoadConfig loads a .env file if present, then reads the environment and
// the optional CONFIG_FILE overlay.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT", "3001"),
		ESPURL:          strings.TrimRight(getenv("ESP_URL", "http://192.168.4.1"), "/"),
		DiscoveryURLs:   splitList(getenv("DISCOVERY_URLS", strings.Join(device.DefaultCandidates, ","))),
		CORSOrigins:     splitList(getenv("CORS_ORIGINS", strings.Join(defaultCORSOrigins, ","))),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogFile:         os.Getenv("LOG_FILE"),
		WaterSources:    entities.DefaultWaterSources(),
		CalibratePause:  time.Second,
		TokenTTL:        24 * time.Hour,
		RefreshInterval: 30 * time.Second,
		SensorInterval:  2 * time.Second,
		FlushInterval:   5 * time.Minute,
	}

	var err error
	if cfg.DeviceTimeout, err = envMillis("DEVICE_TIMEOUT_MS", 3000); err != nil {
		return nil, err
	}
	if cfg.ProxyTimeout, err = envMillis("PROXY_TIMEOUT_MS", 5000); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*time.Duration{
		"REFRESH_INTERVAL": &cfg.RefreshInterval,
		"SENSOR_INTERVAL":  &cfg.SensorInterval,
		"FLUSH_INTERVAL":   &cfg.FlushInterval,
		"TOKEN_TTL":        &cfg.TokenTTL,
	} {
		if err := envDuration(key, dst); err != nil {
			return nil, err
		}
	}

	if cfg.DSN, err = databaseDSN(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		log.Println("warning: JWT_SECRET not set, sessions will not survive a restart")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if len(fc.WaterSources) > 0 {
		if err := validateSources(fc.WaterSources); err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		c.WaterSources = fc.WaterSources
	}
	if len(fc.DiscoveryURLs) > 0 {
		c.DiscoveryURLs = fc.DiscoveryURLs
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	return nil
}

func validateSources(sources []entities.WaterSource) error {
	seen := make(map[string]bool)
	for _, s := range sources {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("water source needs both id and name")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate water source %q", s.ID)
		}
		if s.ServoPosition < 0 || s.ServoPosition > 180 {
			return fmt.Errorf("water source %q: servo position %d outside 0-180", s.ID, s.ServoPosition)
		}
		seen[s.ID] = true
	}
	return nil
}

// databaseDSN builds the postgres DSN from DB_URL or the individual DB_*
// settings. No settings at all means no database.
func databaseDSN() (string, error) {
	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		if !strings.Contains(dbURL, "sslmode=") {
			if strings.Contains(dbURL, "?") {
				dbURL += "&sslmode=require"
			} else {
				dbURL += "?sslmode=require"
			}
		}
		return dbURL, nil
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return "", nil
	}
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	if dbPort == "" || dbUser == "" || dbPassword == "" || dbName == "" {
		return "", fmt.Errorf("missing required database configuration: DB_HOST set but DB_PORT, DB_USER, DB_PASSWORD or DB_NAME empty")
	}

	sslMode := "require"
	if dbHost == "localhost" || dbHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		dbHost, dbUser, dbPassword, dbName, dbPort, sslMode), nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envMillis(key string, def int) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Millisecond, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of milliseconds, got %q", key, v)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	*dst = d
	return nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
