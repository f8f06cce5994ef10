package confs

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"sprinklex-server/entities"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ESP_URL", "DISCOVERY_URLS", "CORS_ORIGINS", "JWT_SECRET", "LOG_FILE",
		"DEVICE_TIMEOUT_MS", "PROXY_TIMEOUT_MS", "REFRESH_INTERVAL", "SENSOR_INTERVAL",
		"FLUSH_INTERVAL", "TOKEN_TTL", "CONFIG_FILE",
		"DB_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "3001" {
		t.Errorf("expected port 3001, got %s", cfg.Port)
	}
	if cfg.ESPURL != "http://192.168.4.1" {
		t.Errorf("unexpected ESP url %s", cfg.ESPURL)
	}
	if want := []string{"http://192.168.4.1", "http://sprinklex.local"}; !reflect.DeepEqual(cfg.DiscoveryURLs, want) {
		t.Errorf("expected %v, got %v", want, cfg.DiscoveryURLs)
	}
	if cfg.DeviceTimeout != 3*time.Second || cfg.ProxyTimeout != 5*time.Second {
		t.Errorf("unexpected timeouts %s / %s", cfg.DeviceTimeout, cfg.ProxyTimeout)
	}
	if cfg.RefreshInterval != 30*time.Second || cfg.SensorInterval != 2*time.Second || cfg.FlushInterval != 5*time.Minute {
		t.Errorf("unexpected intervals %+v", cfg)
	}
	if cfg.DSN != "" {
		t.Errorf("expected no database, got %q", cfg.DSN)
	}
	if len(cfg.JWTSecret) != 64 {
		t.Errorf("expected a generated secret, got %q", cfg.JWTSecret)
	}
	if !reflect.DeepEqual(cfg.WaterSources, entities.DefaultWaterSources()) {
		t.Errorf("expected default water sources")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ESP_URL", "http://10.0.0.9/")
	t.Setenv("DISCOVERY_URLS", " http://a , ,http://b")
	t.Setenv("PROXY_TIMEOUT_MS", "250")
	t.Setenv("SENSOR_INTERVAL", "500ms")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.ESPURL != "http://10.0.0.9" || cfg.JWTSecret != "s3cret" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.DiscoveryURLs, []string{"http://a", "http://b"}) {
		t.Errorf("unexpected discovery list %v", cfg.DiscoveryURLs)
	}
	if cfg.ProxyTimeout != 250*time.Millisecond || cfg.SensorInterval != 500*time.Millisecond {
		t.Errorf("unexpected durations %s %s", cfg.ProxyTimeout, cfg.SensorInterval)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	for key, value := range map[string]string{
		"DEVICE_TIMEOUT_MS": "soon",
		"PROXY_TIMEOUT_MS":  "-5",
		"REFRESH_INTERVAL":  "30",
		"DB_HOST":           "db.example.com",
	} {
		clearEnv(t)
		t.Setenv(key, value)
		if _, err := FromEnv(); err == nil {
			t.Errorf("expected an error for %s=%s", key, value)
		}
	}
}

func TestDatabaseDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_URL", "postgres://u:p@host/db")
	dsn, err := databaseDSN()
	if err != nil {
		t.Fatal(err)
	}
	if dsn != "postgres://u:p@host/db?sslmode=require" {
		t.Errorf("unexpected dsn %s", dsn)
	}

	clearEnv(t)
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "sx")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "sprinklex")
	dsn, err = databaseDSN()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dsn, "sslmode=disable") || !strings.Contains(dsn, "dbname=sprinklex") {
		t.Errorf("unexpected dsn %s", dsn)
	}
}

func TestConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "sprinklex.yaml")
	content := `waterSources:
  - id: tank
    name: Overhead Tank
    servoPosition: 45
    description: Roof tank
  - id: canal
    name: Canal Water
    servoPosition: 135
discoveryUrls:
  - http://10.1.1.1
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.WaterSources) != 2 || cfg.WaterSources[0].ID != "tank" || cfg.WaterSources[1].ServoPosition != 135 {
		t.Errorf("unexpected water sources %+v", cfg.WaterSources)
	}
	if !reflect.DeepEqual(cfg.DiscoveryURLs, []string{"http://10.1.1.1"}) {
		t.Errorf("unexpected discovery urls %v", cfg.DiscoveryURLs)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("waterSources:\n  - id: a\n    name: A\n    servoPosition: 270\n"), 0o600)
	t.Setenv("CONFIG_FILE", bad)
	if _, err := FromEnv(); err == nil {
		t.Errorf("expected servo position outside 0-180 to be rejected")
	}

	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	if _, err := FromEnv(); err == nil {
		t.Errorf("expected a missing config file to be an error")
	}
}
