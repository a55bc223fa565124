package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the sync service. Values come
// from an optional YAML file overridden by SALON_* environment variables.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	DefaultTenant      string
	GoogleClientID     string
	GoogleClientSecret string
	// TokenCipherKey encrypts OAuth tokens at rest. Empty disables
	// encryption and stores tokens as plaintext.
	TokenCipherKey []byte
	// ShiftSyncCron schedules the periodic roster shift sync. Empty disables
	// the job.
	ShiftSyncCron string
}

// fileConfig mirrors Config for the optional YAML file.
type fileConfig struct {
	HTTPPort           int    `yaml:"http_port"`
	SQLiteDSN          string `yaml:"sqlite_dsn"`
	DefaultTenant      string `yaml:"default_tenant"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	TokenCipherKey     string `yaml:"token_cipher_key"`
	ShiftSyncCron      string `yaml:"shift_sync_cron"`
}

// Load resolves configuration from the YAML file named by SALON_CONFIG_FILE
// (when set) and the process environment, with the environment taking
// precedence. Malformed values are accumulated and reported with localized
// error messages. The Google client credentials are optional at startup;
// when absent, every credential use fails with a per-request configuration
// error instead.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:salonsync.db",
		DefaultTenant: "default",
	}

	invalid := make([]string, 0, 2)

	var cipherHex string

	if path := strings.TrimSpace(os.Getenv("SALON_CONFIG_FILE")); path != "" {
		file, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		if file.HTTPPort > 0 {
			cfg.HTTPPort = file.HTTPPort
		}
		if file.SQLiteDSN != "" {
			cfg.SQLiteDSN = file.SQLiteDSN
		}
		if file.DefaultTenant != "" {
			cfg.DefaultTenant = file.DefaultTenant
		}
		cfg.GoogleClientID = file.GoogleClientID
		cfg.GoogleClientSecret = file.GoogleClientSecret
		cfg.ShiftSyncCron = file.ShiftSyncCron
		cipherHex = file.TokenCipherKey
	}

	if portValue := strings.TrimSpace(os.Getenv("SALON_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SALON_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SALON_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tenant := strings.TrimSpace(os.Getenv("SALON_DEFAULT_TENANT")); tenant != "" {
		cfg.DefaultTenant = tenant
	}

	if id := strings.TrimSpace(os.Getenv("SALON_GOOGLE_CLIENT_ID")); id != "" {
		cfg.GoogleClientID = id
	}
	if secret := strings.TrimSpace(os.Getenv("SALON_GOOGLE_CLIENT_SECRET")); secret != "" {
		cfg.GoogleClientSecret = secret
	}

	if keyValue := strings.TrimSpace(os.Getenv("SALON_TOKEN_CIPHER_KEY")); keyValue != "" {
		cipherHex = keyValue
	}
	if cipherHex != "" {
		key, err := hex.DecodeString(cipherHex)
		if err != nil || len(key) != 32 {
			invalid = append(invalid, "SALON_TOKEN_CIPHER_KEY")
		} else {
			cfg.TokenCipherKey = key
		}
	}

	if cron := strings.TrimSpace(os.Getenv("SALON_SHIFT_SYNC_CRON")); cron != "" {
		cfg.ShiftSyncCron = cron
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("設定ファイルを読み込めません: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fileConfig{}, fmt.Errorf("設定ファイルの形式が不正です: %w", err)
	}
	return file, nil
}
