package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DevSessionSecret 仅用于未启用后台登录的本地开发，启用登录时必须配置自己的 SESSION_SECRET。
const DevSessionSecret = "jamiec-dev-secret"

// minSessionSecretLength 是启用后台登录时会话密钥的最短长度。
const minSessionSecretLength = 32

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabaseDialect string
	DatabaseURL     string
	SessionSecret   string
	GinMode         string
	LogLevel        string
	OfficeUserName  string
	OfficePassword  string
	AutoMigrate     bool
	SecureCookies   bool
	SiteTitle       string
	SiteDescription string
}

// OfficeAuthEnabled reports whether office routes require a login.
func (c AppConfig) OfficeAuthEnabled() bool {
	return c.OfficeUserName != "" && c.OfficePassword != ""
}

// Load 从环境变量（以及可选的 CONFIG_FILE 配置文件）读取应用配置，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DIALECT", "sqlite")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("SITE_TITLE", "Jamie Curle")
	v.SetDefault("SITE_DESCRIPTION", "Lead Software Engineer")
}

func fromViper(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		ListenAddr:      strings.TrimSpace(v.GetString("LISTEN_ADDR")),
		DatabaseDialect: strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DIALECT"))),
		DatabaseURL:     strings.TrimSpace(v.GetString("DATABASE_URL")),
		SessionSecret:   strings.TrimSpace(v.GetString("SESSION_SECRET")),
		GinMode:         strings.TrimSpace(v.GetString("GIN_MODE")),
		LogLevel:        strings.TrimSpace(v.GetString("LOG_LEVEL")),
		OfficeUserName:  strings.TrimSpace(v.GetString("OFFICE_USER_NAME")),
		OfficePassword:  v.GetString("OFFICE_PASSWORD"),
		AutoMigrate:     v.GetBool("AUTO_MIGRATE"),
		SecureCookies:   v.GetBool("SECURE_COOKIES"),
		SiteTitle:       strings.TrimSpace(v.GetString("SITE_TITLE")),
		SiteDescription: strings.TrimSpace(v.GetString("SITE_DESCRIPTION")),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	switch cfg.DatabaseDialect {
	case "sqlite", "postgres":
	default:
		return AppConfig{}, fmt.Errorf("unsupported DATABASE_DIALECT %q", cfg.DatabaseDialect)
	}

	if cfg.DatabaseURL == "" && cfg.DatabaseDialect == "sqlite" {
		cfg.DatabaseURL = "jamiec.db"
	}

	if (cfg.OfficeUserName == "") != (cfg.OfficePassword == "") {
		return AppConfig{}, fmt.Errorf("OFFICE_USER_NAME and OFFICE_PASSWORD must be set together")
	}

	if cfg.OfficeAuthEnabled() {
		switch {
		case cfg.SessionSecret == "" || cfg.SessionSecret == DevSessionSecret:
			return AppConfig{}, fmt.Errorf("SESSION_SECRET must be set when office login is enabled")
		case len(cfg.SessionSecret) < minSessionSecretLength:
			return AppConfig{}, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLength)
		}
	} else if cfg.SessionSecret == "" {
		cfg.SessionSecret = DevSessionSecret
	}

	return cfg, nil
}
