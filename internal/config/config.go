package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/omnipost/omnipost/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	VK        VKConfig        `yaml:"vk"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Staging   StagingConfig   `yaml:"staging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type VKConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIVersion string `yaml:"api_version"`
}

type TelegramConfig struct {
	APIURL string `yaml:"api_url"`
}

type StagingConfig struct {
	Dir string `yaml:"dir"`
}

type SchedulerConfig struct {
	PollInterval string `yaml:"poll_interval"`
	Disabled     bool   `yaml:"disabled"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5380
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.VK.BaseURL == "" {
		cfg.VK.BaseURL = "https://api.vk.com/method"
	}
	if cfg.VK.APIVersion == "" {
		cfg.VK.APIVersion = "5.199"
	}
	if cfg.Staging.Dir == "" {
		cfg.Staging.Dir = "temp/attachments"
	}
	if cfg.Scheduler.PollInterval == "" {
		cfg.Scheduler.PollInterval = "60s"
	}

	return cfg, nil
}
