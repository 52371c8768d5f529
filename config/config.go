package config

import (
	"fleetcare/common"
	"fleetcare/persistence"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile = "FLEETCARE_CONFIG"

	DefaultServerAddr      = ":80"
	DefaultMaintenanceCron = "0 0 2 * * *"
)

type Config struct {
	Server        ServerConfig               `yaml:"server"`
	Database      persistence.DatabaseConfig `yaml:"database"`
	Log           common.LogConfig           `yaml:"log"`
	Jwt           JwtConfig                  `yaml:"jwt"`
	Elasticsearch ElasticsearchConfig        `yaml:"elasticsearch"`
	Oss           OssConfig                  `yaml:"oss"`
	Maintenance   MaintenanceConfig          `yaml:"maintenance"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type JwtConfig struct {
	Secret string `yaml:"secret"`
}

type ElasticsearchConfig struct {
	URL string `yaml:"url"`
}

type OssConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
}

type MaintenanceConfig struct {
	Cron string `yaml:"cron"`
}

// Load reads the yaml file named by FLEETCARE_CONFIG when present, then applies environment overrides.
func Load() (*Config, error) {
	c := &Config{}
	if file := strings.TrimSpace(os.Getenv(EnvConfigFile)); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	c.applyDefaults()
	if err := c.Database.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	override(&c.Server.Addr, "SERVER_ADDR")
	override(&c.Database.DriverType, "DB_DRIVER")
	override(&c.Database.DriverArgs, "DB_ARGS")
	override(&c.Log.Level, "LOG_LEVEL")
	override(&c.Log.Format, "LOG_FORMAT")
	override(&c.Log.File, "LOG_FILE")
	override(&c.Jwt.Secret, "JWT_SECRET")
	override(&c.Elasticsearch.URL, "ELASTICSEARCH_URL")
	override(&c.Oss.Endpoint, "OSS_ENDPOINT")
	override(&c.Oss.AccessKey, "OSS_ACCESS_KEY")
	override(&c.Oss.SecretKey, "OSS_SECRET_KEY")
	override(&c.Oss.Bucket, "OSS_BUCKET")
	override(&c.Maintenance.Cron, "MAINTENANCE_CRON")
	if os.Getenv("GIN_MODE") != "release" {
		c.Database.LogMode = true
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Database.DriverType == "" {
		c.Database.DriverType = persistence.DriverMysql
	}
	if c.Oss.Bucket == "" {
		c.Oss.Bucket = common.ServiceName
	}
	if c.Maintenance.Cron == "" {
		c.Maintenance.Cron = DefaultMaintenanceCron
	}
}

func override(target *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*target = v
	}
}
