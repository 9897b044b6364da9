package config

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (persistence disabled)
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Azure struct {
		APIKey     string `yaml:"apiKey"`
		Endpoint   string `yaml:"endpoint"`
		Deployment string `yaml:"deployment"`
		APIVersion string `yaml:"apiVersion"`
		Model      string `yaml:"model"`
	} `yaml:"azure"`

	Callback struct {
		APIKey             string `yaml:"apiKey"`
		TimeoutSecs        int    `yaml:"timeoutSecs"`
		InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	} `yaml:"callback"`

	Pipeline struct {
		PromptsDir       string `yaml:"promptsDir"`
		FilesDir         string `yaml:"filesDir"`
		Attempts         int    `yaml:"attempts"`
		Workers          int    `yaml:"workers"`
		QueueSize        int    `yaml:"queueSize"`
		FetchTimeoutSecs int    `yaml:"fetchTimeoutSecs"`
	} `yaml:"pipeline"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"` // empty disables image archiving
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads the yaml config file and applies environment overrides for
// secrets. Defaults keep a bare config file usable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "config: read file")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Secrets come from the environment when set, matching the deployment's
	// .env layout.
	overrideEnv(&cfg.Azure.APIKey, "AZURE_API_KEY")
	overrideEnv(&cfg.Azure.Endpoint, "AZURE_ENDPOINT")
	overrideEnv(&cfg.Azure.Deployment, "AZURE_DEPLOYMENT")
	overrideEnv(&cfg.Azure.APIVersion, "AZURE_API_VERSION")
	overrideEnv(&cfg.Callback.APIKey, "BOOM_API_KEY")

	cfg.applyDefaults()
	return &cfg, nil
}

func overrideEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8888
	}
	if c.Azure.Model == "" {
		c.Azure.Model = "gpt-4o"
	}
	if c.Callback.TimeoutSecs <= 0 {
		c.Callback.TimeoutSecs = 30
	}
	if c.Pipeline.PromptsDir == "" {
		c.Pipeline.PromptsDir = "prompts"
	}
	if c.Pipeline.FilesDir == "" {
		c.Pipeline.FilesDir = "files"
	}
	if c.Pipeline.Attempts <= 0 {
		c.Pipeline.Attempts = 3
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = 64
	}
	if c.Pipeline.FetchTimeoutSecs <= 0 {
		c.Pipeline.FetchTimeoutSecs = 30
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// MySQLDSN builds the MySQL connection string.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the Postgres connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// InitLogger initializes the global zap logger.
func InitLogger(level, format string) error {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
