package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		IdleTimeout    time.Duration `yaml:"idleTimeout"`
		MaxUploadBytes int64         `yaml:"maxUploadBytes"`
		CORSOrigins    []string      `yaml:"corsOrigins"`
		RateLimit      struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite only
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		PublicURL  string `yaml:"publicURL"`
	} `yaml:"minio"`

	Auth struct {
		JWTSecret string   `yaml:"jwtSecret"`
		AdminKeys []string `yaml:"adminKeys"`
	} `yaml:"auth"`

	OCR struct {
		Engine      string        `yaml:"engine"`
		Language    string        `yaml:"language"`
		Binary      string        `yaml:"binary"`
		TessdataDir string        `yaml:"tessdataDir"`
		Timeout     time.Duration `yaml:"timeout"`
		Strategies  []string      `yaml:"strategies"`
	} `yaml:"ocr"`

	Compression struct {
		TargetBytes  int `yaml:"targetBytes"`
		StartWidth   int `yaml:"startWidth"`
		MinWidth     int `yaml:"minWidth"`
		WidthStep    int `yaml:"widthStep"`
		StartQuality int `yaml:"startQuality"`
		MinQuality   int `yaml:"minQuality"`
		QualityStep  int `yaml:"qualityStep"`
	} `yaml:"compression"`

	Realtime struct {
		Enabled        bool     `yaml:"enabled"`
		BufferSize     int      `yaml:"bufferSize"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"realtime"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Vision struct {
		CredentialsFile string   `yaml:"credentialsFile"`
		LanguageHints   []string `yaml:"languageHints"`
	} `yaml:"vision"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
}

// OCR engines
const (
	EngineTesseractCLI = "tesseract-cli"
	EngineTesseract    = "tesseract"
	EngineVision       = "vision"
	EngineOpenAI       = "openai"
)

var (
	drivers = []string{"mysql", "postgres", "sqlite"}
	engines = []string{EngineTesseractCLI, EngineTesseract, EngineVision, EngineOpenAI}
)

// Default returns a config that runs locally against sqlite and the tesseract binary.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 120 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.MaxUploadBytes = 8 << 20
	c.Server.RateLimit.Capacity = 30
	c.Server.RateLimit.RefillRate = 1

	c.Database.Driver = "sqlite"
	c.Database.Path = "spamshot.db"
	c.Database.SSLMode = "disable"

	c.Minio.BucketName = "screenshots"
	c.Minio.Region = "us-east-1"

	c.OCR.Engine = EngineTesseractCLI
	c.OCR.Language = "eng"
	c.OCR.Binary = "tesseract"
	c.OCR.Timeout = 30 * time.Second
	c.OCR.Strategies = []string{"block", "single_line", "auto"}

	c.Compression.TargetBytes = 100 << 10
	c.Compression.StartWidth = 1000
	c.Compression.MinWidth = 200
	c.Compression.WidthStep = 100
	c.Compression.StartQuality = 80
	c.Compression.MinQuality = 30
	c.Compression.QualityStep = 10

	c.Realtime.Enabled = true
	c.Realtime.BufferSize = 16

	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.Output = "stdout"
	return &c
}

// Load baca file config.yaml di atas nilai default, lalu env override.
// File yang tidak ada tidak dianggap error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and endpoints from SPAMSHOT_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"SPAMSHOT_DB_DRIVER":          &c.Database.Driver,
		"SPAMSHOT_DB_HOST":            &c.Database.Host,
		"SPAMSHOT_DB_USER":            &c.Database.User,
		"SPAMSHOT_DB_PASSWORD":        &c.Database.Password,
		"SPAMSHOT_DB_NAME":            &c.Database.Name,
		"SPAMSHOT_DB_PATH":            &c.Database.Path,
		"SPAMSHOT_MINIO_ENDPOINT":     &c.Minio.Endpoint,
		"SPAMSHOT_MINIO_ACCESS_KEY":   &c.Minio.AccessKey,
		"SPAMSHOT_MINIO_SECRET_KEY":   &c.Minio.SecretKey,
		"SPAMSHOT_MINIO_BUCKET":       &c.Minio.BucketName,
		"SPAMSHOT_MINIO_PUBLIC_URL":   &c.Minio.PublicURL,
		"SPAMSHOT_JWT_SECRET":         &c.Auth.JWTSecret,
		"SPAMSHOT_OCR_ENGINE":         &c.OCR.Engine,
		"SPAMSHOT_OCR_LANGUAGE":       &c.OCR.Language,
		"SPAMSHOT_TESSDATA_DIR":       &c.OCR.TessdataDir,
		"SPAMSHOT_OPENAI_API_KEY":     &c.OpenAI.APIKey,
		"SPAMSHOT_OPENAI_MODEL":       &c.OpenAI.Model,
		"SPAMSHOT_VISION_CREDENTIALS": &c.Vision.CredentialsFile,
		"SPAMSHOT_LOG_LEVEL":          &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("SPAMSHOT_ADMIN_KEYS"); ok && v != "" {
		c.Auth.AdminKeys = splitList(v)
	}
	if v, ok := lookup("SPAMSHOT_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPAMSHOT_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("SPAMSHOT_DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPAMSHOT_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v, ok := lookup("SPAMSHOT_OCR_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SPAMSHOT_OCR_TIMEOUT: %w", err)
		}
		c.OCR.Timeout = d
	}
	if v, ok := lookup("SPAMSHOT_OCR_STRATEGIES"); ok && v != "" {
		c.OCR.Strategies = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.maxUploadBytes must be positive"))
	}
	if !slices.Contains(drivers, c.Database.Driver) {
		errs = append(errs, fmt.Errorf("database.driver %q not one of %v", c.Database.Driver, drivers))
	}
	if !slices.Contains(engines, c.OCR.Engine) {
		errs = append(errs, fmt.Errorf("ocr.engine %q not one of %v", c.OCR.Engine, engines))
	}
	if c.OCR.Timeout <= 0 {
		errs = append(errs, errors.New("ocr.timeout must be positive"))
	}
	if len(c.OCR.Strategies) == 0 {
		errs = append(errs, errors.New("ocr.strategies must not be empty"))
	}
	cp := c.Compression
	for name, v := range map[string]int{
		"targetBytes": cp.TargetBytes, "startWidth": cp.StartWidth, "minWidth": cp.MinWidth,
		"widthStep": cp.WidthStep, "startQuality": cp.StartQuality, "minQuality": cp.MinQuality,
		"qualityStep": cp.QualityStep,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("compression.%s must be positive", name))
		}
	}
	if c.Realtime.Enabled && c.Realtime.BufferSize <= 0 {
		errs = append(errs, errors.New("realtime.bufferSize must be positive"))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
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
