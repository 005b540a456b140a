package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Parse    ParseConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration. An empty DSN disables persistence.
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // "postgres" | "sqlite"
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr"`
}

// OCRConfig holds text extraction configuration
type OCRConfig struct {
	Engine      string `mapstructure:"engine"`     // "tesseract" | "gosseract"
	PDFEngine   string `mapstructure:"pdf_engine"` // "fitz" | "pdftotext"
	Tesseract   string `mapstructure:"tesseract"`
	Pdftotext   string `mapstructure:"pdftotext"`
	Lang        string `mapstructure:"lang"`
	PSM         int    `mapstructure:"psm"`
	TessdataDir string `mapstructure:"tessdata_dir"`

	Preprocess      bool    `mapstructure:"preprocess"`
	ThresholdWindow int     `mapstructure:"threshold_window"`
	ThresholdRatio  float64 `mapstructure:"threshold_ratio"`
	BlurSigma       float64 `mapstructure:"blur_sigma"`
	Contrast        float64 `mapstructure:"contrast"`
}

// ParseConfig holds field extraction configuration
type ParseConfig struct {
	FuzzyEnabled  bool   `mapstructure:"fuzzy_enabled"`
	MerchantTable string `mapstructure:"merchant_table"` // optional YAML override of the embedded table
}

// CacheConfig holds the extracted-text cache location. Empty disables the cache.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// QueueConfig holds batch worker settings
type QueueConfig struct {
	Workers int           `mapstructure:"workers"`
	Size    int           `mapstructure:"size"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" | "text"
}

// LoadConfig reads configuration from environment variables with the RECEIPTS_ prefix.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECEIPTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DB defaults
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "5m")
	v.SetDefault("db.dial_timeout", "3s")
	v.SetDefault("db.statement_timeout", "0s")

	v.SetDefault("server.grpc_addr", ":8080")

	// OCR defaults
	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.pdf_engine", "fitz")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.preprocess", true)
	v.SetDefault("ocr.threshold_window", 0) // 0 = 1/8 of the image width
	v.SetDefault("ocr.threshold_ratio", 0.15)
	v.SetDefault("ocr.blur_sigma", 0.6)
	v.SetDefault("ocr.contrast", 20.0)

	v.SetDefault("parse.fuzzy_enabled", true)
	v.SetDefault("parse.merchant_table", "")

	v.SetDefault("cache.path", "")

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.size", 256)
	v.SetDefault("queue.timeout", "3m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:           v.GetString("db.driver"),
			DSN:              v.GetString("db.dsn"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{
			GRPCAddr: v.GetString("server.grpc_addr"),
		},
		OCR: OCRConfig{
			Engine:          v.GetString("ocr.engine"),
			PDFEngine:       v.GetString("ocr.pdf_engine"),
			Tesseract:       v.GetString("ocr.tesseract"),
			Pdftotext:       v.GetString("ocr.pdftotext"),
			Lang:            v.GetString("ocr.lang"),
			PSM:             v.GetInt("ocr.psm"),
			TessdataDir:     v.GetString("ocr.tessdata_dir"),
			Preprocess:      v.GetBool("ocr.preprocess"),
			ThresholdWindow: v.GetInt("ocr.threshold_window"),
			ThresholdRatio:  v.GetFloat64("ocr.threshold_ratio"),
			BlurSigma:       v.GetFloat64("ocr.blur_sigma"),
			Contrast:        v.GetFloat64("ocr.contrast"),
		},
		Parse: ParseConfig{
			FuzzyEnabled:  v.GetBool("parse.fuzzy_enabled"),
			MerchantTable: v.GetString("parse.merchant_table"),
		},
		Cache: CacheConfig{
			Path: v.GetString("cache.path"),
		},
		Queue: QueueConfig{
			Workers: v.GetInt("queue.workers"),
			Size:    v.GetInt("queue.size"),
			Timeout: v.GetDuration("queue.timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("db.driver must be postgres or sqlite, got %q", c.Database.Driver), ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "tesseract", "gosseract":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("ocr.engine must be tesseract or gosseract, got %q", c.OCR.Engine), ErrInvalidInput)
	}
	switch c.OCR.PDFEngine {
	case "fitz", "pdftotext":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("ocr.pdf_engine must be fitz or pdftotext, got %q", c.OCR.PDFEngine), ErrInvalidInput)
	}
	if c.OCR.ThresholdRatio < 0 || c.OCR.ThresholdRatio >= 1 {
		return NewAppError(CodeConfig, "ocr.threshold_ratio must be in [0,1)", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError(CodeConfig, "queue.workers must be positive", ErrInvalidInput)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format), ErrInvalidInput)
	}
	return nil
}
