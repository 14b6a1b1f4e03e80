package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type serverConfig struct {
	Port        int    `koanf:"port" validate:"required"`
	Mode        string `koanf:"mode" validate:"required"`
	Concurrency int    `koanf:"concurrency" validate:"required"`
	BodyLimit   int    `koanf:"body_limit" validate:"required"`
	AppName     string `koanf:"app_name" validate:"required"`
}

type logLevel string

const (
	Debug logLevel = "debug"
	Info  logLevel = "info"
	Warn  logLevel = "warn"
	Error logLevel = "error"
	Fatal logLevel = "fatal"
	Panic logLevel = "panic"
)

type Module string

const (
	ModuleServer     Module = "server"
	ModuleSetting    Module = "setting"
	ModuleDatabase   Module = "database"
	ModuleS3         Module = "s3"
	ModuleAuth       Module = "auth"
	ModuleChat       Module = "chat"
	ModuleFiles      Module = "files"
	ModuleClassifier Module = "classifier"
	ModuleKnowledge  Module = "knowledge"
	ModuleEmbedding  Module = "embedding"
	ModuleLLM        Module = "llm"
	ModuleRetriever  Module = "retriever"
	ModuleAnswer     Module = "answer"
	ModulePipeline   Module = "pipeline"
)

type databaseConfig struct {
	Host         string `koanf:"host" validate:"required"`
	Port         int    `koanf:"port" validate:"required"`
	User         string `koanf:"user" validate:"required"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name" validate:"required"`
	ReplicaDns   string `koanf:"replica_dns"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"required"`
	MaxLifetime  int    `koanf:"max_lifetime" validate:"required"`
}

type openaiConfig struct {
	Key            string  `koanf:"key" validate:"required"`
	BaseURL        string  `koanf:"base_url"`
	Model          string  `koanf:"model" validate:"required"`
	EmbeddingModel string  `koanf:"embedding_model" validate:"required"`
	Temperature    float64 `koanf:"temperature"`
	TopP           float64 `koanf:"top_p"`
}

type classifierConfig struct {
	ModelPath  string `koanf:"model_path" validate:"required"`
	LabelsDir  string `koanf:"labels_dir" validate:"required"`
	OrtLibrary string `koanf:"ort_library"`
	InputSize  int    `koanf:"input_size" validate:"required"`
	InputName  string `koanf:"input_name" validate:"required"`
	OutputName string `koanf:"output_name" validate:"required"`
}

type knowledgeConfig struct {
	Path           string  `koanf:"path" validate:"required"`
	HybridAlpha    float64 `koanf:"hybrid_alpha"`
	ScoreThreshold float64 `koanf:"score_threshold"`
	TopK           int     `koanf:"top_k"`
}

type authConfig struct {
	SessionTTLHours int `koanf:"session_ttl_hours" validate:"required"`
}

type corsConfig struct {
	AllowOrigins []string `koanf:"allow_origins"`
	AllowMethods []string `koanf:"allow_methods"`
	AllowHeaders []string `koanf:"allow_headers"`
}

type s3Config struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	UseSSL    bool   `koanf:"use_ssl"`
	Bucket    string `koanf:"bucket"`
}

type config struct {
	Server     serverConfig     `koanf:"server"`
	Database   databaseConfig   `koanf:"database"`
	OpenAI     openaiConfig     `koanf:"openai"`
	Classifier classifierConfig `koanf:"classifier"`
	Knowledge  knowledgeConfig  `koanf:"knowledge"`
	Auth       authConfig       `koanf:"auth"`
	LogLevel   logLevel         `koanf:"log_level"`
	Dns        string           `koanf:"dns"`
	S3         s3Config         `koanf:"s3"`
	Cors       corsConfig       `koanf:"cors"`
}

func buildMySQLDSN(cfg databaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)
}

var defaultConfig = config{
	Server: serverConfig{
		Port:        8000,
		Mode:        "release",
		Concurrency: 256,
		BodyLimit:   16 * 1024 * 1024,
		AppName:     "ai-derm-assistant",
	},
	Database: databaseConfig{
		Host:         "127.0.0.1",
		Port:         3306,
		User:         "root",
		Password:     "",
		Name:         "derm_assistant",
		MaxIdleConns: 4,
		MaxOpenConns: 16,
		MaxLifetime:  30,
	},
	OpenAI: openaiConfig{
		Key:            "",
		Model:          "medgemma-4b-it",
		EmbeddingModel: "text-embedding-3-small",
		Temperature:    0.6,
		TopP:           0.9,
	},
	Classifier: classifierConfig{
		ModelPath:  "models/convnext_tiny_dermatology.onnx",
		LabelsDir:  "dataset/train",
		InputSize:  224,
		InputName:  "input",
		OutputName: "logits",
	},
	Knowledge: knowledgeConfig{
		Path:           "dataset/dermatology_qa.json",
		HybridAlpha:    0.7,
		ScoreThreshold: 0.75,
		TopK:           5,
	},
	Auth: authConfig{
		SessionTTLHours: 72,
	},
	LogLevel: Info,
	S3: s3Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		UseSSL:    false,
		Bucket:    "",
	},
}

var (
	Cfg  = defaultConfig
	once sync.Once
)

// Init loads configuration from the given YAML file plus APP_* environment
// overrides. It is safe to call more than once; only the first call loads.
func Init(path string) error {
	var initErr error
	once.Do(func() {
		cfg, err := load(path)
		if err != nil {
			initErr = err
			return
		}
		Cfg = cfg
	})
	return initErr
}

// load reads the YAML file (if present), applies APP_* env overrides on top
// of the defaults and validates the result.
func load(path string) (config, error) {
	k := koanf.New(".")
	cfg := defaultConfig

	if e := k.Load(file.Provider(path), yaml.Parser()); e != nil && !os.IsNotExist(e) {
		return cfg, e
	}

	// env APP_SERVER_PORT -> server.port
	if e := k.Load(env.Provider("APP_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "_", ".")
	}), nil); e != nil {
		return cfg, e
	}

	if e := k.Unmarshal("", &cfg); e != nil {
		return cfg, fmt.Errorf("%v: failed to unmarshal config: %w", ModuleSetting, e)
	}

	if cfg.Dns == "" {
		cfg.Dns = buildMySQLDSN(cfg.Database)
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateConfig rejects configurations with required settings missing or
// blanked out; the process must not start on such a configuration.
func validateConfig(cfg config) error {
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%v: config validation failed:\n", ModuleSetting))
		for _, e := range errs {
			sb.WriteString(fmt.Sprintf("  - %s: failed '%s' (value: %v)\n", e.Field(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", sb.String())
	}
	return err
}
