package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the toxmod configuration shared by the trainer, the API and the dashboard.
type Config struct {
	Labels        []string            `yaml:"labels"`
	API           APIConfig           `yaml:"api"`
	Dashboard     DashboardConfig     `yaml:"dashboard"`
	Train         TrainConfig         `yaml:"train"`
	Registry      RegistryConfig      `yaml:"registry"`
	PredictionLog PredictionLogConfig `yaml:"prediction_log"`
	Valkey        ValkeyConfig        `yaml:"valkey"`
	DynamoDB      DynamoDBConfig      `yaml:"dynamodb"`
	Tracking      TrackingConfig      `yaml:"tracking"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// APIConfig holds prediction API server settings.
type APIConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DashboardConfig holds operator and monitoring UI settings.
type DashboardConfig struct {
	Port              int     `yaml:"port"`
	APIURL            string  `yaml:"api_url"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	ScrapeTimeoutSec  int     `yaml:"scrape_timeout_sec"`
	AlertThreshold    float64 `yaml:"alert_threshold"`
	AccessLog         bool    `yaml:"access_log"`
}

// TrainConfig holds trainer settings.
type TrainConfig struct {
	Project       string   `yaml:"project"`
	DatasetName   string   `yaml:"dataset_name"`
	TrainURL      string   `yaml:"train_url"`
	TestURL       string   `yaml:"test_url"`
	TestLabelsURL string   `yaml:"test_labels_url"`
	Models        []string `yaml:"models"` // log_reg, linear_svm, multi_nb (default: all)
}

// RegistryConfig holds artifact registry settings.
type RegistryConfig struct {
	Driver string `yaml:"driver"` // valkey, file (default: valkey)
	Root   string `yaml:"root"`   // file driver only
	// Model is the registry name the API serves, resolved at Ref.
	Model string `yaml:"model"`
	Ref   string `yaml:"ref"`
}

// PredictionLogConfig holds prediction log settings.
type PredictionLogConfig struct {
	Backend string `yaml:"backend"`  // dynamodb, valkey (default: dynamodb)
	ListKey string `yaml:"list_key"` // valkey backend only
}

// ValkeyConfig holds Valkey connection settings.
type ValkeyConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DynamoDBConfig holds DynamoDB settings.
type DynamoDBConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // DynamoDB Local
	Table    string `yaml:"table"`
}

// TrackingConfig holds experiment tracking settings.
type TrackingConfig struct {
	Dir            string `yaml:"dir"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Driver and backend names.
const (
	DriverValkey    = "valkey"
	DriverFile      = "file"
	BackendDynamoDB = "dynamodb"
	BackendValkey   = "valkey"
)

var knownModels = []string{"log_reg", "linear_svm", "multi_nb"}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; it never overrides variables already set.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands and validates a single config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if len(c.Labels) == 0 {
		c.Labels = []string{"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate"}
	}
	if c.API.Port <= 0 {
		c.API.Port = 8000
	}
	if c.API.ReadTimeoutSec <= 0 {
		c.API.ReadTimeoutSec = 10
	}
	if c.API.WriteTimeoutSec <= 0 {
		c.API.WriteTimeoutSec = 30
	}
	if c.API.ShutdownSec <= 0 {
		c.API.ShutdownSec = 10
	}
	if c.Dashboard.Port <= 0 {
		c.Dashboard.Port = 8501
	}
	if c.Dashboard.APIURL == "" {
		c.Dashboard.APIURL = "http://127.0.0.1:8000"
	}
	if c.Dashboard.RequestTimeoutSec <= 0 {
		c.Dashboard.RequestTimeoutSec = 10
	}
	if c.Dashboard.ScrapeTimeoutSec <= 0 {
		c.Dashboard.ScrapeTimeoutSec = 10
	}
	if c.Dashboard.AlertThreshold <= 0 {
		c.Dashboard.AlertThreshold = 0.5
	}
	if c.Train.Project == "" {
		c.Train.Project = "toxic_comment_prediction"
	}
	if c.Train.DatasetName == "" {
		c.Train.DatasetName = "toxic_comments"
	}
	if len(c.Train.Models) == 0 {
		c.Train.Models = slices.Clone(knownModels)
	}
	if c.Registry.Driver == "" {
		c.Registry.Driver = DriverValkey
	}
	if c.Registry.Root == "" {
		c.Registry.Root = "artifacts"
	}
	if c.Registry.Model == "" {
		c.Registry.Model = "log_reg_model"
	}
	if c.Registry.Ref == "" {
		c.Registry.Ref = "latest"
	}
	if c.PredictionLog.Backend == "" {
		c.PredictionLog.Backend = BackendDynamoDB
	}
	if c.PredictionLog.ListKey == "" {
		c.PredictionLog.ListKey = "toxmod:predictions"
	}
	if c.Valkey.ReadinessTimeout <= 0 {
		c.Valkey.ReadinessTimeout = 10
	}
	if c.DynamoDB.Region == "" {
		c.DynamoDB.Region = "us-east-1"
	}
	if c.DynamoDB.Table == "" {
		c.DynamoDB.Table = "table_01"
	}
	if c.Tracking.Dir == "" {
		c.Tracking.Dir = "runs"
	}
	if c.Tracking.Job == "" {
		c.Tracking.Job = "toxmod_train"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port))
	}
	if c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Errorf("dashboard.port must be between 1 and 65535, got %d", c.Dashboard.Port))
	}
	if c.Dashboard.AlertThreshold > 1 {
		errs = append(errs, fmt.Errorf("dashboard.alert_threshold must be in (0, 1], got %g", c.Dashboard.AlertThreshold))
	}
	seen := make(map[string]struct{}, len(c.Labels))
	for _, l := range c.Labels {
		if _, dup := seen[l]; dup || l == "" {
			errs = append(errs, fmt.Errorf("labels must be unique and non-empty, got %q", l))
		}
		seen[l] = struct{}{}
	}
	for _, m := range c.Train.Models {
		if !slices.Contains(knownModels, m) {
			errs = append(errs, fmt.Errorf("train.models: unknown model %q (want one of %s)", m, strings.Join(knownModels, ", ")))
		}
	}
	switch c.Registry.Driver {
	case DriverValkey, DriverFile:
	default:
		errs = append(errs, fmt.Errorf("registry.driver must be %q or %q, got %q", DriverValkey, DriverFile, c.Registry.Driver))
	}
	switch c.PredictionLog.Backend {
	case BackendDynamoDB:
	case BackendValkey:
	default:
		errs = append(errs, fmt.Errorf(
			"prediction_log.backend must be %q or %q, got %q", BackendDynamoDB, BackendValkey, c.PredictionLog.Backend))
	}
	if c.NeedsValkey() && (len(c.Valkey.Addrs) == 0 || slices.Contains(c.Valkey.Addrs, "")) {
		errs = append(errs, errors.New("valkey.addrs is required by the selected registry or prediction log"))
	}
	return errors.Join(errs...)
}

// NeedsValkey reports whether any configured component stores data in Valkey.
func (c *Config) NeedsValkey() bool {
	return c.Registry.Driver == DriverValkey || c.PredictionLog.Backend == BackendValkey
}

func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
