package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bcdannyboy/dgreeks/logger"
	"github.com/bcdannyboy/dgreeks/models"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log logger.Config `yaml:"log"`

	Pricing struct {
		ThetaConvention string `yaml:"theta_convention" default:"year" validate:"oneof=year calendar_day trading_day"`

		// Workers bounds sweep concurrency. Zero sizes it from the CPU count.
		Workers   int      `yaml:"workers" validate:"gte=0"`
		Variables []string `yaml:"variables" default:"[\"spot\",\"maturity\",\"rate\",\"volatility\",\"dividend\"]" validate:"dive,oneof=spot maturity rate volatility dividend"`
	} `yaml:"pricing"`

	Sweep struct {
		Samples int `yaml:"samples" default:"200" validate:"min=2"`
	} `yaml:"sweep"`

	Market struct {
		Rate          float64 `yaml:"rate" default:"0.0379"`
		DividendYield float64 `yaml:"dividend_yield" validate:"gte=0"`

		// Historical volatility for chain entries quoted without one.
		VolEstimator string `yaml:"vol_estimator" default:"yang_zhang" validate:"oneof=close parkinson garman_klass rogers_satchell yang_zhang garch"`
		VolWindow    int    `yaml:"vol_window" default:"21" validate:"min=2"`
	} `yaml:"market"`

	Tradier struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url" default:"https://api.tradier.com/v1" validate:"url"`
	} `yaml:"tradier"`

	Slack struct {
		AppToken string `yaml:"app_token"`
		BotToken string `yaml:"bot_token"`
	} `yaml:"slack"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment
// variables, after loading any .env files given. Missing .env files are
// skipped.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRADIER_KEY"); v != "" {
		c.Tradier.APIKey = v
	}
	if v := os.Getenv("SLACK_APP_TOKEN"); v != "" {
		c.Slack.AppToken = v
	}
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func (c *Config) ThetaConvention() models.DayCount {
	d, err := models.ParseDayCount(c.Pricing.ThetaConvention)
	if err != nil {
		return models.PerYear
	}
	return d
}

func (c *Config) VolEstimator() models.Estimator {
	e, err := models.ParseEstimator(c.Market.VolEstimator)
	if err != nil {
		return models.YangZhang
	}
	return e
}

// Variables returns the configured differentiation variables. Unknown
// names are rejected by Validate.
func (c *Config) Variables() []models.Variable {
	vars := make([]models.Variable, 0, len(c.Pricing.Variables))
	for _, s := range c.Pricing.Variables {
		if v, err := models.ParseVariable(s); err == nil {
			vars = append(vars, v)
		}
	}
	return vars
}
