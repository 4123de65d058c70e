package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort      = 1313
	defaultModel     = "gemini-2.5-flash"
	defaultAppID     = "prompt-coach-v1"
	defaultDBName    = "promptcoach"
	defaultJWTExpiry = 24 * 60
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Gemini struct {
		ApiKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"gemini"`

	Database struct {
		URI  string `yaml:"uri"`
		Name string `yaml:"name"`
	} `yaml:"database"`

	// Tenant scopes every history record, mirroring the project/app bundle the
	// clients are configured with.
	Tenant struct {
		AppID   string `yaml:"appId"`
		Company string `yaml:"company"`
	} `yaml:"tenant"`

	JWT struct {
		Secret string `yaml:"secret"`
		Expiry int    `yaml:"expiry"` // minutes
	} `yaml:"jwt"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	// Roles overrides the built-in role catalog when non-empty.
	Roles []RoleConfig `yaml:"roles"`
}

// RoleConfig is the YAML shape of a catalog entry.
type RoleConfig struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	Icon        string `yaml:"icon"`
	Color       string `yaml:"color"`
	Description string `yaml:"description"`
	Persona     string `yaml:"persona"`
	Topics      string `yaml:"topics"`
}

// LoadConfig reads the configuration file, applies environment overrides and
// fills defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.ApiKey = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Database.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultModel
	}
	if c.Database.Name == "" {
		c.Database.Name = defaultDBName
	}
	if c.Tenant.AppID == "" {
		c.Tenant.AppID = defaultAppID
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = defaultJWTExpiry
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports settings the server cannot start without. A missing Gemini
// key is not one of them: every gateway call reports it instead.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	seen := make(map[string]int, len(c.Roles))
	for i, r := range c.Roles {
		if r.ID == "" || r.Persona == "" {
			errs = append(errs, fmt.Errorf("roles[%d]: id and persona are required", i))
			continue
		}
		if first, ok := seen[r.ID]; ok {
			errs = append(errs, fmt.Errorf("roles[%d]: duplicate id %q (first defined at roles[%d])", i, r.ID, first))
			continue
		}
		seen[r.ID] = i
	}
	return errors.Join(errs...)
}
