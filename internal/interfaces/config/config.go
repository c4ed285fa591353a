package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DevpadURL    string `envconfig:"DEVPAD_URL" default:"https://devpad.tools/api/v1"`
	DevpadAPIKey string `envconfig:"DEVPAD_API_KEY"`

	BlogAPIURL    string `envconfig:"BLOG_API_URL"`
	BlogAPIKey    string `envconfig:"BLOG_API_KEY"`
	DevToUsername string `envconfig:"DEVTO_USERNAME"`
	DevToFeedURL  string `envconfig:"DEVTO_FEED_URL"`

	ActivityURL    string `envconfig:"ACTIVITY_URL"`
	ActivityAPIKey string `envconfig:"ACTIVITY_API_KEY"`

	ProjectsCacheInterval int `envconfig:"PROJECTS_CACHE_INTERVAL" default:"300"`
	BlogCacheInterval     int `envconfig:"BLOG_CACHE_INTERVAL" default:"300"`
	TimelineCacheInterval int `envconfig:"TIMELINE_CACHE_INTERVAL" default:"300"`
	RevalidateTimeout     int `envconfig:"REVALIDATE_TIMEOUT" default:"30"`
	PointCacheTTL         int `envconfig:"POINT_CACHE_TTL" default:"30"`

	HTTPTimeout    int  `envconfig:"HTTP_TIMEOUT" default:"15"`
	HTTPAttempts   uint `envconfig:"HTTP_ATTEMPTS" default:"3"`
	MaxPermits     int  `envconfig:"MAX_PERMITS" default:"10"`
	RefillInterval int  `envconfig:"REFILL_INTERVAL" default:"1"`

	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads the environment (and .env when present). A malformed
// variable falls back to its default while every other setting is kept;
// the returned error lists what was ignored so the caller can log it and
// keep running.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var invalid []error
	ignored := map[string]string{}
	defer func() {
		for key, value := range ignored {
			os.Setenv(key, value)
		}
	}()

	for {
		var cfg Config
		err := envconfig.Process("", &cfg)
		if err == nil {
			if len(invalid) > 0 {
				return &cfg, fmt.Errorf("invalid configuration, using defaults for those fields: %w", errors.Join(invalid...))
			}
			return &cfg, nil
		}

		var parseErr *envconfig.ParseError
		if !errors.As(err, &parseErr) {
			return Default(), fmt.Errorf("invalid configuration, using defaults: %w", err)
		}
		if _, seen := ignored[parseErr.KeyName]; seen {
			return Default(), fmt.Errorf("invalid configuration, using defaults: %w", err)
		}

		invalid = append(invalid, fmt.Errorf("%s=%q: %w", parseErr.KeyName, parseErr.Value, parseErr.Err))
		ignored[parseErr.KeyName] = os.Getenv(parseErr.KeyName)
		os.Unsetenv(parseErr.KeyName)
	}
}

// Default returns the configuration with every default applied and no
// credentials.
func Default() *Config {
	return &Config{
		DevpadURL:             "https://devpad.tools/api/v1",
		ProjectsCacheInterval: 300,
		BlogCacheInterval:     300,
		TimelineCacheInterval: 300,
		RevalidateTimeout:     30,
		PointCacheTTL:         30,
		HTTPTimeout:           15,
		HTTPAttempts:          3,
		MaxPermits:            10,
		RefillInterval:        1,
		ListenAddr:            ":8080",
		LogLevel:              "info",
	}
}

// Problems lists settings that leave part of the site without data. None of
// them stop the process.
func (c *Config) Problems() []string {
	var problems []string
	if c.DevpadAPIKey == "" {
		problems = append(problems, "DEVPAD_API_KEY is not set; project requests will fail")
	}
	if c.BlogAPIURL == "" && c.DevToFeedURL == "" && c.DevToUsername == "" {
		problems = append(problems, "no blog source configured; set BLOG_API_URL or DEVTO_USERNAME")
	}
	if c.ActivityURL == "" {
		problems = append(problems, "ACTIVITY_URL is not set; the timeline will be empty")
	}
	intervals := []struct {
		name  string
		value int
	}{
		{"PROJECTS_CACHE_INTERVAL", c.ProjectsCacheInterval},
		{"BLOG_CACHE_INTERVAL", c.BlogCacheInterval},
		{"TIMELINE_CACHE_INTERVAL", c.TimelineCacheInterval},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s is %d; every request will revalidate", iv.name, iv.value))
		}
	}
	return problems
}

func (c *Config) GetProjectsInterval() time.Duration {
	return time.Duration(c.ProjectsCacheInterval) * time.Second
}

func (c *Config) GetBlogInterval() time.Duration {
	return time.Duration(c.BlogCacheInterval) * time.Second
}

func (c *Config) GetTimelineInterval() time.Duration {
	return time.Duration(c.TimelineCacheInterval) * time.Second
}

func (c *Config) GetRevalidateTimeout() time.Duration {
	return time.Duration(c.RevalidateTimeout) * time.Second
}

func (c *Config) GetPointCacheTTL() time.Duration {
	return time.Duration(c.PointCacheTTL) * time.Second
}

func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func (c *Config) GetRefillInterval() time.Duration {
	return time.Duration(c.RefillInterval) * time.Second
}
