package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	pipeline "github.com/02loveslollipop/marathon-tracker/internal/config"
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	pipeline.Pipeline

	Port           int
	BearerToken    string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	UseHTTPS       bool
	SSLCertPath    string
	SSLKeyPath     string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper reads the API settings from v.
func FromViper(v *viper.Viper) (Config, error) {
	pipeline.SetPipelineDefaults(v)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", "10")
	v.SetDefault("RATE_LIMIT_BURST", "20")

	cfg := Config{Port: 8080}

	p, err := pipeline.LoadPipeline(v)
	if err != nil {
		return cfg, err
	}
	cfg.Pipeline = p

	if portStr := strings.TrimSpace(v.GetString("PORT")); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := strings.TrimSpace(v.GetString("API_PORT")); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	rpsStr := strings.TrimSpace(v.GetString("RATE_LIMIT_RPS"))
	if rps, err := strconv.ParseFloat(rpsStr, 64); err == nil && rps >= 0 {
		cfg.RateLimitRPS = rps
	} else {
		return cfg, fmt.Errorf("invalid RATE_LIMIT_RPS: %s", rpsStr)
	}

	burstStr := strings.TrimSpace(v.GetString("RATE_LIMIT_BURST"))
	if burst, err := strconv.Atoi(burstStr); err == nil && burst > 0 {
		cfg.RateLimitBurst = burst
	} else {
		return cfg, fmt.Errorf("invalid RATE_LIMIT_BURST: %s", burstStr)
	}

	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	cfg.BearerToken = strings.TrimSpace(v.GetString("API_BEARER_TOKEN"))

	cfg.UseHTTPS = v.GetBool("USE_HTTPS")
	cfg.SSLCertPath = strings.TrimSpace(v.GetString("SSL_CERT_PATH"))
	cfg.SSLKeyPath = strings.TrimSpace(v.GetString("SSL_KEY_PATH"))

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
