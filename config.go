package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nimdanitro/remo-scraper-go/pkg/remo"
	"github.com/spf13/pflag"
)

type config struct {
	Token    string
	APIURL   string
	Interval time.Duration
	Listen   string
	Input    string
}

// parseConfig reads the command line. Every flag falls back to an
// environment variable so the binary can run unattended in a container.
func parseConfig(args []string) (*config, error) {
	cfg := &config{}

	fs := pflag.NewFlagSet("remo-scraper", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Token, "token", "t", os.Getenv("NATURE_REMO_TOKEN"), "Nature Remo access token")
	fs.StringVar(&cfg.APIURL, "api-url", envOr("REMO_API_URL", remo.DefaultBaseURL), "Nature Remo API base url")
	fs.StringVarP(&cfg.Listen, "listen", "l", envOr("REMO_LISTEN", ":9090"), "address for the prometheus /metrics endpoint, empty to disable")
	fs.StringVarP(&cfg.Input, "input", "i", os.Getenv("REMO_INPUT"), "report devices from a JSON file once instead of polling the API")

	interval, err := time.ParseDuration(envOr("REMO_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMO_INTERVAL: %w", err)
	}
	fs.DurationVar(&cfg.Interval, "interval", interval, "polling interval")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Input == "" && cfg.Token == "" {
		return nil, fmt.Errorf("please specify an access token with --token or NATURE_REMO_TOKEN")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
