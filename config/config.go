package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultColumn    = "Remitter IFSC"
	DefaultBaseURL   = "https://ifsc.razorpay.com"
	DefaultTimeout   = 30 * time.Second
	DefaultOutput    = "enriched_ifsc_details.xlsx"
	DefaultSinkTable = "ifsc_enriched"
	DefaultListen    = ":8080"
	DefaultHeader    = "first"
)

// Config holds the enrichment configuration
type Config struct {
	ConfigFile  string
	Column      string
	BaseURL     string
	Timeout     time.Duration
	WorkerCount int // 0 means one worker per row
	HeaderMode  string
	OutputURL   string
	Page        int
	SinkURL     string
	SinkTable   string
	ListenAddr  string
	Debug       bool
	Verbose     bool
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Column:     DefaultColumn,
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		HeaderMode: DefaultHeader,
		OutputURL:  DefaultOutput,
		Page:       1,
		SinkTable:  DefaultSinkTable,
		ListenAddr: DefaultListen,
	}
}

// Validate checks the values that cannot be caught by flag parsing.
func (c *Config) Validate() error {
	if c.Column == "" {
		return fmt.Errorf("lookup column must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("lookup base URL must not be empty")
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("worker count must not be negative: %d", c.WorkerCount)
	}
	switch c.HeaderMode {
	case "first", "union":
	default:
		return fmt.Errorf("invalid header mode %q (expected first or union)", c.HeaderMode)
	}
	return nil
}

// LoadConfig reads a settings file made of "key: value" lines and returns
// the settings keyed by flag name. Blank lines and lines starting with '#'
// are ignored.
func LoadConfig(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer file.Close()

	settings := make(map[string]string)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first colon; values such as URLs keep theirs
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line format (expected 'key: value'): %s", line)
		}

		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("empty key in config line: %s", line)
		}

		settings[key] = strings.TrimSpace(parts[1])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return settings, nil
}

// GetEnvOrDefault returns environment variable value or default if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
