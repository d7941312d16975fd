// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Server   ServerConfig
	Analyzer AnalyzerConfig
	LLM      LLMConfig
	ChatPage ChatPageConfig
	Bridge   BridgeConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	// BasePath is the root data directory (default: ~/SectionSmith/data).
	// The Badger store lives in {base}/store, the search index in
	// {base}/search.
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8090)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 120s, conversions are slow)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AnalyzerConfig holds classifier configuration.
type AnalyzerConfig struct {
	// CacheSize is the number of memoized capture analyses (default: 256).
	CacheSize int
}

// LLMConfig holds the direct-API conversion strategy configuration.
type LLMConfig struct {
	Endpoint string // Chat completions endpoint (default: Perplexity's)
	Model    string // Model name (default: sonar-pro)
}

// ChatPageConfig holds the browser-automation strategy configuration.
type ChatPageConfig struct {
	Enabled  bool   // Register the chat-page strategy (default: false)
	URL      string // Chat page to drive (default: https://www.perplexity.ai/)
	Headless bool   // Run the browser headless (default: true)
}

// BridgeConfig holds the manual file-drop bridge configuration.
type BridgeConfig struct {
	// Dir is the watched exchange directory (default: {data}/bridge).
	Dir string
	// ResponseTimeout bounds how long a manual conversion waits for the
	// user to drop a response file (default: 10m).
	ResponseTimeout time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8090)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 120s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Strategy flags
	llmEndpoint := flag.String("llm-endpoint", "", "Chat completions endpoint")
	llmModel := flag.String("llm-model", "", "Model for the direct API strategy")
	chatPageEnabled := flag.String("chat-page-enabled", "", "Enable the browser-automation strategy (default: false)")
	chatPageURL := flag.String("chat-page-url", "", "Chat page URL for browser automation")
	chatPageHeadless := flag.String("chat-page-headless", "", "Run the automated browser headless (default: true)")
	bridgeDir := flag.String("bridge-dir", "", "Directory watched by the manual file-drop bridge")
	bridgeTimeout := flag.String("bridge-timeout", "", "How long manual conversions wait for a response (default: 10m)")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8090"),
		},
		Analyzer: AnalyzerConfig{
			CacheSize: getIntConfigValue("", "ANALYZER_CACHE_SIZE", 256),
		},
		LLM: LLMConfig{
			Endpoint: getConfigValue(*llmEndpoint, "LLM_ENDPOINT", "https://api.perplexity.ai/chat/completions"),
			Model:    getConfigValue(*llmModel, "LLM_MODEL", "sonar-pro"),
		},
		ChatPage: ChatPageConfig{
			Enabled:  getBoolConfigValue(*chatPageEnabled, "CHAT_PAGE_ENABLED", false),
			URL:      getConfigValue(*chatPageURL, "CHAT_PAGE_URL", "https://www.perplexity.ai/"),
			Headless: getBoolConfigValue(*chatPageHeadless, "CHAT_PAGE_HEADLESS", true),
		},
		Bridge: BridgeConfig{
			Dir: getConfigValue(*bridgeDir, "BRIDGE_DIR", ""),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "120s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	bridgeTimeoutStr := getConfigValue(*bridgeTimeout, "BRIDGE_TIMEOUT", "10m")
	bridgeTimeoutDuration, err := time.ParseDuration(bridgeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge timeout %q: %w", bridgeTimeoutStr, err)
	}
	cfg.Bridge.ResponseTimeout = bridgeTimeoutDuration

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand the bridge directory (defaults to {data}/bridge).
	if err := cfg.expandBridgeDir(); err != nil {
		return nil, fmt.Errorf("invalid bridge directory: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// StorePath is the Badger database directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.Data.BasePath, "store")
}

// SearchPath is the directory holding the Bleve index.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Data.BasePath, "search")
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Analyzer.CacheSize <= 0 {
		return fmt.Errorf("invalid analyzer cache size: %d", c.Analyzer.CacheSize)
	}

	if c.LLM.Endpoint == "" {
		return errors.New("llm endpoint cannot be empty")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "SectionSmith", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandBridgeDir expands ~ and makes the path absolute.
// Defaults to {data}/bridge if not specified.
func (c *Config) expandBridgeDir() error {
	defaultPath := filepath.Join(c.Data.BasePath, "bridge")

	expanded, err := expandPath(c.Bridge.Dir, defaultPath)
	if err != nil {
		return err
	}
	c.Bridge.Dir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
