package models

import (
	"path"

	"github.com/kardianos/osext"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where Rota stores all of its data - defaults to the /data subdirectory of the folder, the
	// Rota executable resides in
	DataDir string `json:"dataDir"`
	// The credentials for the default admin account that is created when the user table is empty
	DefaultAdmin *DefaultUserConfig `json:"defaultAdmin"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress"`
	// The minimum level of log messages that will be written ("debug", "info", "warn", "error")
	LogLevel string `json:"logLevel"`
	// Connection settings for the Redis instance backing the list cache
	Redis RedisConfig `json:"redis"`
	// The per-IP request limits for the different endpoint groups
	RateLimits RateLimitConfig `json:"rateLimits"`
	// Keys that grant access to the service-to-service API mount
	APIKeys []string `json:"apiKeys"`
}

// The DefaultUserConfig struct configures the admin user that is created on first startup
type DefaultUserConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RedisConfig configures the optional Redis-backed list cache. An empty address
// disables caching entirely.
type RedisConfig struct {
	// Address of the Redis server in host:port form
	Addr string `json:"addr"`
	// How long cached list results stay valid
	CacheTTLSeconds uint `json:"cacheTtlSeconds"`
}

// A RateLimitWindow is a fixed window counter limit: at most Limit requests per
// WindowSeconds from the same IP address
type RateLimitWindow struct {
	Limit         int  `json:"limit"`
	WindowSeconds uint `json:"windowSeconds"`
}

// RateLimitConfig holds the separate fixed windows for general API traffic, login
// attempts and account creation
type RateLimitConfig struct {
	API          RateLimitWindow `json:"api"`
	Login        RateLimitWindow `json:"login"`
	UserCreation RateLimitWindow `json:"userCreation"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir: path.Join(execDir, "data"),
		DefaultAdmin: &DefaultUserConfig{
			Email:    "admin@localhost",
			Password: "changeme",
		},
		ListenAddress: ":3000",
		LogLevel:      "info",
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			CacheTTLSeconds: 300,
		},
		RateLimits: RateLimitConfig{
			API:          RateLimitWindow{Limit: 100, WindowSeconds: 900},
			Login:        RateLimitWindow{Limit: 10, WindowSeconds: 3600},
			UserCreation: RateLimitWindow{Limit: 3, WindowSeconds: 86400},
		},
		APIKeys: []string{},
	}, nil
}
