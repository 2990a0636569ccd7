package internal

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
)

// ConfigService manages the application's configuration file and provides lookups
// into the configured service API keys
type ConfigService interface {
	// IsValidAPIKey checks whether the given API key belongs to a configured service client
	IsValidAPIKey(key string) bool
	// Load loads the application config from its default file location
	Load(ctx context.Context) error
	// LoadFromFile loads the configuration from the given JSON file and returns it
	LoadFromFile(ctx context.Context, filename string) error
	// Write writes the current application configuration to the default file name
	Write(ctx context.Context) error
	// WriteToFile writes the current application configuration to a JSON file
	WriteToFile(ctx context.Context, filename string) error
	// GetConfig retuns the current application configuration
	GetConfig(ctx context.Context) models.AppConfig
}

// -- ConfigService implementation -------------------------------------------------------------------------------------

// Simple index structure to speed up API key lookups
type apiKeyIdx struct {
	sync.RWMutex
	data map[string]bool
}

type configService struct {
	configFilename string
	config         *models.AppConfig
	apiKeys        *apiKeyIdx
}

// NewConfigService creates a new configuration service instance with the given default file name
func NewConfigService(configFilename string) ConfigService {
	return &configService{
		configFilename: configFilename,
		apiKeys: &apiKeyIdx{
			data: make(map[string]bool),
		},
	}
}

func (s *configService) buildAPIKeyIdx(ctx context.Context) {
	logger := ctxhelper.Logger(ctx)
	logger.Info("Rebuilding index of service API keys...")
	s.apiKeys.Lock()
	defer s.apiKeys.Unlock()
	s.apiKeys.data = make(map[string]bool)
	if s.config != nil {
		for _, key := range s.config.APIKeys {
			s.apiKeys.data[key] = true
		}
	}
}

// IsValidAPIKey checks whether the given API key belongs to a configured service client
func (s *configService) IsValidAPIKey(key string) bool {
	if key == "" {
		return false
	}
	s.apiKeys.RLock()
	defer s.apiKeys.RUnlock()
	for configured := range s.apiKeys.data {
		if subtle.ConstantTimeCompare([]byte(configured), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// Load loads the application config from its default file location
func (s *configService) Load(ctx context.Context) error {
	return s.LoadFromFile(ctx, s.configFilename)
}

// LoadFromFile loads the configuration from the given JSON file and returns it
func (s *configService) LoadFromFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Loading configuration file")
	conf, err := models.GetDefaultConfig()
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to create default config")
	}
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: cannot load configuration file")
	}
	defer f.Close()
	if err = json.NewDecoder(f).Decode(&conf); err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to decode configuration file")
	}
	s.config = conf
	s.buildAPIKeyIdx(ctx)
	return nil
}

// Write writes the current application configuration to the default file name
func (s *configService) Write(ctx context.Context) error {
	return s.WriteToFile(ctx, s.configFilename)
}

// WriteToFile writes the current application configuration to a JSON file
func (s *configService) WriteToFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Writing configuration file")
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "WriteToFile: Cannot open configuration file '%s' to write to", filename)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	conf := s.GetConfig(ctx)
	if err := enc.Encode(&conf); err != nil {
		return errors.Wrap(err, "WriteToFile: Failed to serialize configuration data")
	}
	return nil
}

// GetConfig retuns the current application configuration
func (s *configService) GetConfig(ctx context.Context) models.AppConfig {
	var ret models.AppConfig
	if s.config != nil {
		ret = *s.config
	} else {
		if tmp, err := models.GetDefaultConfig(); err == nil {
			ret = *tmp
		}
	}
	return ret
}
