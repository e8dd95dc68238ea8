package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/services/compare"
	"github.com/bobmcallan/fundlens/internal/storage"
)

// App holds the initialized storage and services shared by cmd/fundlens-server.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Storage        interfaces.StorageManager
	CompareService interfaces.CompareService
	StartupTime    time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, FUNDLENS_CONFIG,
// fundlens.toml next to the binary, then config/fundlens.toml.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("FUNDLENS_CONFIG"); env != "" {
		return env
	}
	configPath = filepath.Join(getBinaryDir(), "fundlens.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "config/fundlens.toml" // fallback for development
	}
	return configPath
}

// NewApp loads configuration and initializes logging, storage and the compare service.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig initializes the app from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	compareService := compare.NewService(storageManager.FundStore(), config.Compare, logger)

	a := &App{
		Config:         config,
		Logger:         logger,
		Storage:        storageManager,
		CompareService: compareService,
		StartupTime:    startupStart,
	}

	logger.Info().
		Str("backend", config.Storage.Backend).
		Bool("cache", config.Cache.Enabled).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
		a.Storage = nil
	}
}
