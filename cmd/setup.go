package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadOrDefaultConfig reads the config at path, falling back to the runner's
// config and then to defaults.
func (r *Runner) loadOrDefaultConfig(configPath string) *shared.Config {
	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err == nil {
			return config
		}
		r.logger.Warn("failed to load config, using defaults", "error", err)
	}

	if r.config != nil {
		return r.config
	}
	return shared.DefaultConfig()
}

// SetupConfig creates a config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config file created at %s\n", configPath)
	r.writePlain("Edit it to set your Jellyfin URL and token, or run: jfin setup jellyfin\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.loadOrDefaultConfig(configPath)

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	return nil
}

// SetupJellyfin configures Jellyfin credentials from browser headers.
//
// Accepts a cURL command copied from the Jellyfin web client (DevTools,
// "Copy as cURL") and extracts the server URL and API token from it.
func (r *Runner) SetupJellyfin(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	username := cmd.String("username")
	configPath := cmd.String("config")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for Jellyfin credentials")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	serverURL, token, err := curlHeaders.JellyfinAuth()
	if err != nil {
		return err
	}

	config := r.loadOrDefaultConfig(configPath)
	config.Jellyfin.URL = serverURL
	config.Jellyfin.Token = token
	if username != "" {
		config.Jellyfin.Username = username
	}

	// Verify the credentials before persisting them.
	svc, err := services.NewJellyfinService(config.Jellyfin)
	if err != nil {
		return fmt.Errorf("failed to create Jellyfin client: %w", err)
	}
	if err := svc.Authenticate(ctx); err != nil {
		return fmt.Errorf("credentials rejected by %s: %w", serverURL, err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.config = config
	r.jellyfin = svc

	r.writePlain("✓ Connected to %s\n", serverURL)
	r.writePlain("✓ Credentials saved to %s\n", configPath)
	return nil
}
