package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "jfin.db" {
			t.Errorf("expected database path jfin.db, got %s", config.Database.Path)
		}

		if config.Jellyfin.URL != "http://localhost:8096" {
			t.Errorf("expected jellyfin URL http://localhost:8096, got %s", config.Jellyfin.URL)
		}

		if config.Import.Fuzz != 100 {
			t.Errorf("expected default fuzz 100, got %d", config.Import.Fuzz)
		}

		if config.Import.AnyAlbum {
			t.Error("expected any_album to default to false")
		}

		if config.Import.Public {
			t.Error("expected public to default to false")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[jellyfin]
url = "https://media.example.com"
token = "abc123"
username = "alice"
skip_tls = true

[import]
fuzz = 85
any_album = true
public = true

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Jellyfin.URL != "https://media.example.com" {
			t.Errorf("expected jellyfin URL https://media.example.com, got %s", config.Jellyfin.URL)
		}

		if config.Jellyfin.Token != "abc123" {
			t.Errorf("expected token abc123, got %s", config.Jellyfin.Token)
		}

		if config.Import.Fuzz != 85 {
			t.Errorf("expected fuzz 85, got %d", config.Import.Fuzz)
		}

		if !config.Import.AnyAlbum {
			t.Error("expected any_album true")
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
