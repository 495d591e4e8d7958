package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
	tu "github.com/desertthunder/jfin/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(t *testing.T, server *tu.FakeServer) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "jfin.db")

	output := &bytes.Buffer{}
	opts := RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	}
	if server != nil {
		opts.Jellyfin = server
	}

	return NewRunner(opts), output
}

func runApp(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "jfin",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"jfin"}, args...))
}

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp csv: %v", err)
	}
	return path
}

func catalogServer() *tu.FakeServer {
	return tu.NewFakeServer(
		models.CatalogTrack{ID: "1", Title: "Yesterday", Artist: "The Beatles", Album: "Help!"},
		models.CatalogTrack{ID: "2", Title: "Come Together", Artist: "The Beatles", Album: "Abbey Road"},
		models.CatalogTrack{ID: "3", Title: "Karma Police", Artist: "Radiohead", Album: "OK Computer"},
	)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			server := tu.NewFakeServer()

			runner := NewRunner(RunnerOpts{
				Config:   config,
				Jellyfin: server,
				Logger:   logger,
				Output:   output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.jellyfin != server {
				t.Error("expected jellyfin to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 7 {
			t.Fatalf("expected 7 commands, got %d", len(commands))
		}

		want := []string{"import", "catalog", "playlists", "runs", "cache", "setup", "spotify"}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("expected command %d to be %q, got %q", i, name, commands[i].Name)
			}
		}
	})
}

func TestImportCommand(t *testing.T) {
	csvContent := "trackName,artistName,albumName\n" +
		"Yesterday,The Beatles,Help!\n" +
		"Come Together,The Beatles,Abbey Road\n" +
		"No Such Song,Nobody,\n"

	t.Run("imports a CSV file end to end", func(t *testing.T) {
		server := catalogServer()
		runner, output := newTestRunner(t, server)
		path := writeTempCSV(t, "road trip.csv", csvContent)

		if err := runApp(t, runner, "import", "--no-cache", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if server.CreateCalls != 1 {
			t.Errorf("expected 1 create call, got %d", server.CreateCalls)
		}

		state := server.Playlists["road trip"]
		if state == nil {
			t.Fatal("expected playlist 'road trip' to be created")
		}
		if len(state.TrackIDs) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(state.TrackIDs))
		}

		result := output.String()
		if !strings.Contains(result, "created with 2 tracks") {
			t.Errorf("expected creation summary, got:\n%s", result)
		}
		if !strings.Contains(result, "Unmatched tracks:") {
			t.Errorf("expected unmatched section, got:\n%s", result)
		}
	})

	t.Run("dry run leaves the server untouched", func(t *testing.T) {
		server := catalogServer()
		runner, output := newTestRunner(t, server)
		path := writeTempCSV(t, "mix.csv", csvContent)

		if err := runApp(t, runner, "import", "--no-cache", "--dry-run", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if server.WriteCalls() != 0 {
			t.Errorf("expected no writes, got %d", server.WriteCalls())
		}
		if !strings.Contains(output.String(), "[dry run]") {
			t.Errorf("expected dry run marker, got:\n%s", output.String())
		}
	})

	t.Run("rejects fuzz outside 80-100", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalogServer())
		path := writeTempCSV(t, "mix.csv", csvContent)

		err := runApp(t, runner, "import", "--no-cache", "--fuzz", "50", path)
		if err == nil {
			t.Fatal("expected error for out-of-range fuzz")
		}
		if !strings.Contains(err.Error(), "--fuzz") {
			t.Errorf("expected fuzz error, got %v", err)
		}
	})

	t.Run("requires a file argument", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalogServer())

		err := runApp(t, runner, "import", "--no-cache")
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("fails when a playlist write is rejected", func(t *testing.T) {
		server := catalogServer()
		server.CreateErr = os.ErrPermission
		runner, _ := newTestRunner(t, server)
		path := writeTempCSV(t, "mix.csv", csvContent)

		err := runApp(t, runner, "import", "--no-cache", path)
		if err == nil {
			t.Fatal("expected error for failed write")
		}
		if !strings.Contains(err.Error(), "failed to write") {
			t.Errorf("expected write failure error, got %v", err)
		}
	})

	t.Run("writes unmatched report when requested", func(t *testing.T) {
		server := catalogServer()
		runner, _ := newTestRunner(t, server)
		path := writeTempCSV(t, "mix.csv", csvContent)
		reportPath := filepath.Join(t.TempDir(), "unmatched.csv")

		if err := runApp(t, runner, "import", "--no-cache", "--report", reportPath, path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, reportPath)
		content := tu.MustReadFile(t, reportPath)
		if !strings.Contains(content, "No Such Song") {
			t.Errorf("expected unmatched track in report, got:\n%s", content)
		}
	})

	t.Run("authenticates a config-constructed client before use", func(t *testing.T) {
		var createCalls int
		jellyfin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch {
			case req.Method == http.MethodGet && req.URL.Path == "/Users":
				fmt.Fprint(w, `[{"Id":"u1","Name":"admin"}]`)
			case req.Method == http.MethodGet && req.URL.Path == "/Users/u1/Items":
				if req.URL.Query().Get("IncludeItemTypes") == "Audio" {
					fmt.Fprint(w, `{"Items":[{"Id":"1","Name":"Yesterday","Album":"Help!","AlbumArtist":"The Beatles"}],"TotalRecordCount":1}`)
					return
				}
				fmt.Fprint(w, `{"Items":[],"TotalRecordCount":0}`)
			case req.Method == http.MethodPost && req.URL.Path == "/Playlists":
				createCalls++
				fmt.Fprint(w, `{"Id":"pl-1"}`)
			default:
				http.NotFound(w, req)
			}
		}))
		defer jellyfin.Close()

		runner, output := newTestRunner(t, nil)
		runner.config.Jellyfin = shared.JellyfinConfig{
			URL:      jellyfin.URL,
			Token:    "test-token",
			Username: "admin",
		}
		path := writeTempCSV(t, "mix.csv", "trackName,artistName,albumName\nYesterday,The Beatles,Help!\n")

		if err := runApp(t, runner, "import", "--no-cache", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if createCalls != 1 {
			t.Errorf("expected 1 playlist create on the server, got %d", createCalls)
		}
		if !strings.Contains(output.String(), "created with 1 tracks") {
			t.Errorf("expected creation summary, got:\n%s", output.String())
		}
	})

	t.Run("records run history in the database", func(t *testing.T) {
		server := catalogServer()
		runner, output := newTestRunner(t, server)
		path := writeTempCSV(t, "mix.csv", csvContent)

		if err := runApp(t, runner, "import", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output.Reset()
		if err := runApp(t, runner, "runs", "list"); err != nil {
			t.Fatalf("expected no error listing runs, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Found 1 runs") {
			t.Errorf("expected one recorded run, got:\n%s", result)
		}
		if !strings.Contains(result, path) {
			t.Errorf("expected run source %s, got:\n%s", path, result)
		}
	})
}

func TestCatalogSearchCommand(t *testing.T) {
	t.Run("prints scored results", func(t *testing.T) {
		runner, output := newTestRunner(t, catalogServer())

		if err := runApp(t, runner, "catalog", "search", "--limit", "1", "Karma Police"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Radiohead - Karma Police") {
			t.Errorf("expected top match in output, got:\n%s", result)
		}
		if !strings.Contains(result, "Catalog: 3 tracks") {
			t.Errorf("expected catalog size, got:\n%s", result)
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalogServer())

		if err := runApp(t, runner, "catalog", "search"); err == nil {
			t.Fatal("expected error for missing query")
		}
	})
}

func TestPlaylistsCommands(t *testing.T) {
	seedPlaylist := func(t *testing.T, server *tu.FakeServer) {
		t.Helper()
		if _, err := server.CreatePlaylist(context.Background(), "Evening", []string{"1", "3"}, false); err != nil {
			t.Fatalf("failed to seed playlist: %v", err)
		}
	}

	t.Run("list shows name and track count", func(t *testing.T) {
		server := catalogServer()
		seedPlaylist(t, server)
		runner, output := newTestRunner(t, server)

		if err := runApp(t, runner, "playlists", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Evening") {
			t.Errorf("expected playlist name, got:\n%s", result)
		}
		if !strings.Contains(result, "Tracks: 2") {
			t.Errorf("expected track count, got:\n%s", result)
		}
	})

	t.Run("export writes a markdown file", func(t *testing.T) {
		server := catalogServer()
		seedPlaylist(t, server)
		runner, _ := newTestRunner(t, server)
		outPath := filepath.Join(t.TempDir(), "evening.md")

		if err := runApp(t, runner, "playlists", "export", "--name", "Evening", "--format", "markdown", "--output", outPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, outPath)
		content := tu.MustReadFile(t, outPath)
		if !strings.Contains(content, "# Evening") {
			t.Errorf("expected playlist heading, got:\n%s", content)
		}
		if !strings.Contains(content, "Radiohead - Karma Police") {
			t.Errorf("expected track line, got:\n%s", content)
		}
	})

	t.Run("export of unknown playlist fails", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalogServer())

		err := runApp(t, runner, "playlists", "export", "--name", "Nope", "--format", "text")
		if err == nil {
			t.Fatal("expected error for unknown playlist")
		}
		if !strings.Contains(err.Error(), "playlist not found") {
			t.Errorf("expected playlist not found error, got %v", err)
		}
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		server := catalogServer()
		seedPlaylist(t, server)
		runner, _ := newTestRunner(t, server)

		err := runApp(t, runner, "playlists", "export", "--name", "Evening", "--format", "xml")
		if err == nil {
			t.Fatal("expected error for unknown format")
		}
	})
}

func TestCacheCommands(t *testing.T) {
	t.Run("stats and purge round trip", func(t *testing.T) {
		runner, output := newTestRunner(t, catalogServer())
		path := writeTempCSV(t, "mix.csv", "trackName,artistName,albumName\nYesterday,The Beatles,Help!\n")

		if err := runApp(t, runner, "import", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output.Reset()
		if err := runApp(t, runner, "cache", "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Cached matches: 1") {
			t.Errorf("expected one cached match, got:\n%s", output.String())
		}

		output.Reset()
		if err := runApp(t, runner, "cache", "purge"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Purged 1 cached matches") {
			t.Errorf("expected purge count, got:\n%s", output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("setup config creates file from template", func(t *testing.T) {
		runner, output := newTestRunner(t, nil)
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := runApp(t, runner, "setup", "config", "--config", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, configPath)
		if !strings.Contains(output.String(), "Config file created") {
			t.Errorf("expected confirmation, got:\n%s", output.String())
		}
	})

	t.Run("setup config fails when file exists", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("# existing"), 0644); err != nil {
			t.Fatalf("failed to write existing config: %v", err)
		}

		if err := runApp(t, runner, "setup", "config", "--config", configPath); err == nil {
			t.Fatal("expected error for existing config file")
		}
	})

	t.Run("setup database runs migrations", func(t *testing.T) {
		runner, output := newTestRunner(t, nil)
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")

		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "jfin.db")
		if err := shared.SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		if err := runApp(t, runner, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("expected confirmation, got:\n%s", output.String())
		}
	})

	t.Run("setup jellyfin requires curl input", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)

		if err := runApp(t, runner, "setup", "jellyfin"); err == nil {
			t.Fatal("expected error for missing curl input")
		}
	})
}

func TestSpotifyCommands(t *testing.T) {
	t.Run("playlists without credentials fails", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)

		err := runApp(t, runner, "spotify", "playlists")
		if err == nil {
			t.Fatal("expected error without spotify credentials")
		}
	})

	t.Run("import --from-spotify without credentials fails", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)

		err := runApp(t, runner, "import", "--from-spotify", "--no-cache")
		if err == nil {
			t.Fatal("expected error without spotify credentials")
		}
	})
}

func TestCallbackAddr(t *testing.T) {
	cases := []struct {
		name        string
		redirectURI string
		want        string
		wantErr     bool
	}{
		{name: "empty uses default", redirectURI: "", want: "localhost:8080"},
		{name: "host and port", redirectURI: "http://localhost:9000/callback", want: "localhost:9000"},
		{name: "host only", redirectURI: "http://127.0.0.1/callback", want: "127.0.0.1"},
		{name: "garbage", redirectURI: "://nope", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := callbackAddr(tc.redirectURI)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if addr != tc.want {
				t.Errorf("expected %q, got %q", tc.want, addr)
			}
		})
	}
}
