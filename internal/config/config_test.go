package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	})
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `flow:
  ignored_services:
    - "System.out"
    - "LOG"
  collapse_details: true

store:
  enabled: false
  path: /tmp/cache.db

server:
  port: 9000

neo4j:
  uri: bolt://localhost:7687
  user: analyst
`
	configPath := filepath.Join(tmpDir, DefaultConfigFile+"."+DefaultConfigType)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	chdir(t, tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Flow.IgnoredServices) != 2 {
		t.Fatalf("len(Flow.IgnoredServices) = %d, want 2", len(cfg.Flow.IgnoredServices))
	}
	if cfg.Flow.IgnoredServices[1] != "LOG" {
		t.Errorf("Flow.IgnoredServices[1] = %q, want %q", cfg.Flow.IgnoredServices[1], "LOG")
	}
	if !cfg.Flow.CollapseDetails {
		t.Error("Flow.CollapseDetails = false, want true")
	}
	if cfg.Store.Enabled {
		t.Error("Store.Enabled = true, want false")
	}
	if cfg.Store.Path != "/tmp/cache.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "/tmp/cache.db")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("Neo4j.URI = %q, want %q", cfg.Neo4j.URI, "bolt://localhost:7687")
	}
	if cfg.Neo4j.User != "analyst" {
		t.Errorf("Neo4j.User = %q, want %q", cfg.Neo4j.User, "analyst")
	}
}

func TestLoadDefaults(t *testing.T) {
	// Load from an empty temp directory (no config file)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Flow.IgnoredServices) != 2 {
		t.Fatalf("len(Flow.IgnoredServices) = %d, want 2 (defaults)", len(cfg.Flow.IgnoredServices))
	}
	if cfg.Flow.IgnoredServices[0] != "System.out" || cfg.Flow.IgnoredServices[1] != "System.err" {
		t.Errorf("Flow.IgnoredServices = %v, want [System.out System.err]", cfg.Flow.IgnoredServices)
	}
	if !cfg.Store.Enabled {
		t.Error("Store.Enabled = false, want true (default)")
	}
	if cfg.Store.Path != ".graviti/graph.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, ".graviti/graph.db")
	}
	if cfg.Server.Port != 4977 {
		t.Errorf("Server.Port = %d, want 4977 (default)", cfg.Server.Port)
	}
	if cfg.Neo4j.User != "neo4j" {
		t.Errorf("Neo4j.User = %q, want %q", cfg.Neo4j.User, "neo4j")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "port out of range",
			cfg:     Config{Server: ServerConfig{Port: 70000}},
			wantErr: true,
			errMsg:  "server port",
		},
		{
			name:    "negative port",
			cfg:     Config{Server: ServerConfig{Port: -1}},
			wantErr: true,
			errMsg:  "server port",
		},
		{
			name:    "store enabled without path",
			cfg:     Config{Store: StoreConfig{Enabled: true}},
			wantErr: true,
			errMsg:  "store path is required",
		},
		{
			name:    "neo4j uri without scheme",
			cfg:     Config{Neo4j: Neo4jConfig{URI: "localhost:7687"}},
			wantErr: true,
			errMsg:  "scheme",
		},
		{
			name: "valid config",
			cfg: Config{
				Store:  StoreConfig{Enabled: true, Path: ".graviti/graph.db"},
				Server: ServerConfig{Port: 4977},
				Neo4j:  Neo4jConfig{URI: "bolt://localhost:7687"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate() error = nil, want error containing %q", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want error containing %q", err, tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DefaultConfigFile+"."+DefaultConfigType)

	cfg := &Config{
		Flow:   FlowConfig{IgnoredServices: []string{"System.out"}, ShowSourceRefs: true},
		Store:  StoreConfig{Enabled: true, Path: ".graviti/graph.db"},
		Server: ServerConfig{Port: 4977},
	}
	if err := WriteConfig(cfg, path); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# graviti configuration\n") {
		t.Errorf("written config missing header:\n%s", data)
	}

	chdir(t, tmpDir)
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !loaded.Flow.ShowSourceRefs {
		t.Error("Flow.ShowSourceRefs = false after round trip, want true")
	}
	if loaded.Server.Port != 4977 {
		t.Errorf("Server.Port = %d after round trip, want 4977", loaded.Server.Port)
	}
}
