package config

import (
	"net/netip"
	"reflect"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{DataDir: "./data"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Expected %d workers, got %d", DefaultWorkers, cfg.Workers)
	}
	if cfg.QueueSize != DefaultQueueSize {
		t.Errorf("Expected queue size %d, got %d", DefaultQueueSize, cfg.QueueSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"no schedule", Config{DataDir: "d"}, false},
		{"descriptor", Config{DataDir: "d", Schedule: "@hourly", ScheduleTag: "edge"}, false},
		{"every", Config{DataDir: "d", Schedule: "@every 30m", ScheduleTag: "edge"}, false},
		{"five fields", Config{DataDir: "d", Schedule: "*/15 * * * *", ScheduleTag: "edge"}, false},
		{"bad schedule", Config{DataDir: "d", Schedule: "sometimes", ScheduleTag: "edge"}, true},
		{"schedule without tag", Config{DataDir: "d", Schedule: "@daily"}, true},
		{"no data dir", Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.IsAPIAuthEnabled() || cfg.IsMCPEnabled() {
		t.Error("Expected auth disabled without tokens")
	}
	cfg.APIAuthToken = "a"
	cfg.MCPAuthToken = "m"
	if !cfg.IsAPIAuthEnabled() || !cfg.IsMCPEnabled() {
		t.Error("Expected auth enabled with tokens")
	}
}

func TestClassifier_UsesExclusions(t *testing.T) {
	cfg := &Config{ExcludePrefixes: []netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")}}

	public, err := cfg.Classifier().IsPublic("203.0.113.5/24")
	if err != nil {
		t.Fatalf("IsPublic() error = %v", err)
	}
	if public {
		t.Error("Expected excluded prefix to be non-public")
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" 203.0.113.0/24, 198.51.100.0/24 ,,192.0.2.0/24\n")
	want := []string{"203.0.113.0/24", "198.51.100.0/24", "192.0.2.0/24"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(parseList("")) != 0 {
		t.Error("Expected empty list")
	}
}

func TestCoalesce(t *testing.T) {
	if got := coalesce("", "b", "c"); got != "b" {
		t.Errorf("Expected b, got %q", got)
	}
	if got := coalesce("", ""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}
