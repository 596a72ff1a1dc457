package inventory

import "testing"

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format  string
		path    string
		want    string
		wantErr bool
	}{
		{"", "inventory.json", "json", false},
		{"", "inventory.toml", "toml", false},
		{"toml", "inventory.txt", "toml", false},
		{"json", "-", "json", false},
		{"yaml", "inventory.yaml", "", true},
		{"", "inventory.txt", "", true},
	}

	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveFormat(%q, %q) error = %v, wantErr %v", tt.format, tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, want %q", tt.format, tt.path, got, tt.want)
		}
	}
}
