package cmdutil

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/martinsuchenak/edgetag/internal/model"
)

func TestParseInterfaces(t *testing.T) {
	got, err := ParseInterfaces("eth0=203.0.113.5/24@deprecated, 10.0.0.1/8 ; eth1=8.8.8.8;lo=")
	if err != nil {
		t.Fatalf("ParseInterfaces() error = %v", err)
	}

	want := []model.Interface{
		{Name: "eth0", Addresses: []model.IPAddress{
			{Address: "203.0.113.5/24", Status: model.AddressStatusDeprecated},
			{Address: "10.0.0.1/8", Status: model.AddressStatusActive},
		}},
		{Name: "eth1", Addresses: []model.IPAddress{
			{Address: "8.8.8.8", Status: model.AddressStatusActive},
		}},
		{Name: "lo", Addresses: []model.IPAddress{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestParseInterfaces_Errors(t *testing.T) {
	tests := []string{
		"eth0",
		"=8.8.8.8",
		"eth0=8.8.8.8;eth0=1.1.1.1",
		"eth0=8.8.8.8@gone",
		"eth0=not-an-ip",
		"eth0=2001:db8::1/64",
	}

	for _, spec := range tests {
		if _, err := ParseInterfaces(spec); err == nil {
			t.Errorf("ParseInterfaces(%q) expected error", spec)
		}
	}
}

func TestParseInterfaces_Empty(t *testing.T) {
	got, err := ParseInterfaces("")
	if err != nil || len(got) != 0 {
		t.Errorf("Expected no interfaces, got %+v, %v", got, err)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, b,,c ")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Unexpected split %v", got)
	}
	if SplitList("") != nil {
		t.Error("Expected nil for empty input")
	}
}

func TestLevelLabel(t *testing.T) {
	if got := LevelLabel(model.LogSuccess, false); got != "SUCCESS" {
		t.Errorf("Expected plain label, got %q", got)
	}
	colored := LevelLabel(model.LogFailure, true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Errorf("Expected red label, got %q", colored)
	}
}

func TestPrintJob(t *testing.T) {
	j := &model.Job{
		ID:      "job-1",
		Tag:     "public-facing",
		Commit:  true,
		Trigger: model.TriggerCLI,
		Status:  model.JobStatusCompleted,
		Log: []model.LogEntry{
			{Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Level: model.LogSuccess, Message: "edge has public IP 8.8.8.8/32, tagged Public Facing"},
		},
		Result: []model.DeviceRef{{ID: "d1", Name: "edge"}},
	}

	var buf bytes.Buffer
	PrintJob(&buf, j, false)

	out := buf.String()
	for _, want := range []string{"Mode:    commit", "12:00:00 SUCCESS edge has public IP", "Newly tagged devices (1)", "d1\tedge"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("Expected buffer not to be a terminal")
	}
}
