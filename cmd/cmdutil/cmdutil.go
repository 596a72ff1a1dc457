// Package cmdutil holds helpers shared by the CLI commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paularlott/cli"
	"golang.org/x/term"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/config"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

// Open loads the global configuration and opens the store it points at
func Open(cmd *cli.Command) (*config.Config, *storage.SQLiteStorage, error) {
	cfg, err := config.LoadBase(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := OpenStorage(cfg)
	return cfg, store, err
}

// OpenStorage opens the SQLite store under cfg.DataDir
func OpenStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	log.Debug("Storage opened", "path", store.GetDatabasePath())
	return store, nil
}

// ParseInterfaces parses the interface flag syntax
//
//	eth0=203.0.113.5/24@deprecated,10.0.0.1/8;eth1=8.8.8.8
//
// Interfaces are separated by ';', addresses by ','. An optional '@status'
// suffix sets the address status, which defaults to active.
func ParseInterfaces(spec string) ([]model.Interface, error) {
	var interfaces []model.Interface
	seen := map[string]bool{}

	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, list, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid interface %q, expected name=address[,address]", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate interface %s", name)
		}
		seen[name] = true

		iface := model.Interface{Name: name, Addresses: []model.IPAddress{}}
		for _, item := range strings.Split(list, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			address, status, _ := strings.Cut(item, "@")
			if status == "" {
				status = model.AddressStatusActive
			}
			if !model.ValidAddressStatus(status) {
				return nil, fmt.Errorf("invalid address status %q on %s", status, name)
			}
			if _, err := classify.ParseInterface(address); err != nil {
				return nil, fmt.Errorf("interface %s: %w", name, err)
			}
			iface.Addresses = append(iface.Addresses, model.IPAddress{Address: address, Status: status})
		}
		interfaces = append(interfaces, iface)
	}
	return interfaces, nil
}

// SplitList splits a comma separated flag value
func SplitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiBlue   = "\033[34m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

// LevelLabel renders a job log level, coloured when color is set
func LevelLabel(level string, color bool) string {
	label := fmt.Sprintf("%-7s", strings.ToUpper(level))
	if !color {
		return label
	}

	switch level {
	case model.LogSuccess:
		return ansiGreen + label + ansiReset
	case model.LogInfo:
		return ansiBlue + label + ansiReset
	case model.LogWarning:
		return ansiYellow + label + ansiReset
	case model.LogFailure:
		return ansiRed + label + ansiReset
	}
	return label
}

// PrintJob writes a job summary and its log
func PrintJob(w io.Writer, j *model.Job, color bool) {
	mode := "commit"
	if !j.Commit {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "Job:     %s\n", j.ID)
	fmt.Fprintf(w, "Status:  %s\n", j.Status)
	fmt.Fprintf(w, "Tag:     %s\n", j.Tag)
	fmt.Fprintf(w, "Mode:    %s\n", mode)
	fmt.Fprintf(w, "Trigger: %s\n", j.Trigger)
	if j.Error != "" {
		fmt.Fprintf(w, "Error:   %s\n", j.Error)
	}

	if len(j.Log) > 0 {
		fmt.Fprintln(w)
		for _, e := range j.Log {
			fmt.Fprintf(w, "%s %s %s\n", e.Time.Format("15:04:05"), LevelLabel(e.Level, color), e.Message)
		}
	}

	fmt.Fprintln(w)
	if len(j.Result) == 0 {
		fmt.Fprintln(w, "No devices newly tagged")
		return
	}
	fmt.Fprintf(w, "Newly tagged devices (%d):\n", len(j.Result))
	for _, ref := range j.Result {
		fmt.Fprintf(w, "  %s\t%s\n", ref.ID, ref.Name)
	}
}

// PrintDevices writes one line per device
func PrintDevices(w io.Writer, devices []model.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices found")
		return
	}
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Status, strings.Join(d.Tags, ","))
	}
}

// PrintDevice writes the details of one device
func PrintDevice(w io.Writer, device *model.Device) {
	fmt.Fprintf(w, "ID:          %s\n", device.ID)
	fmt.Fprintf(w, "Name:        %s\n", device.Name)
	fmt.Fprintf(w, "Status:      %s\n", device.Status)
	if device.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", device.Description)
	}
	if len(device.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(device.Tags, ", "))
	}
	for _, iface := range device.Interfaces {
		fmt.Fprintf(w, "Interface:   %s\n", iface.Name)
		for _, a := range iface.Addresses {
			fmt.Fprintf(w, "             %s (%s)\n", a.Address, a.Status)
		}
	}
}
