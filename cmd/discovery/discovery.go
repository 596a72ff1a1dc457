package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/snmp"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

// Commands returns the discovery subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		SNMPImportCommand(),
	}
}

// SNMPImportCommand reads a device's interface table over SNMP and stores it
func SNMPImportCommand() *cli.Command {
	return &cli.Command{
		Name:        "snmp-import",
		Usage:       "Import interfaces from a device over SNMP",
		Description: "Walk the IP address table of an SNMP v2c agent and replace the device's interfaces with what it reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "target",
				Usage:    "Agent host or IP",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "device",
				Usage:    "Device ID or name to update",
				Required: true,
			},
			&cli.StringFlag{
				Name:         "community",
				Usage:        "SNMP v2c community",
				DefaultValue: "public",
				EnvVars:      []string{"EDGETAG_SNMP_COMMUNITY"},
			},
			&cli.IntFlag{
				Name:         "port",
				Usage:        "Agent UDP port",
				DefaultValue: 161,
			},
			&cli.IntFlag{
				Name:         "timeout",
				Usage:        "Request timeout in seconds",
				DefaultValue: 5,
			},
			&cli.BoolFlag{
				Name:  "create",
				Usage: "Create the device when it does not exist",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the interfaces without storing them",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			port := cmd.GetInt("port")
			if port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %d", port)
			}

			collector, closeConn, err := snmp.Dial(ctx, snmp.Options{
				Target:    cmd.GetString("target"),
				Port:      uint16(port),
				Community: cmd.GetString("community"),
				Timeout:   time.Duration(cmd.GetInt("timeout")) * time.Second,
				Retries:   1,
			})
			if err != nil {
				return err
			}
			defer closeConn()

			interfaces, err := collector.Interfaces()
			if err != nil {
				return err
			}
			log.Info("SNMP walk complete", "target", cmd.GetString("target"), "interfaces", len(interfaces))

			name := cmd.GetString("device")
			if cmd.GetBool("dry-run") {
				cmdutil.PrintDevice(os.Stdout, &model.Device{Name: name, Interfaces: interfaces})
				return nil
			}

			_, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			device, err := upsertInterfaces(ctx, store, name, interfaces, cmd.GetBool("create"))
			if err != nil {
				return err
			}

			fmt.Printf("Interfaces imported: %s (%d)\n", device.Name, len(interfaces))
			return nil
		},
	}
}

// upsertInterfaces replaces the interfaces of the named device, creating
// it first when create is set
func upsertInterfaces(ctx context.Context, store storage.DeviceStorage, name string, interfaces []model.Interface, create bool) (*model.Device, error) {
	device, err := store.GetDevice(ctx, name)
	if errors.Is(err, storage.ErrDeviceNotFound) && create {
		device = &model.Device{Name: name, Status: model.DeviceStatusActive, Interfaces: interfaces}
		if err := store.CreateDevice(ctx, device); err != nil {
			return nil, fmt.Errorf("creating device: %w", err)
		}
		return device, nil
	}
	if err != nil {
		return nil, err
	}

	if err := store.SetDeviceInterfaces(ctx, device.ID, interfaces); err != nil {
		return nil, fmt.Errorf("storing interfaces: %w", err)
	}
	return device, nil
}
