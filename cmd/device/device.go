package device

import (
	"context"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
	"github.com/martinsuchenak/edgetag/internal/model"
)

// Commands returns the device subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		listCommand(),
		getCommand(),
		setInterfacesCommand(),
		deleteCommand(),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a new device",
		Description: "Add a device with its interfaces. Interfaces use eth0=203.0.113.5/24@deprecated,10.0.0.1/8;eth1=8.8.8.8",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Device name", Required: true},
			&cli.StringFlag{Name: "status", Usage: "Device status", DefaultValue: model.DeviceStatusActive},
			&cli.StringFlag{Name: "description", Usage: "Device description"},
			&cli.StringFlag{Name: "tags", Usage: "Comma separated tag slugs"},
			&cli.StringFlag{Name: "interfaces", Aliases: []string{"i"}, Usage: "Interfaces and addresses"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			status := cmd.GetString("status")
			if !model.ValidDeviceStatus(status) {
				return fmt.Errorf("invalid status: %s", status)
			}
			interfaces, err := cmdutil.ParseInterfaces(cmd.GetString("interfaces"))
			if err != nil {
				return err
			}

			_, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			device := &model.Device{
				Name:        cmd.GetString("name"),
				Status:      status,
				Description: cmd.GetString("description"),
				Tags:        cmdutil.SplitList(cmd.GetString("tags")),
				Interfaces:  interfaces,
			}
			if err := store.CreateDevice(ctx, device); err != nil {
				return fmt.Errorf("creating device: %w", err)
			}

			fmt.Printf("Device created: %s (ID: %s)\n", device.Name, device.ID)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List devices",
		Description: "List devices, optionally filtered by status and tag",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "Only devices with this status"},
			&cli.StringFlag{Name: "tag", Usage: "Comma separated tag slugs (any match)"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			_, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			devices, err := store.ListDevices(ctx, &model.DeviceFilter{
				Status: cmd.GetString("status"),
				Tags:   cmdutil.SplitList(cmd.GetString("tag")),
			})
			if err != nil {
				return err
			}

			cmdutil.PrintDevices(os.Stdout, devices)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Show a device",
		Description: "Show a device by ID or name",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			_, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			device, err := store.GetDevice(ctx, cmd.GetStringArg("id"))
			if err != nil {
				return err
			}

			cmdutil.PrintDevice(os.Stdout, device)
			return nil
		},
	}
}

func setInterfacesCommand() *cli.Command {
	return &cli.Command{
		Name:        "set-interfaces",
		Usage:       "Replace the interfaces of a device",
		Description: "Replace all interfaces and addresses of a device",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "interfaces", Aliases: []string{"i"}, Usage: "Interfaces and addresses", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			interfaces, err := cmdutil.ParseInterfaces(cmd.GetString("interfaces"))
			if err != nil {
				return err
			}

			_, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			device, err := store.GetDevice(ctx, cmd.GetStringArg("id"))
			if err != nil {
				return err
			}
			if err := store.SetDeviceInterfaces(ctx, device.ID, interfaces); err != nil {
				return err
			}

			fmt.Printf("Interfaces updated: %s (%d)\n", device.Name, len(interfaces))
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a device",
		Description: "Delete a device by ID or name",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			_, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteDevice(ctx, cmd.GetStringArg("id")); err != nil {
				return err
			}

			fmt.Println("Device deleted")
			return nil
		},
	}
}
