package inventory

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

// Commands returns the inventory import/export subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:        "import",
			Usage:       "Import tags and devices",
			Description: "Import an inventory file (JSON or TOML). Existing tags and devices are skipped.",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "file", Required: true},
			},
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Usage: "json or toml (default: from file extension)"},
			},
			Run: func(ctx context.Context, cmd *cli.Command) error {
				path := cmd.GetStringArg("file")
				format, err := resolveFormat(cmd.GetString("format"), path)
				if err != nil {
					return err
				}

				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				stats, err := storage.ImportInventory(ctx, store, f, format)
				if err != nil {
					return err
				}

				fmt.Printf("Tags: %d created, %d skipped\n", stats.TagsCreated, stats.TagsSkipped)
				fmt.Printf("Devices: %d created, %d skipped\n", stats.DevicesCreated, stats.DevicesSkipped)
				return nil
			},
		},
		{
			Name:        "export",
			Usage:       "Export tags and devices",
			Description: "Write the inventory to a file, or to stdout when the file is '-'",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "file", Required: true},
			},
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Usage: "json or toml (default: from file extension, json for stdout)"},
			},
			Run: func(ctx context.Context, cmd *cli.Command) error {
				path := cmd.GetStringArg("file")

				format := cmd.GetString("format")
				if format == "" && path == "-" {
					format = storage.FormatJSON
				}
				format, err := resolveFormat(format, path)
				if err != nil {
					return err
				}

				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				var w io.Writer = os.Stdout
				if path != "-" {
					f, err := os.Create(path)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}

				return storage.ExportInventory(ctx, store, w, format)
			},
		},
	}
}

func resolveFormat(format, path string) (string, error) {
	switch format {
	case storage.FormatJSON, storage.FormatTOML:
		return format, nil
	case "":
		return storage.FormatFromPath(path)
	}
	return "", fmt.Errorf("unsupported format %q", format)
}
