package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"github.com/martinsuchenak/edgetag/cmd/device"
	"github.com/martinsuchenak/edgetag/cmd/discovery"
	"github.com/martinsuchenak/edgetag/cmd/inventory"
	"github.com/martinsuchenak/edgetag/cmd/jobs"
	"github.com/martinsuchenak/edgetag/cmd/run"
	"github.com/martinsuchenak/edgetag/cmd/server"
	"github.com/martinsuchenak/edgetag/cmd/tag"
	"github.com/martinsuchenak/edgetag/internal/config"
	"github.com/martinsuchenak/edgetag/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	log.Configure("info", "console")

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:         "log-level",
			Usage:        "Log level (trace, debug, info, warn, error)",
			DefaultValue: "info",
			EnvVars:      []string{"EDGETAG_LOG_LEVEL"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:         "log-format",
			Usage:        "Log format (console, json)",
			DefaultValue: "console",
			EnvVars:      []string{"EDGETAG_LOG_FORMAT"},
			Global:       true,
		},
	}

	rootCmd := &cli.Command{
		Name:        "edgetag",
		Version:     version,
		Usage:       "Tag devices that expose a public IPv4 address",
		Description: "Keeps a device inventory and tags every device with a publicly routable interface address",
		Flags:       append(flags, config.GlobalFlags()...),
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			log.Debug("edgetag starting", "version", version, "commit", commit, "date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			run.Command(),
			server.Command(),
			{
				Name:        "device",
				Usage:       "Device management commands",
				Description: "Manage devices and their interfaces",
				Commands:    device.Commands(),
			},
			{
				Name:        "tag",
				Usage:       "Tag management commands",
				Description: "Manage the tags devices can carry",
				Commands:    tag.Commands(),
			},
			{
				Name:        "inventory",
				Usage:       "Inventory import and export",
				Description: "Move tags and devices in and out as JSON or TOML",
				Commands:    inventory.Commands(),
			},
			{
				Name:        "discovery",
				Usage:       "Discovery commands",
				Description: "Collect interface addresses from devices",
				Commands:    discovery.Commands(),
			},
			{
				Name:        "jobs",
				Usage:       "Job history",
				Description: "Inspect past tagging runs",
				Commands:    jobs.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
