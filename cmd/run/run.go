// Package run implements the command that tags public-facing devices.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
	"github.com/martinsuchenak/edgetag/internal/config"
	"github.com/martinsuchenak/edgetag/internal/job"
	"github.com/martinsuchenak/edgetag/internal/model"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "run",
		Usage:       "Tag public-facing devices",
		Description: "Apply a tag to every active device with a public IPv4 address on a non-deprecated interface address",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "tag",
				Usage:        "Tag to apply (ID, slug or name)",
				DefaultValue: config.DefaultTag,
				EnvVars:      []string{"EDGETAG_TAG"},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would change and roll back",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the job record as JSON",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, store, err := cmdutil.Open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := job.NewRunner(store, cfg.Classifier(), nil)
			j, runErr := runner.RunNow(ctx, cmd.GetString("tag"), !cmd.GetBool("dry-run"), model.TriggerCLI)
			if j == nil {
				return runErr
			}

			if cmd.GetBool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(j); err != nil {
					return err
				}
			} else {
				cmdutil.PrintJob(os.Stdout, j, cmdutil.IsTerminal(os.Stdout))
			}

			if runErr != nil {
				return fmt.Errorf("job %s failed: %w", j.ID, runErr)
			}
			return nil
		},
	}
}
