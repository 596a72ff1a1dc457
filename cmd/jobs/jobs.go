package jobs

import (
	"context"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
)

// Commands returns the job history subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:        "list",
			Usage:       "List recent jobs",
			Description: "List tagging jobs, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Usage: "Maximum number of jobs", DefaultValue: 20},
			},
			Run: func(ctx context.Context, cmd *cli.Command) error {
				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				jobs, err := store.ListJobs(ctx, cmd.GetInt("limit"))
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Println("No jobs found")
					return nil
				}
				for _, j := range jobs {
					mode := "commit"
					if !j.Commit {
						mode = "dry-run"
					}
					fmt.Printf("%s\t%s\t%s\t%s\t%s\t%d tagged\n",
						j.ID, j.CreatedAt.Format("2006-01-02 15:04:05"), j.Status, mode, j.Trigger, len(j.Result))
				}
				return nil
			},
		},
		{
			Name:        "get",
			Usage:       "Show a job",
			Description: "Show a job with its log and result",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "id", Required: true},
			},
			Run: func(ctx context.Context, cmd *cli.Command) error {
				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				j, err := store.GetJob(ctx, cmd.GetStringArg("id"))
				if err != nil {
					return err
				}

				cmdutil.PrintJob(os.Stdout, j, cmdutil.IsTerminal(os.Stdout))
				return nil
			},
		},
	}
}
