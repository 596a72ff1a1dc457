package tag

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
	"github.com/martinsuchenak/edgetag/internal/model"
)

// Commands returns the tag subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:        "add",
			Usage:       "Create a tag",
			Description: "Create a tag; the slug is derived from the name",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Usage: "Tag name", Required: true},
				&cli.StringFlag{Name: "description", Usage: "Tag description"},
			},
			Run: func(ctx context.Context, cmd *cli.Command) error {
				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				tag := &model.Tag{Name: cmd.GetString("name"), Description: cmd.GetString("description")}
				if err := store.CreateTag(ctx, tag); err != nil {
					return fmt.Errorf("creating tag: %w", err)
				}

				fmt.Printf("Tag created: %s (slug: %s, ID: %s)\n", tag.Name, tag.Slug, tag.ID)
				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List tags",
			Description: "List all tags",
			Run: func(ctx context.Context, cmd *cli.Command) error {
				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				tags, err := store.ListTags(ctx)
				if err != nil {
					return err
				}
				if len(tags) == 0 {
					fmt.Println("No tags found")
					return nil
				}
				for _, t := range tags {
					fmt.Printf("%s\t%s\t%s\n", t.ID, t.Slug, t.Name)
				}
				return nil
			},
		},
		{
			Name:        "delete",
			Usage:       "Delete a tag",
			Description: "Delete a tag by ID or slug; devices lose it too",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "id", Required: true},
			},
			Run: func(ctx context.Context, cmd *cli.Command) error {
				_, store, err := cmdutil.Open(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.DeleteTag(ctx, cmd.GetStringArg("id")); err != nil {
					return err
				}

				fmt.Println("Tag deleted")
				return nil
			},
		},
	}
}
