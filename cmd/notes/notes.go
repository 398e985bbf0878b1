package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/editor"
	"github.com/starford/notely/internal/markdown"
	"github.com/starford/notely/internal/notelist"
	"github.com/starford/notely/internal/pages"
)

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "q", Usage: "Only notes whose title or content contains this text"},
		&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Only notes with this tag"},
	}
}

func printList(c *client, dash *pages.Dashboard, query, tag string) {
	notes := dash.Notes(query, tag)
	rows := make([]notelist.Row, len(notes))
	for i := range notes {
		rows[i] = notelist.Preview(&notes[i])
	}
	c.out.Rows(rows, dash.EmptyMessage(query, tag))
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List your notes, most recently updated first",
		Flags: append(filterFlags(), &cli.BoolFlag{
			Name:  "tags",
			Usage: "Print the tags in use instead of the notes",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			dash, err := c.dashboard()
			if err != nil {
				return err
			}
			dash.Load(ctx)
			if cmd.Bool("tags") {
				for _, t := range dash.Tags() {
					c.out.Line("#%s", t)
				}
				return nil
			}
			printList(c, dash, cmd.String("q"), cmd.String("tag"))
			return nil
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a blank note and print its id",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			dash, err := c.dashboard()
			if err != nil {
				return err
			}
			n := dash.CreateNote(ctx)
			if n == nil {
				return errors.New("note not created")
			}
			c.out.Line("%s", n.ID)
			return nil
		},
	}
}

// withSelected loads the list, selects the note given as first argument and
// runs fn with the dashboard editor.
func withSelected(ctx context.Context, cmd *cli.Command, fn func(c *client, dash *pages.Dashboard, ed *editor.Editor) error) error {
	id, err := noteArg(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	dash, err := c.dashboard()
	if err != nil {
		return err
	}
	dash.Load(ctx)
	dash.SelectNote(id)
	if dash.Editor.NoteID() == "" {
		return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	return fn(c, dash, dash.Editor)
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a note",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSelected(ctx, cmd, func(c *client, dash *pages.Dashboard, _ *editor.Editor) error {
				n, _ := dash.Selected()
				c.out.Note(&n)
				return nil
			})
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change the title and/or content of a note",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "New title"},
			&cli.StringFlag{Name: "content", Usage: "New content"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read the new content from a file (- for stdin)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSelected(ctx, cmd, func(c *client, _ *pages.Dashboard, ed *editor.Editor) error {
				if cmd.IsSet("title") {
					ed.SetTitle(cmd.String("title"))
				}
				if cmd.IsSet("content") {
					ed.SetContent(cmd.String("content"))
				}
				if path := cmd.String("file"); path != "" {
					data, err := readInput(path)
					if err != nil {
						return err
					}
					ed.SetContent(string(data))
				}
				if !ed.Save(ctx) {
					return errors.New("note not saved")
				}
				c.out.Line("Saved")
				return nil
			})
		},
	}
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Add or remove tags",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a tag; an existing tag is left as is",
				ArgsUsage: "<id> <tag>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withSelected(ctx, cmd, func(c *client, _ *pages.Dashboard, ed *editor.Editor) error {
						if ed.AddTag(ctx, cmd.Args().Get(1)) {
							c.out.Line("Tags: %v", ed.Draft().Tags)
						}
						return nil
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "Remove a tag",
				ArgsUsage: "<id> <tag>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withSelected(ctx, cmd, func(c *client, _ *pages.Dashboard, ed *editor.Editor) error {
						if ed.RemoveTag(ctx, cmd.Args().Get(1)) {
							c.out.Line("Tags: %v", ed.Draft().Tags)
						}
						return nil
					})
				},
			},
		},
	}
}

func favCommand() *cli.Command {
	return &cli.Command{
		Name:      "fav",
		Usage:     "Toggle the favorite flag",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSelected(ctx, cmd, func(c *client, _ *pages.Dashboard, ed *editor.Editor) error {
				if !ed.ToggleFavorite(ctx) {
					return errors.New("favorite not changed")
				}
				c.out.Line("Favorite: %t", ed.Draft().IsFavorite)
				return nil
			})
		},
	}
}

func publicCommand() *cli.Command {
	return &cli.Command{
		Name:      "public",
		Usage:     "Share a note publicly, or make it private with --off",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "off", Usage: "Make the note private"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSelected(ctx, cmd, func(c *client, _ *pages.Dashboard, ed *editor.Editor) error {
				if !ed.SetPublic(ctx, !cmd.Bool("off")) {
					return errors.New("visibility not changed")
				}
				c.out.Line("Public: %t", ed.Draft().IsPublic)
				return nil
			})
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a note",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := noteArg(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			dash, err := c.dashboard()
			if err != nil {
				return err
			}
			dash.DeleteNote(ctx, id)
			return nil
		},
	}
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Print an AI summary of a note",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSelected(ctx, cmd, func(c *client, _ *pages.Dashboard, ed *editor.Editor) error {
				summary, err := ed.Summarize(ctx)
				if err != nil {
					// Already reported as a notification.
					return nil
				}
				c.out.Summary(summary)
				return nil
			})
		},
	}
}

func publicNotesCommand() *cli.Command {
	return &cli.Command{
		Name:  "public-notes",
		Usage: "List notes shared by everyone",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "q", Usage: "Only notes whose title or content contains this text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			p := pages.NewPublicNotes(c.gw, c.logger)
			p.Load(ctx)
			q := cmd.String("q")
			c.out.Rows(p.Rows(q), p.EmptyMessage(q))
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep printing the note list as it changes",
		Flags: filterFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			dash, err := c.dashboard()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return dash.Run(gctx)
			})
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case <-dash.Sync.Updates():
						c.out.Line("")
						printList(c, dash, cmd.String("q"), cmd.String("tag"))
					}
				}
			})
			if err := g.Wait(); err != nil {
				return err
			}
			if dash.Route() == pages.RouteAuth {
				return errNotSignedIn
			}
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create a note from a Markdown file with optional YAML frontmatter",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("import: file is required")
			}
			data, err := readInput(path)
			if err != nil {
				return err
			}
			doc, err := markdown.Parse(data)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if _, err := sessionUser(c); err != nil {
				return err
			}
			n, err := c.gw.InsertNote(ctx, doc.Insert())
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if flags := doc.Flags(); !flags.Empty() {
				if err := c.gw.UpdateNote(ctx, n.ID, flags); err != nil {
					return fmt.Errorf("import: set flags: %w", err)
				}
			}
			c.out.Line("%s", n.ID)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a note as Markdown with YAML frontmatter",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default stdout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := noteArg(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			n, err := c.gw.GetNote(ctx, id)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			data, err := markdown.Render(n)
			if err != nil {
				return err
			}
			if out := cmd.String("out"); out != "" {
				return os.WriteFile(out, data, 0o644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
