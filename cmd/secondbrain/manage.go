package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

func recentCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List the most recently added memories",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of memories to list",
				Value:   10,
			},
		},
		Action: func(c *cli.Context) error {
			brain, err := openBrain(c, d, nil)
			if err != nil {
				return err
			}
			defer brain.Close()

			memories, err := brain.Memories().GetRecentMemories(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, m := range memories {
				received := ""
				if v, ok := m.Date(core.DateFieldReceived); ok {
					received = v.Short
				}
				fmt.Fprintf(d.stdout, "#%d %s [%s] %s\n", m.Id, received, m.Category, oneLine(m.RawContent))
			}
			return nil
		},
	}
}

func classifyCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Set the category of several memories",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "category",
				Usage:    "Category to assign",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			ids, err := parseIDs(c.Args().Slice())
			if err != nil {
				return err
			}

			brain, err := openBrain(c, d, nil)
			if err != nil {
				return err
			}
			defer brain.Close()

			n, err := brain.Memories().BulkClassify(c.Context, ids, c.String("category"))
			if err != nil {
				return err
			}
			fmt.Fprintf(d.stdout, "Updated %d memories\n", n)
			return nil
		},
	}
}

var tagOperations = map[string]storage.TagOperation{
	"add":     storage.TagAdd,
	"remove":  storage.TagRemove,
	"replace": storage.TagReplace,
}

func tagCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add, remove or replace the tags of several memories",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "op",
				Usage: "Operation: add, remove or replace",
				Value: "add",
			},
			&cli.StringSliceFlag{
				Name:     "tag",
				Usage:    "Tag to apply (repeatable)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			op, ok := tagOperations[strings.ToLower(c.String("op"))]
			if !ok {
				return fmt.Errorf("invalid tag operation %q: must be one of add, remove, replace", c.String("op"))
			}
			ids, err := parseIDs(c.Args().Slice())
			if err != nil {
				return err
			}

			brain, err := openBrain(c, d, nil)
			if err != nil {
				return err
			}
			defer brain.Close()

			n, err := brain.Memories().BulkTag(c.Context, ids, op, c.StringSlice("tag"))
			if err != nil {
				return err
			}
			fmt.Fprintf(d.stdout, "Updated %d memories\n", n)
			return nil
		},
	}
}

func categoriesCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Manage the category catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog categories",
				Action: func(c *cli.Context) error {
					brain, err := openBrain(c, d, nil)
					if err != nil {
						return err
					}
					defer brain.Close()

					categories, err := brain.Categories().ListCatalog(c.Context)
					if err != nil {
						return err
					}
					for _, category := range categories {
						fmt.Fprintf(d.stdout, "%s\t%s\n", category.Name, category.Description)
					}
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "Add a catalog category",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Usage: "What the category holds"},
					&cli.StringFlag{Name: "color", Usage: "Display color"},
				},
				Action: func(c *cli.Context) error {
					name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
					if name == "" {
						return errors.New("a category name is required")
					}

					brain, err := openBrain(c, d, nil)
					if err != nil {
						return err
					}
					defer brain.Close()

					added, err := brain.Categories().AddCategory(c.Context, &core.Category{
						Name:        name,
						Description: c.String("description"),
						Color:       c.String("color"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(d.stdout, "Added category %s\n", added.Name)
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "Add the default categories that are missing",
				Action: func(c *cli.Context) error {
					brain, err := openBrain(c, d, nil)
					if err != nil {
						return err
					}
					defer brain.Close()

					if err := brain.Categories().SeedDefaults(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(d.stdout, "Seeded default categories")
					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "Count memories per category",
				Action: func(c *cli.Context) error {
					brain, err := openBrain(c, d, nil)
					if err != nil {
						return err
					}
					defer brain.Close()

					stats, err := brain.Memories().CategoryStats(c.Context)
					if err != nil {
						return err
					}
					for _, s := range stats {
						fmt.Fprintf(d.stdout, "%s\t%d\n", s.Category, s.Count)
					}
					return nil
				},
			},
		},
	}
}

func parseIDs(args []string) ([]core.ID, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one memory id is required")
	}
	ids := make([]core.ID, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}
