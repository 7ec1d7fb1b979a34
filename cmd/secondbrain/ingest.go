package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/ingestion"
)

const dateLayout = "2006-01-02"

func ingestCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Store a memory, then embed and classify it",
		ArgsUsage: "<content> (or --file)",
		Action:    ingestAction(d),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read content from a file, or - for stdin",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Initial category (classification may replace it)",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Tag to keep alongside the classifier's tags (repeatable)",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Origin label",
				Value: ingestion.DefaultSource,
			},
			&cli.StringFlag{
				Name:  "source-id",
				Usage: "Identifier of the memory at its origin",
			},
			&cli.StringFlag{
				Name:  "occurred",
				Usage: "Occurrence date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "due",
				Usage: "Due date (YYYY-MM-DD)",
			},
		},
	}
}

func ingestAction(d deps) cli.ActionFunc {
	return func(c *cli.Context) error {
		content, err := readContent(c)
		if err != nil {
			return err
		}
		opts := &ingestion.IngestOptions{
			Category: c.String("category"),
			Tags:     c.StringSlice("tag"),
			Source:   c.String("source"),
			SourceID: c.String("source-id"),
		}
		if opts.OccurredAt, err = parseDate(c.String("occurred")); err != nil {
			return fmt.Errorf("invalid --occurred: %w", err)
		}
		if opts.DueAt, err = parseDate(c.String("due")); err != nil {
			return fmt.Errorf("invalid --due: %w", err)
		}

		brain, err := openBrain(c, d, nil)
		if err != nil {
			return err
		}
		defer brain.Close()

		pipeline, err := brain.NewIngestionPipeline()
		if err != nil {
			return err
		}
		defer pipeline.Release()

		memory, err := pipeline.Ingest(c.Context, content, opts)
		if errors.Is(err, ingestion.ErrDuplicateContent) {
			fmt.Fprintf(d.stdout, "Already stored as memory #%d\n", memory.Id)
			return nil
		}
		if err != nil {
			return err
		}
		pipeline.Wait()

		stored, err := brain.Memories().GetMemory(c.Context, memory.Id)
		if err != nil {
			return err
		}
		printMemory(d.stdout, stored)
		return nil
	}
}

func editCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace the content of a memory and re-embed it",
		ArgsUsage: "<id> <content>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.New("an id and new content are required")
			}
			id, err := parseID(c.Args().First())
			if err != nil {
				return err
			}
			content := strings.Join(c.Args().Tail(), " ")

			brain, err := openBrain(c, d, nil)
			if err != nil {
				return err
			}
			defer brain.Close()

			pipeline, err := brain.NewIngestionPipeline()
			if err != nil {
				return err
			}
			defer pipeline.Release()

			if _, err := pipeline.Edit(c.Context, id, content); err != nil {
				return err
			}
			pipeline.Wait()

			stored, err := brain.Memories().GetMemory(c.Context, id)
			if err != nil {
				return err
			}
			printMemory(d.stdout, stored)
			return nil
		},
	}
}

func readContent(c *cli.Context) (string, error) {
	var content string
	switch path := c.String("file"); path {
	case "":
		content = strings.Join(c.Args().Slice(), " ")
	case "-":
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		content = string(data)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("content is required")
	}
	return content, nil
}

// parseDate reads a local calendar date. An empty value is the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, value, time.Local)
}

func parseID(value string) (core.ID, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory id %q", value)
	}
	return core.ID(id), nil
}

func printMemory(w io.Writer, m *core.Memory) {
	fmt.Fprintf(w, "Memory #%d\n", m.Id)
	fmt.Fprintf(w, "  Category: %s\n", m.Category)
	fmt.Fprintf(w, "  Tags: %s\n", strings.Join(m.Tags, ", "))
	for _, field := range core.DateFields {
		if v, ok := m.Date(field); ok {
			fmt.Fprintf(w, "  %s: %s\n", field, v.Short)
		}
	}
	if summary, ok := m.StructuredContent["summary"].(string); ok && summary != "" {
		fmt.Fprintf(w, "  Summary: %s\n", summary)
	}
	fmt.Fprintf(w, "  Embedded: %t\n", m.HasEmbedding())
	fmt.Fprintf(w, "  %s\n", oneLine(m.RawContent))
}
