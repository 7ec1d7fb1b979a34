package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mrdanjohnson/secondbrainv1/ingestion"
)

// sampleNotes seed an empty knowledge base for trying out search.
var sampleNotes = []string{
	"Idea: build a raised garden bed along the south fence.",
	"Task: renew the car insurance before the end of the month.",
	"Project kickoff for the kitchen remodel went well, contractor starts Monday.",
	"Reference: the router admin page lives at 192.168.1.1.",
	"Journal: long walk by the lake this morning, felt calm and rested.",
	"Meeting notes: quarterly planning, budget approved for two new hires.",
	"Learning: Go iterators are functions that take a yield callback.",
	"Task: call the dentist to move the cleaning appointment.",
	"Idea: a weekly reading list newsletter for the team.",
	"Journal: finished the novel, the ending was better than expected.",
}

func importCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Ingest one memory per non-empty line",
		ArgsUsage: "[file] (- for stdin)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "samples",
				Usage: "Import the built-in sample notes instead of a file",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Origin label for the imported memories",
				Value: "import",
			},
		},
		Action: func(c *cli.Context) error {
			var source iter.Seq[string]
			switch {
			case c.Bool("samples"):
				source = linesFromSlice(sampleNotes)
			case c.Args().First() == "-":
				source = linesFromReader(c.App.Reader)
			case c.NArg() == 1:
				f, err := os.Open(c.Args().First())
				if err != nil {
					return err
				}
				defer f.Close()
				source = linesFromReader(f)
			default:
				return errors.New("a file, - or --samples is required")
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

			added, duplicates, err := ingestLines(c, pipeline, source)
			pipeline.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintf(d.stdout, "Imported %d memories (%d duplicates skipped)\n", added, duplicates)
			return nil
		},
	}
}

// ingestLines ingests every non-empty line from source.
func ingestLines(c *cli.Context, pipeline *ingestion.Pipeline, source iter.Seq[string]) (int, int, error) {
	added, duplicates := 0, 0
	opts := &ingestion.IngestOptions{Source: c.String("source")}
	for line := range source {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_, err := pipeline.Ingest(c.Context, line, opts)
		switch {
		case errors.Is(err, ingestion.ErrDuplicateContent):
			duplicates++
		case err != nil:
			return added, duplicates, err
		default:
			added++
		}
	}
	return added, duplicates, nil
}

// linesFromReader returns an iterator over lines read from r.
func linesFromReader(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}
