package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/mrdanjohnson/secondbrainv1/analyzer"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/dateparse"
	"github.com/mrdanjohnson/secondbrainv1/search"
)

func searchCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search memories by date, category, tag and meaning",
		ArgsUsage: "<query>",
		Action:    searchAction(d),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (default from config)",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity a result without boosts must reach (default from config)",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Category to boost instead of the one found in the query",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Tag to boost instead of those found in the query (repeatable)",
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "Date phrase to filter by instead of the one found in the query",
			},
			&cli.BoolFlag{
				Name:  "fallback",
				Usage: "Retry once without a threshold when nothing matches",
			},
			&cli.BoolFlag{
				Name:  "context",
				Usage: "Print results as prompt context lines",
			},
			&cli.BoolFlag{
				Name:    "explain",
				Aliases: []string{"x"},
				Usage:   "Print each stage of the search to stderr",
			},
		},
	}
}

func searchAction(d deps) cli.ActionFunc {
	return func(c *cli.Context) error {
		query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
		if query == "" {
			return errors.New("a query is required")
		}

		brain, err := openBrain(c, d, nil)
		if err != nil {
			return err
		}
		defer brain.Close()

		opts := brain.SearchOptions()
		if c.IsSet("limit") {
			opts.Limit = c.Int("limit")
		}
		if c.IsSet("threshold") {
			opts.Threshold = lo.ToPtr(c.Float64("threshold"))
		}
		opts.Category = c.String("category")
		opts.Tags = c.StringSlice("tag")
		opts.DatePhrase = c.String("date")

		var resp *search.Response
		switch {
		case c.Bool("explain"):
			resp, err = brain.Searcher().SearchWithMonitor(c.Context, query, opts, &printMonitor{w: d.stderr})
		case c.Bool("fallback"):
			resp, err = brain.Searcher().SearchWithFallback(c.Context, query, opts)
		default:
			resp, err = brain.Searcher().Search(c.Context, query, opts)
		}
		if err != nil {
			return err
		}

		if c.Bool("context") {
			if out := search.FormatContext(resp.Results); out != "" {
				fmt.Fprintln(d.stdout, out)
			}
			return nil
		}
		printResponse(d.stdout, resp)
		return nil
	}
}

func printResponse(w io.Writer, resp *search.Response) {
	fmt.Fprintf(w, "Found %d results", resp.Metadata.Total)
	var applied []string
	if r := resp.Filters.DateRange; r != nil {
		applied = append(applied, fmt.Sprintf("%s %s..%s", r.Field, core.ShortDate(r.Start), core.ShortDate(r.End)))
	}
	if resp.Filters.Category != "" {
		applied = append(applied, "category "+resp.Filters.Category)
	}
	if len(resp.Filters.Tags) > 0 {
		applied = append(applied, "tags "+strings.Join(resp.Filters.Tags, ", "))
	}
	if len(applied) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(applied, "; "))
	}
	if resp.Metadata.Total > 0 {
		fmt.Fprintf(w, ", average score %.2f", resp.Metadata.AvgScore)
	}
	fmt.Fprintln(w)

	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d: [%0.3f] #%d %s (%s) %s\n",
			i+1, r.FinalScore, r.Memory.Id, r.Memory.Category, r.MatchType, oneLine(r.Memory.RawContent))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// printMonitor writes each search stage as it happens.
type printMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*printMonitor)(nil)

func (m *printMonitor) Start(query string) {
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *printMonitor) AfterAnalysis(a *analyzer.Analysis) {
	fmt.Fprintf(m.w, "analysis: type=%s cleaned=%q date=%q category=%q tags=%v\n",
		a.SearchType, a.CleanedQuery, a.DatePhrase, a.Category, a.Tags)
}

func (m *printMonitor) AfterDateResolution(r *dateparse.Range) {
	if r == nil {
		fmt.Fprintln(m.w, "date filter: none")
		return
	}
	fmt.Fprintf(m.w, "date filter: %s from %s to %s\n", r.Field, r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
}

func (m *printMonitor) AfterEmbedding(text string, vector []float32) {
	fmt.Fprintf(m.w, "embedded %q (%d dimensions)\n", text, len(vector))
}

func (m *printMonitor) AfterCandidateQuery(candidates []*core.Candidate) {
	fmt.Fprintf(m.w, "candidates: %d\n", len(candidates))
}

func (m *printMonitor) Finish(results []*core.ScoredResult) {
	fmt.Fprintf(m.w, "results: %d\n", len(results))
}
