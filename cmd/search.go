package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/location"
	"github.com/sells-group/prospect-cli/internal/model"
)

var (
	searchTitle      string
	searchSimilar    []string
	searchCompany    string
	searchLocation   string
	searchMax        int
	searchOwner      string
	searchSalesforce bool
	searchRoster     string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find contacts by title, company, and location",
	Long:  "Runs the metro, city, and fallback search strategies concurrently, resolves each candidate's email through the waterfall, and stores the run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "search", envOptions{
			Search:     true,
			Salesforce: searchSalesforce,
			Roster:     searchRoster,
		})
		if err != nil {
			return err
		}
		defer env.Close()

		q := model.SearchQuery{
			PrimaryTitle:  strings.TrimSpace(searchTitle),
			SimilarTitles: searchSimilar,
			Company:       strings.TrimSpace(searchCompany),
			Location:      location.Resolve(searchLocation),
			MaxContacts:   searchMax,
		}
		if q.MaxContacts <= 0 {
			q.MaxContacts = cfg.Search.MaxContacts
		}

		run, err := env.Pipeline.Search(ctx, searchOwner, q)
		if err != nil {
			if run != nil {
				return eris.Wrapf(err, "search run %s failed", run.ID)
			}
			return eris.Wrap(err, "search")
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			return writeJSON(out, run)
		}
		return printSearchRun(cmd, run)
	},
}

func printSearchRun(cmd *cobra.Command, run *model.SearchRun) error {
	out := cmd.OutOrStdout()
	res := run.Result
	if res == nil {
		res = &model.RunResult{}
	}

	fmt.Fprintf(out, "Run %s: %d contacts for %q in %s (%dms)\n", //nolint:errcheck
		run.ID, len(res.Contacts), run.Query.PrimaryTitle, locationLabel(run.Query.Location), res.DurationMs)
	if res.Fallback {
		pterm.Warning.Println("initial strategies came up short; fallback strategy ran")
	}
	if err := renderContacts(out, res.Contacts); err != nil {
		return err
	}
	return renderStrategies(out, res.Strategies)
}

func init() {
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "primary job title (required)")
	searchCmd.Flags().StringSliceVar(&searchSimilar, "similar", nil, "similar titles, comma separated")
	searchCmd.Flags().StringVar(&searchCompany, "company", "", "restrict to one employer")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", `location, e.g. "Austin, TX" or "bay area" (required)`)
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "maximum contacts to return (default search.max_contacts)")
	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "owner whose contacted list is excluded")
	searchCmd.Flags().BoolVar(&searchSalesforce, "salesforce", false, "also exclude contacts found in Salesforce")
	searchCmd.Flags().StringVar(&searchRoster, "roster", "", "CSV or XLSX roster of people to exclude")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the run as JSON")
	_ = searchCmd.MarkFlagRequired("title")
	_ = searchCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(searchCmd)
}
