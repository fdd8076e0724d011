package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/api"
)

var (
	draftsIn      string
	draftsOwner   string
	draftsBackend string
	draftsJSON    bool
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Create outreach drafts from a JSON batch",
	Long:  `Reads {"owner": ..., "drafts": [{"contact": ..., "subject": ..., "body": ...}]}, or just the drafts array, from --in (or stdin with "-") and creates one draft per entry in Gmail or Notion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		batch, err := readDraftsFile(cmd.InOrStdin(), draftsIn)
		if err != nil {
			return err
		}
		if draftsOwner != "" {
			batch.Owner = draftsOwner
		}
		if len(batch.Drafts) == 0 {
			pterm.Info.Println("no drafts in batch")
			return nil
		}
		if draftsBackend != "" {
			cfg.Drafts.Backend = draftsBackend
		}

		env, err := initEnv(ctx, "drafts", envOptions{Drafts: true})
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Pipeline.Drafts(ctx, batch.Owner, batch.Requests())
		if err != nil {
			return eris.Wrap(err, "drafts")
		}

		resp := api.DraftsResponse{Results: results}
		for _, r := range results {
			if r.OK() {
				resp.Created++
			} else {
				resp.Failed++
			}
		}

		out := cmd.OutOrStdout()
		if draftsJSON {
			return writeJSON(out, resp)
		}
		if err := renderDraftResults(out, results); err != nil {
			return err
		}
		if resp.Failed > 0 {
			pterm.Warning.Printfln("%d of %d drafts failed", resp.Failed, len(results))
		} else {
			pterm.Success.Printfln("%d drafts created", resp.Created)
		}
		return nil
	},
}

// readDraftsFile decodes a drafts batch from path, or from stdin when path is "-".
func readDraftsFile(stdin io.Reader, path string) (*api.DraftsRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read drafts batch")
	}

	var batch api.DraftsRequest
	// A bare array carries drafts without an owner.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &batch.Drafts)
	} else {
		err = json.Unmarshal(data, &batch)
	}
	if err != nil {
		return nil, eris.Wrap(err, "decode drafts batch")
	}
	return &batch, nil
}

func init() {
	draftsCmd.Flags().StringVar(&draftsIn, "in", "", `JSON batch file, or "-" for stdin (required)`)
	draftsCmd.Flags().StringVar(&draftsOwner, "owner", "", "owner recorded for contacted marking (overrides the file)")
	draftsCmd.Flags().StringVar(&draftsBackend, "backend", "", "gmail or notion (default drafts.backend)")
	draftsCmd.Flags().BoolVar(&draftsJSON, "json", false, "print results as JSON")
	_ = draftsCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(draftsCmd)
}
