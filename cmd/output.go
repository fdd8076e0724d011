package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/sells-group/prospect-cli/internal/location"
	"github.com/sells-group/prospect-cli/internal/model"
)

// renderTable writes a boxed table whose first row is the header.
func renderTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithData(data).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func emailCell(e *model.ResolvedEmail) string {
	if e == nil || e.Address == "" {
		return "-"
	}
	s := e.Address
	if e.Verified {
		s += " ✓"
	}
	return s
}

func renderContacts(w io.Writer, contacts []model.Contact) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts found.")
		return err
	}
	data := pterm.TableData{{"#", "NAME", "TITLE", "EMPLOYER", "LOCATION", "EMAIL", "SOURCE"}}
	for i, c := range contacts {
		source := "-"
		if c.Email != nil {
			source = string(c.Email.Source)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			c.FirstName + " " + c.LastName,
			truncate(c.Title, 40),
			c.Employer,
			c.Location,
			emailCell(c.Email),
			source,
		})
	}
	return renderTable(w, data)
}

func renderStrategies(w io.Writer, stats []model.StrategyStat) error {
	data := pterm.TableData{{"STRATEGY", "RECORDS", "EXTRACTED", "MERGED", "SKIPPED", "DURATION", "ERROR"}}
	for _, s := range stats {
		data = append(data, []string{
			s.Name,
			strconv.Itoa(s.Records),
			strconv.Itoa(s.Extracted),
			strconv.Itoa(s.Merged),
			strconv.Itoa(s.Skipped),
			(time.Duration(s.DurationMs) * time.Millisecond).String(),
			truncate(s.Error, 40),
		})
	}
	return renderTable(w, data)
}

func renderDraftResults(w io.Writer, results []model.DraftResult) error {
	data := pterm.TableData{{"#", "STATUS", "ARTIFACT", "ERROR"}}
	for _, r := range results {
		status := "created"
		if !r.OK() {
			status = "failed"
		}
		errMsg := r.Error
		if errMsg == "" && r.Err != nil {
			errMsg = r.Err.Error()
		}
		data = append(data, []string{
			strconv.Itoa(r.Index),
			status,
			orDash(r.ArtifactID),
			truncate(errMsg, 60),
		})
	}
	return renderTable(w, data)
}

func renderRuns(w io.Writer, runs []model.SearchRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	data := pterm.TableData{{"ID", "OWNER", "TITLE", "LOCATION", "STATUS", "CONTACTS", "CREATED"}}
	for _, r := range runs {
		contacts := "-"
		if r.Result != nil {
			contacts = strconv.Itoa(len(r.Result.Contacts))
		}
		data = append(data, []string{
			truncateID(r.ID),
			orDash(r.Owner),
			truncate(r.Query.PrimaryTitle, 30),
			truncate(locationLabel(r.Query.Location), 30),
			string(r.Status),
			contacts,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return renderTable(w, data)
}

func renderContacted(w io.Writer, recs []model.ContactedRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No contacted records.")
		return err
	}
	data := pterm.TableData{{"OWNER", "FIRST", "LAST", "EMPLOYER", "SOURCE", "ADDED"}}
	for _, r := range recs {
		data = append(data, []string{
			orDash(r.Owner),
			r.Key.FirstName,
			r.Key.LastName,
			r.Key.Employer,
			r.Source,
			r.CreatedAt.Format("2006-01-02"),
		})
	}
	return renderTable(w, data)
}

func renderMetros(w io.Writer, metros []location.Metro) error {
	data := pterm.TableData{{"METRO", "STATE", "ALIASES", "LOCALITIES"}}
	for _, m := range metros {
		data = append(data, []string{
			m.Name,
			m.State,
			truncate(strings.Join(m.Aliases, ", "), 40),
			strconv.Itoa(len(m.Localities)),
		})
	}
	return renderTable(w, data)
}

func locationLabel(ls model.LocationStrategy) string {
	if ls.MetroName != "" {
		return ls.MetroName
	}
	if ls.State != "" {
		return ls.City + ", " + ls.State
	}
	return orDash(ls.City)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to n runes, ending in "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// truncateID shortens a UUID to its first 8 characters for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
