package exclusion

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
)

// RosterStats counts what ReadRoster saw.
type RosterStats struct {
	Rows    int
	Keys    int
	Skipped int
}

var (
	firstHeaders    = []string{"first_name", "firstname", "first name", "first"}
	lastHeaders     = []string{"last_name", "lastname", "last name", "last"}
	fullHeaders     = []string{"full_name", "fullname", "full name", "name"}
	employerHeaders = []string{"employer", "company", "account", "account name", "organization"}
)

// ReadRoster loads identity keys from a CSV or XLSX file whose first row is
// a header. It needs an employer column plus first/last or full-name
// columns.
func ReadRoster(ctx context.Context, path string) ([]model.IdentityKey, RosterStats, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, RosterStats{}, eris.Errorf("exclusion: unsupported roster type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, RosterStats{}, err
	}
	return parseRoster(ctx, rows)
}

func parseRoster(ctx context.Context, rows [][]string) ([]model.IdentityKey, RosterStats, error) {
	var stats RosterStats
	if len(rows) == 0 {
		return nil, stats, eris.New("exclusion: roster is empty")
	}

	header := rows[0]
	first, last := column(header, firstHeaders), column(header, lastHeaders)
	full, employer := column(header, fullHeaders), column(header, employerHeaders)
	if employer < 0 || ((first < 0 || last < 0) && full < 0) {
		return nil, stats, eris.Errorf("exclusion: roster header needs employer and name columns, got %v", header)
	}

	seen := model.NewKeySet()
	var keys []model.IdentityKey
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, stats, eris.Wrap(err, "exclusion: read roster")
		}
		stats.Rows++

		rec := model.RawCandidateRecord{Employer: cell(row, employer)}
		if first >= 0 && last >= 0 {
			rec.FirstName, rec.LastName = cell(row, first), cell(row, last)
		}
		if full >= 0 {
			rec.FullName = cell(row, full)
		}
		if rec.Validate() != nil {
			stats.Skipped++
			continue
		}
		k := identity.KeyOf(rec)
		if seen.Has(k) {
			stats.Skipped++
			continue
		}
		seen.Add(k)
		keys = append(keys, k)
	}
	stats.Keys = len(keys)
	return keys, stats, nil
}

func column(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "exclusion: open roster")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "exclusion: read csv row")
		}
		rows = append(rows, rec)
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "exclusion: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("exclusion: xlsx has no sheets")
	}
	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
