package pdl

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

// Filter narrows a person search. Empty fields are ignored.
type Filter struct {
	Titles     []string
	Company    string
	Metro      string
	Localities []string
	Regions    []string
}

// Query renders the filter as an Elasticsearch bool query.
func (f Filter) Query() map[string]any {
	var must []any

	if titles := lowerAll(f.Titles); len(titles) > 0 {
		should := make([]any, 0, len(titles))
		for _, t := range titles {
			should = append(should, map[string]any{"match_phrase": map[string]any{"job_title": t}})
		}
		must = append(must, map[string]any{"bool": map[string]any{"should": should}})
	}
	if c := strings.ToLower(strings.TrimSpace(f.Company)); c != "" {
		must = append(must, map[string]any{"match_phrase": map[string]any{"job_company_name": c}})
	}
	if m := strings.ToLower(strings.TrimSpace(f.Metro)); m != "" {
		must = append(must, map[string]any{"term": map[string]any{"location_metro": m}})
	}
	if locs := lowerAll(f.Localities); len(locs) > 0 {
		must = append(must, map[string]any{"terms": map[string]any{"location_locality": locs}})
	}
	if regions := lowerAll(f.Regions); len(regions) > 0 {
		must = append(must, map[string]any{"terms": map[string]any{"location_region": regions}})
	}
	must = append(must, map[string]any{"exists": map[string]any{"field": "job_company_name"}})

	return map[string]any{"bool": map[string]any{"must": must}}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SearchAll pages through results with the scroll token until limit people
// are collected, the results run out, or maxPages pages have been read.
// A 404 means no matches and yields an empty slice.
func SearchAll(ctx context.Context, c Client, f Filter, limit, pageSize, maxPages int) ([]Person, error) {
	if limit <= 0 {
		return nil, nil
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	query := f.Query()
	var (
		out    []Person
		scroll string
	)
	for page := 0; page < maxPages && len(out) < limit; page++ {
		size := min(pageSize, limit-len(out))
		resp, err := c.SearchPeople(ctx, SearchRequest{Query: query, Size: size, ScrollToken: scroll})
		if err != nil {
			if apierr.IsNotFound(err) {
				break
			}
			return out, err
		}
		out = append(out, resp.Data...)
		zap.L().Debug("pdl: page fetched",
			zap.Int("page", page+1),
			zap.Int("records", len(resp.Data)),
			zap.Int("total", resp.Total),
		)
		if resp.ScrollToken == "" || len(resp.Data) == 0 {
			break
		}
		scroll = resp.ScrollToken
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
