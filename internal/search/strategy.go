package search

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Strategy names.
const (
	StrategyMetro    = "metro"
	StrategyLocality = "locality"
	StrategyFallback = "fallback"
)

// Request is one people-search call.
type Request struct {
	Strategy   string
	Titles     []string
	Company    string
	Metro      string
	Localities []string
	State      string
	Limit      int
}

// Provider runs people searches. Implementations paginate and rate-limit
// internally and return records already mapped to RawCandidateRecord.
type Provider interface {
	Search(ctx context.Context, req Request) ([]model.RawCandidateRecord, error)
}

// Strategy builds a provider request from a query.
type Strategy struct {
	Name  string
	Build func(q model.SearchQuery, limit int) Request
}

// Metro searches the metro area as a whole.
var Metro = Strategy{
	Name: StrategyMetro,
	Build: func(q model.SearchQuery, limit int) Request {
		return Request{
			Strategy: StrategyMetro,
			Titles:   []string{q.PrimaryTitle},
			Company:  q.Company,
			Metro:    q.Location.MetroName,
			State:    q.Location.State,
			Limit:    limit,
		}
	},
}

// Locality searches named cities: the metro's constituent cities in metro
// mode, otherwise the query city.
var Locality = Strategy{
	Name: StrategyLocality,
	Build: func(q model.SearchQuery, limit int) Request {
		return Request{
			Strategy:   StrategyLocality,
			Titles:     []string{q.PrimaryTitle},
			Company:    q.Company,
			Localities: localities(q.Location),
			State:      q.Location.State,
			Limit:      limit,
		}
	},
}

// Fallback widens the search to every title and drops the company filter.
var Fallback = Strategy{
	Name: StrategyFallback,
	Build: func(q model.SearchQuery, limit int) Request {
		req := Request{
			Strategy: StrategyFallback,
			Titles:   q.Titles(),
			State:    q.Location.State,
			Limit:    limit,
		}
		if q.Location.Mode == model.LocationMetroPrimary {
			req.Metro = q.Location.MetroName
		} else {
			req.Localities = localities(q.Location)
		}
		return req
	},
}

func localities(ls model.LocationStrategy) []string {
	if ls.Mode == model.LocationMetroPrimary && len(ls.MetroLocalities) > 0 {
		return ls.MetroLocalities
	}
	if ls.City == "" {
		return nil
	}
	return []string{ls.City}
}

// Plan selects the initial strategies for a location.
func Plan(ls model.LocationStrategy) []Strategy {
	if ls.Mode == model.LocationMetroPrimary {
		return []Strategy{Metro, Locality}
	}
	return []Strategy{Locality}
}
