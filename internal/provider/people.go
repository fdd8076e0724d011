// Package provider adapts the third-party API clients to the interfaces the
// search, waterfall, domain cache, and draft packages consume. Every call
// runs under a resilience.Guard.
package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/prospect-cli/internal/domaincache"
	"github.com/sells-group/prospect-cli/internal/location"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/search"
	"github.com/sells-group/prospect-cli/pkg/pdl"
)

// Service names used for breakers and logs.
const (
	ServicePDL        = "pdl"
	ServiceHunter     = "hunter"
	ServiceGoogle     = "google"
	ServicePerplexity = "perplexity"
	ServiceGmail      = "gmail"
	ServiceNotion     = "notion"
)

// People runs person searches against People Data Labs.
type People struct {
	client   pdl.Client
	pageSize int
	maxPages int
}

// NewPeople creates a search.Provider backed by PDL.
func NewPeople(client pdl.Client, guard *resilience.Guard, pageSize, maxPages int) *People {
	return &People{
		client:   guardedPDL{client: client, guard: guard},
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// Search implements search.Provider.
func (p *People) Search(ctx context.Context, req search.Request) ([]model.RawCandidateRecord, error) {
	f := FilterFor(req)
	people, err := pdl.SearchAll(ctx, p.client, f, req.Limit, p.pageSize, p.maxPages)
	if err != nil {
		if len(people) == 0 {
			return nil, err
		}
		zap.L().Warn("provider: pdl pagination failed, keeping partial results",
			zap.String("strategy", req.Strategy),
			zap.Int("records", len(people)),
			zap.Error(err),
		)
	}
	out := make([]model.RawCandidateRecord, 0, len(people))
	for _, person := range people {
		out = append(out, RecordFromPerson(person))
	}
	return out, nil
}

// FilterFor translates a strategy request into PDL's canonical location
// values. A metro already pins the region, so the state only narrows
// locality searches.
func FilterFor(req search.Request) pdl.Filter {
	f := pdl.Filter{
		Titles:     req.Titles,
		Company:    req.Company,
		Localities: req.Localities,
	}
	if req.Metro != "" {
		f.Metro = location.ProviderMetro(req.Metro)
	} else {
		f.Regions = location.Regions(req.State)
	}
	return f
}

// RecordFromPerson maps a PDL person onto the pipeline's record shape.
func RecordFromPerson(p pdl.Person) model.RawCandidateRecord {
	// Casers are stateful and must not be shared across goroutines.
	titleCaser := cases.Title(language.English)
	rec := model.RawCandidateRecord{
		FirstName:      titleCaser.String(strings.TrimSpace(p.FirstName)),
		LastName:       titleCaser.String(strings.TrimSpace(p.LastName)),
		FullName:       titleCaser.String(strings.TrimSpace(p.FullName)),
		Employer:       titleCaser.String(strings.TrimSpace(p.JobCompanyName)),
		EmployerDomain: domaincache.NormalizeDomain(p.JobCompanyWebsite),
		Title:          titleCaser.String(strings.TrimSpace(p.JobTitle)),
		Location:       titleCaser.String(strings.TrimSpace(p.LocationName)),
	}

	seen := make(map[string]bool)
	add := func(addr string, t model.EmailType) {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		rec.Emails = append(rec.Emails, model.RawEmail{Address: addr, Type: t})
	}
	for _, e := range p.Emails {
		add(e.Address, emailType(e.Type))
	}
	add(p.WorkEmail, model.EmailTypeCurrentProfessional)
	for _, e := range p.PersonalEmails {
		add(e, model.EmailTypePersonal)
	}
	return rec
}

func emailType(t string) model.EmailType {
	switch model.EmailType(t) {
	case model.EmailTypeCurrentProfessional, model.EmailTypeProfessional, model.EmailTypePersonal:
		return model.EmailType(t)
	default:
		return model.EmailTypeUnknown
	}
}

// guardedPDL retries each page under the pdl breaker.
type guardedPDL struct {
	client pdl.Client
	guard  *resilience.Guard
}

func (g guardedPDL) SearchPeople(ctx context.Context, req pdl.SearchRequest) (*pdl.SearchResponse, error) {
	return resilience.Call(ctx, g.guard, ServicePDL, "person_search", func(ctx context.Context) (*pdl.SearchResponse, error) {
		return g.client.SearchPeople(ctx, req)
	})
}
