package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/domaincache"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/google"
	"github.com/sells-group/prospect-cli/pkg/hunter"
	"github.com/sells-group/prospect-cli/pkg/perplexity"
)

// HunterDomains resolves employers with Hunter's company domain search.
type HunterDomains struct {
	Client hunter.Client
	Guard  *resilience.Guard
}

// Name implements domaincache.Resolver.
func (HunterDomains) Name() string { return ServiceHunter }

// ResolveDomain implements domaincache.Resolver.
func (h HunterDomains) ResolveDomain(ctx context.Context, employer string) (string, error) {
	res, err := resilience.Call(ctx, h.Guard, ServiceHunter, "domain_search", func(ctx context.Context) (*hunter.DomainSearchResult, error) {
		return h.Client.DomainSearch(ctx, "", employer)
	})
	if err != nil {
		return "", err
	}
	return domaincache.NormalizeDomain(res.Domain), nil
}

// GooglePlaces resolves employers from the website on their Places listing.
type GooglePlaces struct {
	Client google.Client
	Guard  *resilience.Guard
}

// Name implements domaincache.Resolver.
func (GooglePlaces) Name() string { return ServiceGoogle }

// ResolveDomain implements domaincache.Resolver.
func (g GooglePlaces) ResolveDomain(ctx context.Context, employer string) (string, error) {
	res, err := resilience.Call(ctx, g.Guard, ServiceGoogle, "text_search", func(ctx context.Context) (*google.TextSearchResponse, error) {
		return g.Client.TextSearch(ctx, employer)
	})
	if err != nil {
		return "", err
	}
	return domaincache.NormalizeDomain(res.FirstWebsite()), nil
}

// PerplexityDomains asks an LLM for the employer's email domain.
type PerplexityDomains struct {
	Client perplexity.Client
	Guard  *resilience.Guard
}

// Name implements domaincache.Resolver.
func (PerplexityDomains) Name() string { return ServicePerplexity }

// ResolveDomain implements domaincache.Resolver.
func (p PerplexityDomains) ResolveDomain(ctx context.Context, employer string) (string, error) {
	domain, err := resilience.Call(ctx, p.Guard, ServicePerplexity, "domain_for", func(ctx context.Context) (string, error) {
		return perplexity.DomainFor(ctx, p.Client, employer)
	})
	if err != nil {
		return "", err
	}
	return domaincache.NormalizeDomain(domain), nil
}

// DomainChain builds the resolver chain in priority order, skipping
// resolvers whose client is nil.
func DomainChain(h hunter.Client, g google.Client, p perplexity.Client, guard *resilience.Guard) *domaincache.Chain {
	var rs []domaincache.Resolver
	if h != nil {
		rs = append(rs, HunterDomains{Client: h, Guard: guard})
	}
	if g != nil {
		rs = append(rs, GooglePlaces{Client: g, Guard: guard})
	}
	if p != nil {
		rs = append(rs, PerplexityDomains{Client: p, Guard: guard})
	}
	return domaincache.NewChain(rs...)
}
