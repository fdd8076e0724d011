// Package exclusion assembles the set of identity keys a search must never
// return: people already contacted by the owner.
package exclusion

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/salesforce"
)

// Provider returns the exclusion keys for an owner.
type Provider interface {
	Name() string
	Keys(ctx context.Context, owner string) (model.KeySet, error)
}

// ContactedLister is the store method StoreProvider reads.
type ContactedLister interface {
	ListContacted(ctx context.Context, owner string) ([]model.ContactedRecord, error)
}

// StoreProvider reads the persisted contacted table.
type StoreProvider struct {
	Store ContactedLister
}

// Name implements Provider.
func (p StoreProvider) Name() string { return "store" }

// Keys implements Provider.
func (p StoreProvider) Keys(ctx context.Context, owner string) (model.KeySet, error) {
	recs, err := p.Store.ListContacted(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "exclusion: list contacted")
	}
	set := make(model.KeySet, len(recs))
	for _, r := range recs {
		set.Add(r.Key)
	}
	return set, nil
}

// SalesforceProvider treats every Contact returned by SOQL as contacted.
// The owner is not used; the query decides scope.
type SalesforceProvider struct {
	Client salesforce.Client
	SOQL   string
}

// Name implements Provider.
func (p SalesforceProvider) Name() string { return "salesforce" }

// Keys implements Provider.
func (p SalesforceProvider) Keys(ctx context.Context, _ string) (model.KeySet, error) {
	contacts, err := salesforce.QueryContacts(ctx, p.Client, p.SOQL)
	if err != nil {
		return nil, eris.Wrap(err, "exclusion: salesforce")
	}
	set := make(model.KeySet, len(contacts))
	for _, c := range contacts {
		if c.FirstName == "" || c.LastName == "" {
			continue
		}
		set.Add(identity.KeyFor(c.FirstName, c.LastName, c.Employer()))
	}
	return set, nil
}

// StaticProvider serves a fixed set, such as keys read from a roster file.
type StaticProvider struct {
	Label string
	Set   model.KeySet
}

// Name implements Provider.
func (p StaticProvider) Name() string { return p.Label }

// Keys implements Provider.
func (p StaticProvider) Keys(context.Context, string) (model.KeySet, error) {
	out := make(model.KeySet, len(p.Set))
	for k := range p.Set {
		out.Add(k)
	}
	return out, nil
}

// Union merges the keys of every provider. Any provider error fails the
// whole union so a search never runs with a partial exclusion set.
type Union []Provider

// Name implements Provider.
func (u Union) Name() string { return "union" }

// Keys implements Provider.
func (u Union) Keys(ctx context.Context, owner string) (model.KeySet, error) {
	out := model.NewKeySet()
	for _, p := range u {
		set, err := p.Keys(ctx, owner)
		if err != nil {
			return nil, eris.Wrapf(err, "exclusion: provider %s", p.Name())
		}
		for k := range set {
			out.Add(k)
		}
		zap.L().Debug("exclusion: provider loaded",
			zap.String("provider", p.Name()),
			zap.String("owner", owner),
			zap.Int("keys", len(set)),
		)
	}
	return out, nil
}
