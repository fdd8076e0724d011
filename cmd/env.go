package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/domaincache"
	"github.com/sells-group/prospect-cli/internal/draft"
	"github.com/sells-group/prospect-cli/internal/exclusion"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/provider"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/search"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/internal/waterfall"
	"github.com/sells-group/prospect-cli/pkg/gmail"
	"github.com/sells-group/prospect-cli/pkg/google"
	"github.com/sells-group/prospect-cli/pkg/hunter"
	"github.com/sells-group/prospect-cli/pkg/notion"
	"github.com/sells-group/prospect-cli/pkg/pdl"
	"github.com/sells-group/prospect-cli/pkg/perplexity"
	"github.com/sells-group/prospect-cli/pkg/salesforce"
)

// envOptions selects which parts of the workflow a command needs.
type envOptions struct {
	Search     bool
	Drafts     bool
	Salesforce bool   // add Salesforce contacts to the exclusion set
	Roster     string // CSV or XLSX roster merged into the exclusion set
}

// appEnv holds the initialized dependencies shared by commands.
type appEnv struct {
	Store     store.Store
	Guard     *resilience.Guard
	Domains   *domaincache.Service
	Waterfall *waterfall.Resolver
	Pipeline  *pipeline.Pipeline
}

// Close releases the store.
func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("env: close store", zap.Error(err))
		}
	}
}

// initEnv validates cfg for mode and builds the pipeline with the
// components opts asks for.
func initEnv(ctx context.Context, mode string, opts envOptions) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	env := &appEnv{Store: st, Guard: resilience.FromConfig(cfg.Resilience)}
	var pipeOpts []pipeline.Option
	var searcher pipeline.Searcher

	if opts.Search {
		orch := initSearch(env)
		searcher = orch
		pipeOpts = append(pipeOpts, pipeline.WithQueryLimit(cfg.Search.MaxContacts))

		excl, err := initExclusions(ctx, st, opts)
		if err != nil {
			env.Close()
			return nil, err
		}
		pipeOpts = append(pipeOpts, pipeline.WithExclusions(excl))
	}

	if opts.Drafts {
		creator, err := initDraftCreator(env.Guard)
		if err != nil {
			env.Close()
			return nil, err
		}
		ctrl := draft.NewController(creator, cfg.Drafts.Workers, time.Duration(cfg.Drafts.TimeoutSecs)*time.Second)
		pipeOpts = append(pipeOpts,
			pipeline.WithDrafter(ctrl),
			pipeline.WithMarkContacted(cfg.Drafts.MarkContacted),
		)
	}

	env.Pipeline = pipeline.New(st, searcher, pipeOpts...)
	return env, nil
}

// initSearch wires provider clients, the domain cache, the email waterfall
// and extraction into a search orchestrator.
func initSearch(env *appEnv) *search.Orchestrator {
	guard := env.Guard

	hunterClient := hunter.NewClient(cfg.Hunter.Key,
		hunter.WithBaseURL(cfg.Hunter.BaseURL),
		hunter.WithRateLimit(cfg.Hunter.RateLimit),
	)
	var googleClient google.Client
	if cfg.Google.Key != "" {
		googleClient = google.NewClient(cfg.Google.Key)
	}
	var pplxClient perplexity.Client
	if cfg.Perplexity.Key != "" {
		pplxClient = perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	}

	cacheOpts := []domaincache.Option{
		domaincache.WithTTL(time.Duration(cfg.DomainCache.TTLHours) * time.Hour),
		domaincache.WithNegativeTTL(time.Duration(cfg.DomainCache.NegativeTTLHours) * time.Hour),
		domaincache.WithLookupTimeout(time.Duration(cfg.DomainCache.LookupTimeoutSecs) * time.Second),
	}
	if cfg.DomainCache.Persist {
		cacheOpts = append(cacheOpts, domaincache.WithBacking(env.Store))
	}
	env.Domains = domaincache.New(provider.DomainChain(hunterClient, googleClient, pplxClient, guard), cacheOpts...)

	wcfg, err := waterfall.LoadConfigOrDefault(cfg.Waterfall.ConfigPath)
	if err != nil {
		zap.L().Warn("env: invalid waterfall config, using defaults",
			zap.String("path", cfg.Waterfall.ConfigPath),
			zap.Error(err),
		)
		wcfg = waterfall.DefaultConfig()
	}
	emails := provider.NewHunterEmail(hunterClient, guard)
	env.Waterfall = waterfall.NewResolver(wcfg, env.Domains, emails, emails, emails)

	ext := extract.New(extract.Config{
		Workers:           cfg.Extract.Workers,
		DomainWorkers:     cfg.Extract.DomainWorkers,
		EarlyStopMultiple: cfg.Extract.EarlyStopMultiple,
		ResolveTimeout:    time.Duration(cfg.Extract.ResolveTimeoutSecs) * time.Second,
	}, env.Domains, env.Waterfall)

	pdlClient := pdl.NewClient(cfg.PDL.Key,
		pdl.WithBaseURL(cfg.PDL.BaseURL),
		pdl.WithRateLimit(cfg.PDL.RateLimit),
	)
	people := provider.NewPeople(pdlClient, guard, cfg.Search.PageSize, cfg.Search.MaxPages)

	return search.New(people, ext, search.Config{
		Workers:         cfg.Search.Workers,
		StrategyTimeout: time.Duration(cfg.Search.StrategyTimeoutSecs) * time.Second,
		MaxRecords:      cfg.Search.PageSize * cfg.Search.MaxPages,
		MaxContacts:     cfg.Search.MaxContacts,
		RequireEmail:    cfg.Search.RequireEmail,
	})
}

// initExclusions always includes the store's contacted table.
func initExclusions(ctx context.Context, st store.Store, opts envOptions) (exclusion.Provider, error) {
	union := exclusion.Union{exclusion.StoreProvider{Store: st}}

	if opts.Salesforce {
		sf, err := initSalesforce(cfg.Salesforce)
		if err != nil {
			return nil, err
		}
		union = append(union, exclusion.SalesforceProvider{Client: sf, SOQL: cfg.Salesforce.ContactedSOQL})
	}

	if opts.Roster != "" {
		keys, stats, err := exclusion.ReadRoster(ctx, opts.Roster)
		if err != nil {
			return nil, eris.Wrapf(err, "read roster %s", opts.Roster)
		}
		zap.L().Info("env: roster loaded",
			zap.String("path", opts.Roster),
			zap.Int("keys", stats.Keys),
			zap.Int("skipped", stats.Skipped),
		)
		union = append(union, exclusion.StaticProvider{Label: "roster", Set: model.NewKeySet(keys...)})
	}

	return union, nil
}

func initDraftCreator(guard *resilience.Guard) (draft.Creator, error) {
	switch cfg.Drafts.Backend {
	case "gmail":
		return provider.GmailDrafts{
			Client: gmail.NewClient(cfg.Gmail.Token,
				gmail.WithBaseURL(cfg.Gmail.BaseURL),
				gmail.WithRateLimit(cfg.Gmail.RateLimit),
			),
			Guard: guard,
			From:  cfg.Gmail.Sender,
		}, nil
	case "notion":
		return provider.NotionDrafts{
			Client:     notion.NewClient(cfg.Notion.Token),
			Guard:      guard,
			DatabaseID: cfg.Notion.DraftDB,
		}, nil
	default:
		return nil, eris.Errorf("unknown drafts backend %q", cfg.Drafts.Backend)
	}
}

// initStore opens the configured store driver.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, sc.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(sc.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver %q", sc.Driver)
	}
}

// initSalesforce authenticates with the JWT bearer flow.
func initSalesforce(sc config.SalesforceConfig) (salesforce.Client, error) {
	if sc.ClientID == "" || sc.Username == "" || sc.KeyPath == "" {
		return nil, eris.New("salesforce: client_id, username and key_path are required")
	}
	key, err := os.ReadFile(sc.KeyPath)
	if err != nil {
		return nil, eris.Wrapf(err, "salesforce: read key %s", sc.KeyPath)
	}
	client, err := salesforce.Connect(salesforce.Creds{
		LoginURL: sc.LoginURL,
		Username: sc.Username,
		ClientID: sc.ClientID,
		KeyPEM:   string(key),
	})
	if err != nil {
		return nil, eris.Wrap(err, "salesforce: connect")
	}
	return client, nil
}
