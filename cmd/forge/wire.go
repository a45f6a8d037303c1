package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"routineforge/internal/audience"
	"routineforge/internal/bundle"
	"routineforge/internal/catalog"
	"routineforge/internal/config"
	"routineforge/internal/delivery"
	"routineforge/internal/llm"
	"routineforge/internal/narrative"
	"routineforge/internal/orchestrator"
	"routineforge/internal/records"
	"routineforge/internal/schedule"
	"routineforge/internal/workspace"
)

// pipeline bundles the wired components plus the handles that need
// explicit shutdown.
type pipeline struct {
	orchestrator *orchestrator.Orchestrator
	catalog      *catalog.Store
	records      *records.Store
	watcher      *catalog.Watcher
}

func (p *pipeline) Close() {
	if p.watcher != nil {
		_ = p.watcher.Close()
	}
	if p.catalog != nil {
		_ = p.catalog.Close()
	}
	if p.records != nil {
		_ = p.records.Close()
	}
}

// buildPipeline wires the full fulfillment pipeline from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline, error) {
	catalogStore, err := catalog.NewStore(catalog.StoreConfig{
		StaticPath:   cfg.Catalog.StaticPath,
		DatabasePath: cfg.Catalog.DatabasePath,
		Logger:       logger.Named("catalog"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	p := &pipeline{catalog: catalogStore}

	if cfg.Catalog.WatchReload && cfg.Catalog.StaticPath != "" {
		watcher, err := catalog.NewWatcher(catalogStore, logger.Named("catalog"))
		if err != nil {
			logger.Warn("catalog watcher unavailable", zap.Error(err))
		} else {
			p.watcher = watcher
		}
	}

	recordStore, err := records.NewStore(records.StoreConfig{
		DatabasePath: cfg.Records.DatabasePath,
		Logger:       logger.Named("records"),
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to open records store: %w", err)
	}
	p.records = recordStore

	workspaceStore, err := workspace.NewLocalStore(cfg.Workspace.Root, logger.Named("workspace"))
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}

	providers := buildProviders(ctx, cfg, logger)
	if len(providers) == 0 {
		p.Close()
		return nil, fmt.Errorf("no LLM provider configured; set an API key in config or environment")
	}

	resolver := bundle.NewResolver(bundle.ResolverConfig{
		Store:     catalogStore,
		Generator: bundle.NewLLMGenerator(providers[0].Client),
		Logger:    logger.Named("bundle"),
	})

	narrativeGen := narrative.NewGenerator(narrative.GeneratorConfig{
		Providers: providers,
		Logger:    logger.Named("narrative"),
	})

	dispatcher := delivery.NewDispatcher(delivery.DispatcherConfig{
		Messenger: delivery.NewWebhookMessenger(delivery.WebhookConfig{
			URL:     cfg.Delivery.Webhook.URL,
			Token:   cfg.Delivery.Webhook.Token,
			Timeout: cfg.GetWebhookTimeout(),
		}),
		Email: delivery.NewSMTPSender(delivery.SMTPConfig{
			Host:     cfg.Delivery.Email.Host,
			Port:     cfg.Delivery.Email.Port,
			From:     cfg.Delivery.Email.From,
			Username: cfg.Delivery.Email.Username,
			Password: cfg.Delivery.Email.Password,
		}),
		Logger: logger.Named("delivery"),
	})

	p.orchestrator = orchestrator.New(orchestrator.Config{
		Profiler:  audience.NewProfiler(audience.ProfilerConfig{Logger: logger.Named("audience")}),
		Narrative: narrativeGen,
		Resolver:  resolver,
		Workspace: workspaceStore,
		Schedule:  schedule.NewBuilder(workspaceStore, logger.Named("schedule")),
		Delivery:  dispatcher,
		Records:   recordStore,
		Operators: newOperatorMailer(cfg, logger),
		Logger:    logger.Named("orchestrator"),
	})
	return p, nil
}

// buildProviders assembles the narrative fallback chain: the configured
// provider first, then any other provider with a key in the environment.
func buildProviders(ctx context.Context, cfg *config.Config, logger *zap.Logger) []narrative.Provider {
	order := []llm.Provider{llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderGemini}
	envKeys := map[llm.Provider]string{
		llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
		llm.ProviderOpenAI:    "OPENAI_API_KEY",
		llm.ProviderGemini:    "GEMINI_API_KEY",
	}

	preferred := llm.Provider(cfg.LLM.Provider)
	var providers []narrative.Provider
	seen := map[llm.Provider]bool{}

	add := func(prov llm.Provider, key string, primary bool) {
		if key == "" || seen[prov] {
			return
		}
		pc := llm.ProviderConfig{Provider: prov, APIKey: key}
		if primary {
			pc.Model = cfg.LLM.Model
			pc.BaseURL = cfg.LLM.BaseURL
		}
		client, err := llm.NewClientFromConfig(ctx, pc)
		if err != nil {
			logger.Warn("provider unavailable", zap.String("provider", string(prov)), zap.Error(err))
			return
		}
		seen[prov] = true
		providers = append(providers, narrative.Provider{ID: string(prov), Client: client})
	}

	add(preferred, cfg.LLM.APIKey, true)
	for _, prov := range order {
		add(prov, os.Getenv(envKeys[prov]), false)
	}
	return providers
}

// operatorMailer alerts the operator inbox about abandoned runs.
type operatorMailer struct {
	email  delivery.EmailSender
	target string
}

func newOperatorMailer(cfg *config.Config, logger *zap.Logger) orchestrator.OperatorNotifier {
	if cfg.Delivery.OperatorEmail == "" {
		return nil
	}
	return &operatorMailer{
		email: delivery.NewSMTPSender(delivery.SMTPConfig{
			Host:     cfg.Delivery.Email.Host,
			Port:     cfg.Delivery.Email.Port,
			From:     cfg.Delivery.Email.From,
			Username: cfg.Delivery.Email.Username,
			Password: cfg.Delivery.Email.Password,
		}),
		target: cfg.Delivery.OperatorEmail,
	}
}

func (m *operatorMailer) NotifyOperators(ctx context.Context, message string) error {
	_, err := m.email.Send(ctx, m.target, "Fulfillment needs attention", message, "")
	return err
}
