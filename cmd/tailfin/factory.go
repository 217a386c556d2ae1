package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/internal/config"
	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/internal/interpret"
	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/internal/notify"
	"github.com/tailfin-crm/tailfin/internal/orchestrator"
	"github.com/tailfin-crm/tailfin/internal/state"
)

// openDB opens the default database and applies pending migrations.
func openDB() (*state.DB, error) {
	db, err := state.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// resolveModel maps the configured model name onto the SDK type,
// defaulting to Sonnet.
func resolveModel(cfg *config.Config) anthropic.Model {
	if cfg.Anthropic.Model != "" {
		return anthropic.Model(cfg.Anthropic.Model)
	}
	return anthropic.ModelClaudeSonnet4_20250514
}

// newLLMClient builds an Anthropic client from config.
func newLLMClient(cfg *config.Config) (*llm.Client, error) {
	key, err := config.GetAPIKey(cfg)
	if err != nil && !cfg.Anthropic.Bedrock {
		return nil, llm.ErrNoCredential
	}

	return llm.NewClient(llm.ClientConfig{
		Model:         resolveModel(cfg),
		APIKey:        key,
		UseAWSBedrock: cfg.Anthropic.Bedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
}

// generatorFactory builds a fresh generator per scan cycle so key and
// model changes take effect without restarting the daemon.
func generatorFactory() func() (llm.TextGenerator, error) {
	return func() (llm.TextGenerator, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return newLLMClient(cfg)
	}
}

// chatterFactory is the chat-path analogue of generatorFactory.
func chatterFactory() func() (llm.Chatter, error) {
	return func() (llm.Chatter, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return newLLMClient(cfg)
	}
}

// googleClients loads the OAuth credential and returns mail and
// calendar clients, or nils when no account is connected.
func googleClients(cfg *config.Config) (*google.MailClient, *google.CalendarClient) {
	cred, err := google.LoadCredential(cfg.Google.ClientSecretPath, cfg.Google.TokenPath)
	if err != nil {
		if !errors.Is(err, google.ErrNotConnected) {
			log.Printf("[google] loading credential: %v", err)
		}
		return nil, nil
	}
	return google.NewMailClient(cred), google.NewCalendarClient(cred)
}

// buildOrchestrator wires the scan-cycle orchestrator from config and
// an open database.
func buildOrchestrator(cfg *config.Config, db *state.DB) *orchestrator.Orchestrator {
	registry := agent.NewRegistry(state.NewAgentStore(db))

	// The interpreter shares a long-lived client; a missing credential
	// just disables LLM classification in favor of keywords.
	var generator llm.TextGenerator
	if client, err := newLLMClient(cfg); err == nil {
		generator = client
	}
	interpreter := interpret.NewInterpreter(interpret.NewMapCache(), generator)

	mail, calendar := googleClients(cfg)

	ocfg := orchestrator.Config{
		Registry:      registry,
		Interpreter:   interpreter,
		NewGenerator:  generatorFactory(),
		CRM:           state.NewCRMStore(db),
		Processed:     state.NewProcessedStore(db),
		Sink:          notify.NewStoreSink(state.NewNotificationStore(db), state.NewInsightStore(db)),
		EmailLimit:    cfg.Scan.EmailLimit,
		CalendarLimit: cfg.Scan.CalendarLimit,
	}
	if mail != nil {
		ocfg.Mail = mail
	}
	if calendar != nil {
		ocfg.Calendar = calendar
	}
	return orchestrator.New(ocfg)
}
