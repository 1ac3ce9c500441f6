package tool

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	llmx "github.com/tanpawarit/agent-sender/agent/llm"
	promptx "github.com/tanpawarit/agent-sender/agent/prompt"
	openrouterx "github.com/tanpawarit/agent-sender/pkg/openrouter"
)

const (
	WriterTemplate   = "template"
	WriterGenerative = "generative"
)

type Config struct {
	SearchLimit int    `split_words:"true" default:"5"`
	Writer      string `split_words:"true" default:"template"`
}

var _ contractx.Toolset = (*Catalog)(nil)

// Catalog binds one implementation per tool name into a Toolset.
type Catalog struct {
	contractx.LeadSearcher
	contractx.EmailWriter
	contractx.EmailSender
}

func NewCatalog(searcher contractx.LeadSearcher, writer contractx.EmailWriter, sender contractx.EmailSender) *Catalog {
	return &Catalog{
		LeadSearcher: searcher,
		EmailWriter:  writer,
		EmailSender:  sender,
	}
}

// Build assembles the catalog from configuration. The LLM config is only
// consulted for the generative writer.
func Build(cfg Config, smtpCfg SMTPConfig, llmCfg llmx.Config) (*Catalog, error) {
	writer, err := buildWriter(cfg, llmCfg)
	if err != nil {
		return nil, err
	}
	return NewCatalog(NewMockSearcher(cfg.SearchLimit), writer, NewSMTPSender(smtpCfg)), nil
}

func buildWriter(cfg Config, llmCfg llmx.Config) (contractx.EmailWriter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Writer)) {
	case "", WriterTemplate:
		return TemplateWriter{}, nil
	case WriterGenerative:
		if err := llmCfg.Validate(); err != nil {
			return nil, err
		}
		routerCfg := llmCfg.OpenRouterFor(contractx.RoleWriter)
		client, err := openrouterx.NewClient(routerCfg)
		if err != nil {
			return nil, err
		}
		return NewGenerativeWriter(client, routerCfg.Model, routerCfg.Temperature, promptx.LoadPromptSet().Email)
	default:
		return nil, fmt.Errorf("%w: unknown writer %q", contractx.ErrValidation, cfg.Writer)
	}
}
