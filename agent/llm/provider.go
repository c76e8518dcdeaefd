package llm

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// Provider hands out the chat model of a usage context.
type Provider interface {
	ChatModel(ctx context.Context, channel contractx.Channel) (model.ToolCallingChatModel, string, error)
}

type builtModel struct {
	model model.ToolCallingChatModel
	name  string
}

// Factory builds one chat model per context on first use and reuses it.
type Factory struct {
	cfg Config

	mu    sync.Mutex
	built map[contractx.Channel]builtModel
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg, built: make(map[contractx.Channel]builtModel, 3)}
}

func (f *Factory) ChatModel(ctx context.Context, channel contractx.Channel) (model.ToolCallingChatModel, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.built[channel]; ok {
		return b.model, b.name, nil
	}

	conf, err := f.cfg.OpenRouterFor(channel)
	if err != nil {
		return nil, "", err
	}
	m, err := conf.New(ctx)
	if err != nil {
		return nil, "", err
	}
	f.built[channel] = builtModel{model: m, name: conf.Model}
	return m, conf.Model, nil
}
