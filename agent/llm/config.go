package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	openrouterx "github.com/tanpawarit/merchant-sales-agent/pkg/openrouter"
)

// Config carries provider credentials per usage context. A context without an
// api key is disabled; turns on it degrade instead of failing.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"800"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.1"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	MerchantAPIKey string `envconfig:"MERCHANT_API_KEY" split_words:"true"`
	MerchantModel  string `envconfig:"MERCHANT_MODEL" split_words:"true"`
	SupportAPIKey  string `envconfig:"SUPPORT_API_KEY" split_words:"true"`
	SupportModel   string `envconfig:"SUPPORT_MODEL" split_words:"true"`
	RescueAPIKey   string `envconfig:"RESCUE_API_KEY" split_words:"true"`
	RescueModel    string `envconfig:"RESCUE_MODEL" split_words:"true"`

	RescueTemperature float32 `envconfig:"RESCUE_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the endpoint config of one usage context, or
// ErrChannelDisabled when that context has no credential.
func (c Config) OpenRouterFor(channel contractx.Channel) (openrouterx.Config, error) {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	var apiKey, override string
	switch channel {
	case contractx.ChannelMerchant:
		apiKey, override = c.MerchantAPIKey, c.MerchantModel
	case contractx.ChannelSupport:
		apiKey, override = c.SupportAPIKey, c.SupportModel
	case contractx.ChannelRescue:
		apiKey, override = c.RescueAPIKey, c.RescueModel
		if c.RescueTemperature >= 0 {
			temp = c.RescueTemperature
		}
	default:
		return openrouterx.Config{}, fmt.Errorf("%w: unknown channel %q", contractx.ErrChannelDisabled, channel)
	}

	if strings.TrimSpace(apiKey) == "" {
		return openrouterx.Config{}, fmt.Errorf("%w: no credential for channel %q", contractx.ErrChannelDisabled, channel)
	}
	if v := strings.TrimSpace(override); v != "" {
		modelName = v
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(apiKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}, nil
}

// VerifyRequired fails when any listed context has no credential.
func (c Config) VerifyRequired(channels []string) error {
	for _, raw := range channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, err := c.OpenRouterFor(contractx.Channel(name)); err != nil {
			return fmt.Errorf("required context %s: %w", strings.ToUpper(name), err)
		}
	}
	return nil
}
