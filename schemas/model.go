// Package schemas defines the serializable configuration types shared by
// the rest of the system: jobs, component references, runtime settings, and
// the model union. Types here carry no behavior beyond validation so they
// can be written to disk, shared, and replayed.
package schemas

import (
	"encoding/json"
	"fmt"

	errors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// Model types accepted by the "type" discriminator.
const (
	ModelTypeOpenAI    = "openai"
	ModelTypeAnthropic = "anthropic"
	ModelTypeLiteLLM   = "litellm"
)

// OpenAIModel configures a model served by the OpenAI API.
type OpenAIModel struct {
	Type    string `json:"type" yaml:"type"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	NumRetries       int            `json:"num_retries,omitempty" yaml:"num_retries,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens        *int           `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	CompletionKwargs map[string]any `json:"completion_kwargs,omitempty" yaml:"completion_kwargs,omitempty"`
}

// AnthropicModel configures a model served by the Anthropic API.
type AnthropicModel struct {
	Type    string `json:"type" yaml:"type"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	NumRetries       int            `json:"num_retries,omitempty" yaml:"num_retries,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens        *int           `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	CompletionKwargs map[string]any `json:"completion_kwargs,omitempty" yaml:"completion_kwargs,omitempty"`
}

// LiteLLMModel configures a model routed through a LiteLLM-compatible
// gateway. Unlike the direct variants, provider and base URL are required.
type LiteLLMModel struct {
	Type     string `json:"type" yaml:"type"`
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`

	NumRetries       int            `json:"num_retries,omitempty" yaml:"num_retries,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	CompletionKwargs map[string]any `json:"completion_kwargs,omitempty" yaml:"completion_kwargs,omitempty"`
}

// Model is a tagged union over the supported model configurations. Exactly
// one variant is set; the YAML/JSON "type" field selects it on decode.
type Model struct {
	OpenAI    *OpenAIModel    `json:"-" yaml:"-"`
	Anthropic *AnthropicModel `json:"-" yaml:"-"`
	LiteLLM   *LiteLLMModel   `json:"-" yaml:"-"`
}

// Kind returns the discriminator of the set variant, or "".
func (m *Model) Kind() string {
	switch {
	case m.OpenAI != nil:
		return ModelTypeOpenAI
	case m.Anthropic != nil:
		return ModelTypeAnthropic
	case m.LiteLLM != nil:
		return ModelTypeLiteLLM
	}
	return ""
}

// ModelSettings is the flattened view of a model variant used when
// rendering scripts and container specs.
type ModelSettings struct {
	Provider         string
	Model            string
	BaseURL          string
	APIKey           string
	NumRetries       int
	Temperature      float64
	CompletionKwargs map[string]any
}

// Settings flattens the active variant. Providers without an explicit
// provider field report their type as the provider.
func (m *Model) Settings() ModelSettings {
	switch {
	case m.OpenAI != nil:
		return ModelSettings{
			Provider:         ModelTypeOpenAI,
			Model:            m.OpenAI.Model,
			BaseURL:          m.OpenAI.BaseURL,
			APIKey:           m.OpenAI.APIKey,
			NumRetries:       m.OpenAI.NumRetries,
			Temperature:      deref(m.OpenAI.Temperature),
			CompletionKwargs: m.OpenAI.CompletionKwargs,
		}
	case m.Anthropic != nil:
		return ModelSettings{
			Provider:         ModelTypeAnthropic,
			Model:            m.Anthropic.Model,
			BaseURL:          m.Anthropic.BaseURL,
			APIKey:           m.Anthropic.APIKey,
			NumRetries:       m.Anthropic.NumRetries,
			Temperature:      deref(m.Anthropic.Temperature),
			CompletionKwargs: m.Anthropic.CompletionKwargs,
		}
	case m.LiteLLM != nil:
		return ModelSettings{
			Provider:         m.LiteLLM.Provider,
			Model:            m.LiteLLM.Model,
			BaseURL:          m.LiteLLM.BaseURL,
			APIKey:           m.LiteLLM.APIKey,
			NumRetries:       m.LiteLLM.NumRetries,
			Temperature:      deref(m.LiteLLM.Temperature),
			CompletionKwargs: m.LiteLLM.CompletionKwargs,
		}
	}
	return ModelSettings{}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Validate checks that exactly one variant is set and that its fields are
// within bounds.
func (m *Model) Validate() error {
	switch m.Kind() {
	case "":
		return errors.New(errors.CodeInvalidConfig, "model configuration is required")
	case ModelTypeOpenAI:
		v := m.OpenAI
		if v.Model == "" || v.APIKey == "" {
			return errors.New(errors.CodeInvalidConfig, "openai model requires model and api_key")
		}
		return validateBounds(v.NumRetries, v.Temperature, 2.0)
	case ModelTypeAnthropic:
		v := m.Anthropic
		if v.Model == "" || v.APIKey == "" {
			return errors.New(errors.CodeInvalidConfig, "anthropic model requires model and api_key")
		}
		return validateBounds(v.NumRetries, v.Temperature, 1.0)
	case ModelTypeLiteLLM:
		v := m.LiteLLM
		if v.Provider == "" || v.Model == "" || v.BaseURL == "" || v.APIKey == "" {
			return errors.New(errors.CodeInvalidConfig,
				"litellm model requires provider, model, base_url and api_key")
		}
		switch v.Provider {
		case "openai", "anthropic", "litellm_proxy":
		default:
			return errors.Newf(errors.CodeInvalidConfig, "unsupported litellm provider: %s", v.Provider)
		}
		return validateBounds(v.NumRetries, v.Temperature, 1.0)
	}
	return nil
}

func validateBounds(numRetries int, temperature *float64, maxTemp float64) error {
	if numRetries < 0 {
		return errors.New(errors.CodeInvalidConfig, "num_retries must not be negative")
	}
	if temperature != nil && (*temperature < 0 || *temperature > maxTemp) {
		return errors.Newf(errors.CodeInvalidConfig,
			"temperature must be between 0 and %g", maxTemp)
	}
	return nil
}

type modelProbe struct {
	Type string `json:"type" yaml:"type"`
}

// UnmarshalYAML selects the variant named by the type field.
func (m *Model) UnmarshalYAML(value *yaml.Node) error {
	var probe modelProbe
	if err := value.Decode(&probe); err != nil {
		return err
	}

	*m = Model{}
	switch probe.Type {
	case ModelTypeOpenAI:
		m.OpenAI = &OpenAIModel{}
		return value.Decode(m.OpenAI)
	case ModelTypeAnthropic:
		m.Anthropic = &AnthropicModel{}
		return value.Decode(m.Anthropic)
	case ModelTypeLiteLLM:
		m.LiteLLM = &LiteLLMModel{}
		return value.Decode(m.LiteLLM)
	}
	return fmt.Errorf("unsupported model type: %q", probe.Type)
}

// MarshalYAML emits the active variant with its discriminator.
func (m Model) MarshalYAML() (any, error) {
	switch {
	case m.OpenAI != nil:
		m.OpenAI.Type = ModelTypeOpenAI
		return m.OpenAI, nil
	case m.Anthropic != nil:
		m.Anthropic.Type = ModelTypeAnthropic
		return m.Anthropic, nil
	case m.LiteLLM != nil:
		m.LiteLLM.Type = ModelTypeLiteLLM
		return m.LiteLLM, nil
	}
	return nil, fmt.Errorf("model has no variant set")
}

// UnmarshalJSON selects the variant named by the type field.
func (m *Model) UnmarshalJSON(data []byte) error {
	var probe modelProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	*m = Model{}
	switch probe.Type {
	case ModelTypeOpenAI:
		m.OpenAI = &OpenAIModel{}
		return json.Unmarshal(data, m.OpenAI)
	case ModelTypeAnthropic:
		m.Anthropic = &AnthropicModel{}
		return json.Unmarshal(data, m.Anthropic)
	case ModelTypeLiteLLM:
		m.LiteLLM = &LiteLLMModel{}
		return json.Unmarshal(data, m.LiteLLM)
	}
	return fmt.Errorf("unsupported model type: %q", probe.Type)
}

// MarshalJSON emits the active variant with its discriminator.
func (m Model) MarshalJSON() ([]byte, error) {
	switch {
	case m.OpenAI != nil:
		m.OpenAI.Type = ModelTypeOpenAI
		return json.Marshal(m.OpenAI)
	case m.Anthropic != nil:
		m.Anthropic.Type = ModelTypeAnthropic
		return json.Marshal(m.Anthropic)
	case m.LiteLLM != nil:
		m.LiteLLM.Type = ModelTypeLiteLLM
		return json.Marshal(m.LiteLLM)
	}
	return nil, fmt.Errorf("model has no variant set")
}
