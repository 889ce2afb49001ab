package description

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"listingvideo/internal/domain"
	"listingvideo/internal/infra"
)

const (
	defaultModel        = "gpt-4o"
	defaultTimeout      = 60 * time.Second
	temperature         = 0.7
	maxCompletionTokens = 500
)

var modelCanonical = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
	"gpt-4.1":     "gpt-4.1",
}

var modelAliases = map[string]string{
	"gpt4o":             "gpt-4o",
	"gpt-4-o":           "gpt-4o",
	"gpt-4o-latest":     "gpt-4o",
	"gpt-4o-2024-08-06": "gpt-4o",
	"gpt4o-mini":        "gpt-4o-mini",
	"gpt4omini":         "gpt-4o-mini",
	"gpt4.1":            "gpt-4.1",
}

// Response is the structured payload the model is asked to return.
type Response struct {
	Description string `json:"description" jsonschema_description:"Promotional narration for the listing video"`
}

// GenerateSchema reflects T into a strict JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var responseSchema = GenerateSchema[Response]()

// Options configures a Generator.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Generator writes promotional copy for a listing with an OpenAI chat model.
type Generator struct {
	client openai.Client
	apiKey string
	model  string
	logger *infra.Logger
}

// NewGenerator constructs a Generator. A missing API key is not an error
// here; Generate fails instead.
func NewGenerator(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		l := infra.DiscardLogger()
		logger = &l
	}
	model, reason := normalizeModel(opts.Model)
	if reason != "" {
		logger.Warn().Str("requested", opts.Model).Str("resolved", model).Str("reason", reason).Msg("description: model normalized")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	return &Generator{
		client: openai.NewClient(reqOpts...),
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

// Model returns the resolved chat model name.
func (g *Generator) Model() string { return g.model }

// Generate returns narration copy for opts.Listing in the requested tone.
// All failures wrap domain.ErrProviderFailure.
func (g *Generator) Generate(ctx context.Context, opts domain.DescriptionOptions) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: description: OPENAI_API_KEY is not configured", domain.ErrProviderFailure)
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write short promotional scripts for resale marketplace videos. Respond only with JSON."),
			openai.UserMessage(buildPrompt(opts)),
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxCompletionTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "listing_description",
					Description: openai.String("Promotional description for a listing video"),
					Schema:      responseSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: description: openai status %d", domain.ErrProviderFailure, apiErr.StatusCode)
		}
		return "", fmt.Errorf("%w: description: %v", domain.ErrProviderFailure, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: description: no choices", domain.ErrProviderFailure)
	}

	raw := strings.TrimSpace(completion.Choices[0].Message.Content)
	if raw == "" {
		return "", fmt.Errorf("%w: description: empty response, finish reason %s", domain.ErrProviderFailure, completion.Choices[0].FinishReason)
	}
	var parsed Response
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("%w: description: parse response: %v", domain.ErrProviderFailure, err)
	}
	text := strings.TrimSpace(parsed.Description)
	if text == "" {
		return "", fmt.Errorf("%w: description: empty description", domain.ErrProviderFailure)
	}
	g.logger.Debug().Str("model", g.model).Str("listing_id", opts.Listing.ID).Int("chars", len(text)).Msg("description: generated")
	return text, nil
}

func normalizeModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := modelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := modelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultModel, "defaulted"
}
