// Package openai provides the OpenAI implementation of the fact extraction
// provider.
//
// Extraction uses function calling rather than free-form completion: the
// model is forced to call a single function whose argument schema matches
// the fact shape, which keeps the output parseable without prompt tricks.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/homecare-labs/caremem-go/pkg/extractor"
	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
)

const extractionFunctionName = "store_patient_facts"

const systemPrompt = `You are a clinical fact extractor for a homecare service.
Given a caregiver's conversation notes about a patient, extract discrete facts worth remembering.

Rules:
- Each fact must be self-contained and understandable without the conversation.
- Classify each fact into exactly one category: medical_history, allergy, medication, preference, observation, appointment.
- Assign priority: ALLERGIES and MEDICATIONS are CRITICAL priority. Medical conditions and diagnoses are HIGH priority. Preferences and routine observations are NORMAL priority.
- Do not invent facts. If the conversation contains nothing worth remembering, call the function with an empty facts list.`

// Client is an OpenAI fact extraction client.
type Client struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// Config is the configuration for the OpenAI extractor.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the chat model name. Defaults to gpt-4o-mini.
	Model string

	// BaseURL overrides the API base URL (optional).
	BaseURL string
}

// NewClient creates a new OpenAI extraction client.
func NewClient(cfg *Config) (*Client, error) {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logging.Default(),
	}, nil
}

// extractionSchema is the argument schema for the extraction function.
func extractionSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"facts": {
				Type:        jsonschema.Array,
				Description: "Discrete facts extracted from the conversation",
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"category": {
							Type: jsonschema.String,
							Enum: []string{
								"medical_history", "allergy", "medication",
								"preference", "observation", "appointment",
							},
						},
						"priority": {
							Type: jsonschema.String,
							Enum: []string{"critical", "high", "normal"},
						},
						"content": {
							Type:        jsonschema.String,
							Description: "Self-contained fact text",
						},
					},
					Required: []string{"category", "priority", "content"},
				},
			},
		},
		Required: []string{"facts"},
	}
}

// Extract extracts facts from a conversation via function calling. The
// message turns are joined into a single numbered transcript before the
// call.
func (c *Client) Extract(ctx context.Context, conversation []string) ([]*extractor.Fact, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: joinConversation(conversation)},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        extractionFunctionName,
					Description: "Store extracted patient facts",
					Parameters:  extractionSchema(),
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: extractionFunctionName},
		},
		Temperature: 0,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("Extract: no choices returned from OpenAI API")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		// The model declined to call the function; treat as nothing
		// worth remembering.
		return nil, nil
	}

	facts, err := ParseFacts(calls[0].Function.Arguments, c.logger)
	if err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	return facts, nil
}

// joinConversation renders the ordered message turns as a numbered
// transcript.
func joinConversation(conversation []string) string {
	var b strings.Builder
	for i, turn := range conversation {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Message %d: %s", i+1, turn)
	}
	return b.String()
}

// ParseFacts parses the extraction function's JSON arguments into validated
// facts. Individual malformed entries are logged and skipped; only an
// unparseable payload is an error.
func ParseFacts(arguments string, logger *slog.Logger) ([]*extractor.Fact, error) {
	var payload struct {
		Facts []*extractor.Fact `json:"facts"`
	}

	if err := json.Unmarshal([]byte(arguments), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	facts := make([]*extractor.Fact, 0, len(payload.Facts))
	for i, fact := range payload.Facts {
		if fact == nil {
			continue
		}
		if err := fact.Validate(); err != nil {
			logger.Warn("dropping malformed extracted fact",
				slog.Int("index", i),
				slog.String("reason", err.Error()),
			)
			continue
		}
		facts = append(facts, fact)
	}

	return facts, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return nil
}
