// Package gemini generates WhatsApp auto-replies with the Gemini API
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

var ErrEmptyReply = errors.New("gemini: model returned no text")

// Responder implements marketing.ReplyGenerator
type Responder struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
	temperature     float32
}

// NewResponder creates a Gemini client. baseURL overrides the API endpoint
// and is empty outside tests.
func NewResponder(ctx context.Context, cfg config.AIConfig, baseURL string) (*Responder, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &Responder{
		client:          client,
		model:           model,
		maxOutputTokens: maxTokens,
		temperature:     cfg.Temperature,
	}, nil
}

// GenerateReply answers the last contact message given the conversation so far
func (r *Responder) GenerateReply(ctx context.Context, systemPrompt string, history []marketing.ChatTurn) (string, error) {
	contents := buildContents(history)
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: empty conversation")
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(r.temperature),
		MaxOutputTokens:   r.maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// buildContents maps turns to Gemini roles, merging consecutive turns of the
// same author, and drops a trailing model turn so the model answers the
// contact.
func buildContents(history []marketing.ChatTurn) []*genai.Content {
	var contents []*genai.Content
	var lastRole genai.Role
	for _, turn := range history {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		var role genai.Role = genai.RoleModel
		if turn.FromContact {
			role = genai.RoleUser
		}
		if len(contents) > 0 && role == lastRole {
			prev := contents[len(contents)-1]
			prev.Parts = append(prev.Parts, genai.NewPartFromText(text))
			continue
		}
		contents = append(contents, genai.NewContentFromText(text, role))
		lastRole = role
	}
	for len(contents) > 0 && contents[len(contents)-1].Role == string(genai.RoleModel) {
		contents = contents[:len(contents)-1]
	}
	return contents
}

var _ marketing.ReplyGenerator = (*Responder)(nil)
