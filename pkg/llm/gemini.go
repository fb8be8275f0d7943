/**
 * @description
 * This file implements the Google Gemini backend for the llm package using
 * the official genai SDK. Assistant turns map to the model role; system
 * instructions travel in the generation config.
 *
 * @dependencies
 * - context, fmt: Standard Go libraries.
 * - google.golang.org/genai: The Gemini SDK.
 */
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements Client using the Google genai SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) buildContents(history []ChatMessage) ([]*genai.Content, string) {
	var extraSystem strings.Builder
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case "system":
			if extraSystem.Len() > 0 {
				extraSystem.WriteString("\n\n")
			}
			extraSystem.WriteString(m.Content)
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, extraSystem.String()
}

func (c *GeminiClient) buildConfig(system, extraSystem string) *genai.GenerateContentConfig {
	sys := system
	if extraSystem != "" {
		if sys != "" {
			sys += "\n\n"
		}
		sys += extraSystem
	}
	if sys == "" {
		return nil
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(sys, genai.RoleUser),
	}
}

// Complete performs a single-shot generation.
func (c *GeminiClient) Complete(ctx context.Context, model, system string, history []ChatMessage) (string, error) {
	contents, extraSystem := c.buildContents(history)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, c.buildConfig(system, extraSystem))
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

// Stream performs a streaming generation, forwarding chunks to onDelta and
// returning the accumulated full text.
func (c *GeminiClient) Stream(ctx context.Context, model, system string, history []ChatMessage, onDelta StreamFunc) (string, error) {
	contents, extraSystem := c.buildContents(history)

	var full strings.Builder
	for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, c.buildConfig(system, extraSystem)) {
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onDelta != nil {
			onDelta(chunk)
		}
	}
	return full.String(), nil
}
