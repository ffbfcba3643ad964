// Package gemini wraps the generative AI provider behind small clients for
// media uploads, text generation and video generation. Consuming packages
// declare their own interfaces over these clients.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey string, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Generate submits the attached media followed by the instruction to the
// configured model and returns the text of the first candidate. Provider
// rejections are folded into the quota and unavailable error classes.
func (c *Client) Generate(ctx context.Context, instruction string, media ...Handle) (string, error) {
	model := c.client.GenerativeModel(c.model)

	parts := make([]genai.Part, 0, len(media)+1)
	for _, m := range media {
		parts = append(parts, genai.FileData{MIMEType: m.MIMEType, URI: m.URI})
	}
	parts = append(parts, genai.Text(instruction))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyErr(err)
	}
	return candidateText(resp), nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
