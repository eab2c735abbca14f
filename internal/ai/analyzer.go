package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// DrawingAnalysis is the structured critique of a finished drawing.
type DrawingAnalysis struct {
	Subject            string   `json:"subject"`
	Evaluation         string   `json:"evaluation"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	SuggestedStyle     string   `json:"suggestedStyle"`
	RegenerationPrompt string   `json:"regenerationPrompt"`
}

// Analyzer produces a DrawingAnalysis from a PNG raster.
type Analyzer interface {
	Analyze(ctx context.Context, png []byte, topic string) (*DrawingAnalysis, error)
}

// BedrockAnalyzer runs the analysis stage against a Claude vision model on
// Bedrock.
type BedrockAnalyzer struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockAnalyzer wraps a Bedrock client for the given model id.
func NewBedrockAnalyzer(client *bedrockruntime.Client, modelID string) *BedrockAnalyzer {
	return &BedrockAnalyzer{client: client, modelID: modelID}
}

const analysisInstruction = `You are judging a drawing from a party game. The players were asked to draw: %q.
Look at the image and respond with ONLY a JSON object, no prose around it, with these keys:
"subject" (what the drawing actually depicts), "evaluation" (2-3 sentence verdict on how well it matches the topic),
"strengths" (array of short strings), "weaknesses" (array of short strings),
"suggestedStyle" (an art style that would suit this drawing),
"regenerationPrompt" (a single prompt describing the same scene, polished, for an image generator).`

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Analyze sends the raster to the vision model and parses its JSON verdict.
func (a *BedrockAnalyzer) Analyze(ctx context.Context, png []byte, topic string) (*DrawingAnalysis, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicContent{
				{
					Type: "image",
					Source: &anthropicImageSource{
						Type:      "base64",
						MediaType: "image/png",
						Data:      base64.StdEncoding.EncodeToString(png),
					},
				},
				{Type: "text", Text: fmt.Sprintf(analysisInstruction, topic)},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	out, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     strPtr(a.modelID),
		ContentType: strPtr("application/json"),
		Accept:      strPtr("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke analysis model: %w", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("analysis response had no content")
	}

	text := resp.Content[0].Text
	analysis, err := parseAnalysisText(text)
	if err != nil {
		log.Printf("[AI] Unparsable analysis text: %.200s", text)
		return nil, err
	}
	return analysis, nil
}

// parseAnalysisText extracts the JSON object from the model's reply. Models
// occasionally wrap the object in code fences or prose.
func parseAnalysisText(text string) (*DrawingAnalysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in analysis text")
	}

	var analysis DrawingAnalysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis JSON: %w", err)
	}
	if analysis.RegenerationPrompt == "" {
		return nil, fmt.Errorf("analysis missing regeneration prompt")
	}
	return &analysis, nil
}
