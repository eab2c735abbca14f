package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Generator turns a drawing plus a prompt into a polished PNG.
type Generator interface {
	Generate(ctx context.Context, png []byte, prompt string) ([]byte, error)
}

// BedrockGenerator runs the regeneration stage against a Titan image model.
type BedrockGenerator struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockGenerator wraps a Bedrock client for the given model id.
func NewBedrockGenerator(client *bedrockruntime.Client, modelID string) *BedrockGenerator {
	return &BedrockGenerator{client: client, modelID: modelID}
}

type titanVariationParams struct {
	Images             []string `json:"images"`
	Text               string   `json:"text"`
	SimilarityStrength float64  `json:"similarityStrength"`
}

type titanGenerationConfig struct {
	NumberOfImages int `json:"numberOfImages"`
	Width          int `json:"width"`
	Height         int `json:"height"`
}

type titanRequest struct {
	TaskType             string                `json:"taskType"`
	ImageVariationParams titanVariationParams  `json:"imageVariationParams"`
	ImageGenerationConfig titanGenerationConfig `json:"imageGenerationConfig"`
}

type titanResponse struct {
	Images []string `json:"images"`
	Error  string   `json:"error,omitempty"`
}

// Generate asks the model for a single variation of the drawing guided by
// the prompt and returns the decoded PNG bytes.
func (g *BedrockGenerator) Generate(ctx context.Context, png []byte, prompt string) ([]byte, error) {
	body, err := json.Marshal(titanRequest{
		TaskType: "IMAGE_VARIATION",
		ImageVariationParams: titanVariationParams{
			Images:             []string{base64.StdEncoding.EncodeToString(png)},
			Text:               prompt,
			SimilarityStrength: 0.7,
		},
		ImageGenerationConfig: titanGenerationConfig{
			NumberOfImages: 1,
			Width:          1024,
			Height:         1024,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     strPtr(g.modelID),
		ContentType: strPtr("application/json"),
		Accept:      strPtr("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke image model: %w", err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("image model error: %s", resp.Error)
	}
	if len(resp.Images) == 0 {
		return nil, fmt.Errorf("generation response had no images")
	}

	decoded, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}
	return decoded, nil
}
