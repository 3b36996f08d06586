package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wendylandcan/liqingai/config"
)

const (
	defaultGeminiModel = "gemini-1.5-flash"
	// stableGeminiModel is the pinned variant tried when the default
	// flash model fails transiently.
	stableGeminiModel  = "gemini-1.5-flash-002"
	capableGeminiModel = "gemini-1.5-pro"
)

// Global Gemini client instance
var geminiClient *genai.Client

// InitGemini initializes the Gemini client using the API key from the config
func InitGemini(cfg *config.Config) error {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return err
	}
	geminiClient = client
	return nil
}

// generateGeminiText issues a single generation call against one Gemini
// model. Attachments ride along as blob parts, which is how both image
// evidence and audio transcription reach the model.
func generateGeminiText(ctx context.Context, modelName string, req InferRequest) (string, error) {
	if geminiClient == nil {
		return "", errors.New("gemini client not initialized")
	}

	model := geminiClient.GenerativeModel(modelName)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
	model.SetTemperature(req.Temperature)

	parts := make([]genai.Part, 0, len(req.Attachments)+1)
	parts = append(parts, genai.Text(req.Prompt))
	for _, a := range req.Attachments {
		parts = append(parts, genai.Blob{MIMEType: a.MIME, Data: a.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty model response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return cleanModelOutput(sb.String()), nil
}

// cleanModelOutput strips the markdown fences Gemini likes to wrap JSON in.
func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func geminiBackend(modelName string) backend {
	return backend{
		name: "gemini/" + modelName,
		generate: func(ctx context.Context, req InferRequest) (string, error) {
			return generateGeminiText(ctx, modelName, req)
		},
	}
}
