package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/greenpoints/gp-ui/config"
	"github.com/greenpoints/gp-ui/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultInsightsModel = "gemini-1.5-flash"
	insightsMaxTokens    = 1024
	insightsTemperature  = 0.7

	// Served whenever generation is unavailable or fails. Callers never see
	// an error from Summarize.
	insightsFallback = "Unable to generate insights at this time."
)

const insightsPrompt = `Calculate the environmental impact of collecting %d plastic bottles.
Provide 3 short bullet points:
1. CO2 saved.
2. Oil saved in production.
3. A fun comparison (e.g., energy to power a laptop).
Keep it brief and professional.`

// textGenerator abstracts the generative backend so tests can stub it.
type textGenerator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// InsightsService produces free-text sustainability commentary for an
// aggregate bottle count. Generation failures degrade to a fixed string;
// nothing here is authoritative for persisted state.
type InsightsService struct {
	gen textGenerator
}

// NewInsightsService initializes the Gemini client. With no API key, or if
// client setup fails, the service stays disabled and serves the fallback.
func NewInsightsService(settingService *SettingService) *InsightsService {
	service := &InsightsService{}

	apiKey := config.GetGeminiAPIKey()
	if apiKey == "" {
		logger.Info("insights: no API key configured, serving fallback text")
		return service
	}

	modelName, err := settingService.GetInsightsModel()
	if err != nil || modelName == "" {
		modelName = defaultInsightsModel
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		logger.Warning("insights: failed to create Gemini client:", err)
		return service
	}

	model := client.GenerativeModel(modelName)
	model.SetMaxOutputTokens(insightsMaxTokens)
	model.SetTemperature(insightsTemperature)

	service.gen = &geminiGenerator{client: client, model: model}
	logger.Info("insights: Gemini client initialized, model", modelName)
	return service
}

// Summarize returns commentary for the given aggregate bottle count. Always
// returns text; any backend failure yields the fallback string.
func (s *InsightsService) Summarize(ctx context.Context, bottles int) string {
	if s.gen == nil {
		return insightsFallback
	}

	text, err := s.gen.generate(ctx, fmt.Sprintf(insightsPrompt, bottles))
	if err != nil {
		logger.Warning("insights: generation failed:", err)
		return insightsFallback
	}
	if strings.TrimSpace(text) == "" {
		return insightsFallback
	}
	return text
}

type geminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
