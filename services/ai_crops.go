package services

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/utils"
)

const cropSystemPrompt = "You are KrishiYukti, an agriculture assistant. Return concise, visual-friendly JSON. " +
	"Given region, season, soil, and market demand, suggest 3-5 crops as an array of objects with fields: " +
	"crop (string), emoji (string), score (0-100 int), category (string), sowing_window (string), " +
	"water_need (low|medium|high), yield_range (string), reasons (array of 2 short strings)."

// CropQuery is the input to a crop suggestion request.
type CropQuery struct {
	Region       string `json:"region" binding:"required"`
	Season       string `json:"season" binding:"required"`
	Soil         string `json:"soil" binding:"required"`
	MarketDemand bool   `json:"marketDemand"`
	CropType     string `json:"cropType"`
}

// CropSuggestion is one suggested crop card.
type CropSuggestion struct {
	Crop         string   `json:"crop"`
	Emoji        string   `json:"emoji"`
	Score        int      `json:"score"`
	Category     string   `json:"category"`
	SowingWindow string   `json:"sowing_window"`
	WaterNeed    string   `json:"water_need"`
	YieldRange   string   `json:"yield_range"`
	Reasons      []string `json:"reasons"`
}

// CropService produces crop suggestion cards, preferring the LLM provider and
// falling back to static cards that never fail.
type CropService struct {
	client *openai.Client
	model  string
}

// NewCropService builds a CropService; without an OpenRouter key only the
// static fallback is used.
func NewCropService(cfg config.AppConfig) *CropService {
	s := &CropService{model: cfg.OpenRouterModel}
	if cfg.OpenRouterAPIKey != "" {
		c := openai.DefaultConfig(cfg.OpenRouterAPIKey)
		c.BaseURL = cfg.OpenRouterBaseURL
		s.client = openai.NewClientWithConfig(c)
	}
	return s
}

// Suggest returns 3-5 crop cards for the given conditions.
func (s *CropService) Suggest(ctx context.Context, q CropQuery) []CropSuggestion {
	if items := s.suggestLLM(ctx, q); len(items) > 0 {
		return items
	}
	return fallbackCards(q)
}

func (s *CropService) suggestLLM(ctx context.Context, q CropQuery) []CropSuggestion {
	if s.client == nil {
		return nil
	}

	demand := "no"
	if q.MarketDemand {
		demand = "yes"
	}
	cropType := q.CropType
	if cropType == "" {
		cropType = "any"
	}
	userMsg := "Region: " + q.Region + "\nSeason: " + q.Season + "\nSoil: " + q.Soil +
		"\nMarket demand priority: " + demand +
		"\nPreferred crop type: " + cropType +
		"\nRespond with ONLY a JSON array as specified."

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.4,
		MaxTokens:   400,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: cropSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
	})
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Debugf("crop suggestion provider failed: %v", err)
		}
		return nil
	}
	if len(resp.Choices) == 0 {
		return nil
	}

	return parseCropCards(resp.Choices[0].Message.Content)
}

// parseCropCards locates the JSON array in the model output and normalizes
// each entry, dropping anything without a crop name.
func parseCropCards(text string) []CropSuggestion {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var raw []map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}

	items := make([]CropSuggestion, 0, len(raw))
	for _, it := range raw {
		card := CropSuggestion{
			Crop:         firstString(it, "crop", "name"),
			Emoji:        firstString(it, "emoji"),
			Score:        intOr(it, "score", 70),
			Category:     firstString(it, "category"),
			SowingWindow: firstString(it, "sowing_window"),
			WaterNeed:    firstString(it, "water_need"),
			YieldRange:   firstString(it, "yield_range"),
			Reasons:      stringSlice(it, "reasons"),
		}
		if card.Emoji == "" {
			card.Emoji = "🌾"
		}
		if card.WaterNeed == "" {
			card.WaterNeed = "medium"
		}
		if len(card.Reasons) == 0 {
			if r := firstString(it, "reason"); r != "" {
				card.Reasons = []string{r}
			} else {
				card.Reasons = []string{"Suitable for conditions."}
			}
		}
		if card.Crop != "" {
			items = append(items, card)
		}
	}
	return items
}

// fallbackCards mirrors the curated defaults: filter by crop type when given,
// trim to the demand-friendly pair when market demand is prioritized.
func fallbackCards(q CropQuery) []CropSuggestion {
	items := []CropSuggestion{
		{Crop: "Wheat", Emoji: "🌾", Score: 78, Category: "Cereal", SowingWindow: "Nov-Dec",
			WaterNeed: "medium", YieldRange: "3-5 t/ha", Reasons: []string{"Cool season fit", "Stable market demand"}},
		{Crop: "Paddy", Emoji: "🌾", Score: 70, Category: "Cereal", SowingWindow: "Jun-Jul",
			WaterNeed: "high", YieldRange: "2-4 t/ha", Reasons: []string{"Abundant water regions", "Regional suitability"}},
		{Crop: "Millets", Emoji: "🌾", Score: 75, Category: "Cereal", SowingWindow: "Jun-Jul",
			WaterNeed: "low", YieldRange: "1-2 t/ha", Reasons: []string{"Climate resilient", "Rising nutritional interest"}},
	}

	if ct := strings.ToLower(strings.TrimSpace(q.CropType)); ct != "" {
		filtered := make([]CropSuggestion, 0, len(items))
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Category), ct) {
				filtered = append(filtered, it)
			}
		}
		if len(filtered) > 0 {
			items = filtered
		}
	}
	if q.MarketDemand && len(items) >= 2 {
		items = []CropSuggestion{items[0], items[len(items)-1]}
	}
	return items
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func intOr(m map[string]any, key string, def int) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		}
	}
	return def
}

func stringSlice(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	res := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, ok := it.(string); ok {
			res = append(res, s)
		}
	}
	return res
}
