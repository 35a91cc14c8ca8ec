package services

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/utils"
)

// SystemPrompt keeps answers concise and agriculture-focused.
const SystemPrompt = "You are KrishiYukti, a helpful agriculture assistant for Indian farmers. " +
	"Answer in simple, concise language. When relevant, mention soil testing, local mandi prices, weather, and sustainable practices."

// ChatProvider answers a farmer's message. An empty reply (or error) means
// the provider could not help and the next one in the chain is tried.
type ChatProvider interface {
	Name() string
	Reply(ctx context.Context, message string) (string, error)
}

// openAICompatProvider speaks the OpenAI chat-completions protocol. OpenRouter
// and Ollama both expose compatible endpoints, so one provider type covers all
// three hosted backends via differing base URLs.
type openAICompatProvider struct {
	name   string
	client *openai.Client
	model  string
}

func (p *openAICompatProvider) Name() string { return p.name }

func (p *openAICompatProvider) Reply(ctx context.Context, message string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.7,
		MaxTokens:   250,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func newCompatProvider(name, apiKey, baseURL, model string) ChatProvider {
	c := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return &openAICompatProvider{name: name, client: openai.NewClientWithConfig(c), model: model}
}

// RuleBasedProvider is the deterministic last resort; it never fails and
// never returns an empty reply.
type RuleBasedProvider struct{}

func (RuleBasedProvider) Name() string { return "rules" }

func (RuleBasedProvider) Reply(_ context.Context, message string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(message))
	switch {
	case m == "":
		return "Hello! Ask me about crops, soil, or weather.", nil
	case strings.Contains(m, "soil"):
		return "Consider a soil test for pH and organic content; add compost to improve structure.", nil
	case strings.Contains(m, "fert"):
		return "Balance NPK and time your application; avoid overuse to prevent runoff.", nil
	case strings.Contains(m, "market"), strings.Contains(m, "price"):
		return "Check local mandi prices and consider staggered selling for better rates.", nil
	default:
		return "Monitor weather, test soil, and plan inputs based on crop stage.", nil
	}
}

// ChatService tries providers in a fixed order until one yields a non-empty
// reply. The rule-based provider is always last, so Chat never fails.
type ChatService struct {
	providers []ChatProvider
}

// NewChatService wires the provider chain from configuration:
// OpenRouter, then OpenAI, then a local Ollama, then rules.
func NewChatService(cfg config.AppConfig) *ChatService {
	var providers []ChatProvider
	if cfg.OpenRouterAPIKey != "" {
		providers = append(providers, newCompatProvider("openrouter", cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterModel))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, newCompatProvider("openai", cfg.OpenAIAPIKey, "", cfg.OpenAIModel))
	}
	providers = append(providers, newCompatProvider("ollama", "ollama", joinURL(cfg.OllamaBase, "/v1"), cfg.OllamaModel))
	providers = append(providers, RuleBasedProvider{})
	return &ChatService{providers: providers}
}

// NewChatServiceWithProviders builds a service from an explicit chain.
func NewChatServiceWithProviders(providers ...ChatProvider) *ChatService {
	return &ChatService{providers: providers}
}

// Chat walks the provider chain and returns the first non-empty reply.
func (s *ChatService) Chat(ctx context.Context, message string) string {
	for _, p := range s.providers {
		reply, err := p.Reply(ctx, message)
		if err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Debugf("chat provider %s failed: %v", p.Name(), err)
			}
			continue
		}
		if reply != "" {
			return reply
		}
	}
	// unreachable while the rule-based provider stays last
	reply, _ := RuleBasedProvider{}.Reply(ctx, message)
	return reply
}
