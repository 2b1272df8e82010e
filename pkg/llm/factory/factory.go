package factory

import (
	"fmt"

	"ai-lawyer-be/pkg/llm"
	"ai-lawyer-be/pkg/llm/ollama"
	"ai-lawyer-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai", "mistral":
		// Mistral exposes an OpenAI-compatible endpoint; only the base URL
		// differs, so both ride the same adapter.
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
