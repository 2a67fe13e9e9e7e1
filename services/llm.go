package services

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Completer is the text-completion capability. Structured callers set
// jsonMode and must still strip code fences before parsing — providers
// occasionally wrap JSON output regardless.
type Completer interface {
	Complete(systemPrompt, userPrompt string, jsonMode bool) (string, error)
}

// ─── Active LLM config ────────────────────────────────────────────────────────

var (
	llmMu       sync.RWMutex
	llmProvider = "openai"
	llmModel    = "gpt-4o-mini"
)

// SetLLM updates the active provider and model at runtime.
func SetLLM(provider, model string) {
	llmMu.Lock()
	defer llmMu.Unlock()
	llmProvider = provider
	llmModel = model
}

// GetLLM returns the currently configured provider and model.
func GetLLM() (provider, model string) {
	llmMu.RLock()
	defer llmMu.RUnlock()
	return llmProvider, llmModel
}

// LLMRouter routes completion calls to the active provider.
type LLMRouter struct {
	log *zap.SugaredLogger
}

func NewLLMRouter(log *zap.SugaredLogger) *LLMRouter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &LLMRouter{log: log}
}

func (r *LLMRouter) Complete(systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	provider, model := GetLLM()
	r.log.Debugf("[LLM] calling %s/%s", provider, model)

	switch provider {
	case "anthropic":
		return askClaude(model, systemPrompt, userPrompt, r.log)
	default:
		return askOpenAI(model, systemPrompt, userPrompt, jsonMode, r.log)
	}
}

// StripCodeFences removes a wrapping ``` block (with optional language
// tag) from an LLM response so the payload can be parsed as JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "html", ...)
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.Contains(first, "{") && !strings.Contains(first, "[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
