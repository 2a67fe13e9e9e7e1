package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ─── Anthropic Claude REST API ────────────────────────────────────────────────
// Docs: https://docs.anthropic.com/en/api/messages

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// askClaude sends a system + user prompt to the Anthropic Messages API.
func askClaude(model, sysPrompt, userPrompt string, log *zap.SugaredLogger) (string, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY: %w", ErrNoAPIKey)
	}
	if model == "" {
		model = "claude-3-haiku-20240307"
	}

	payload := claudeRequest{
		Model:     model,
		MaxTokens: 1024,
		System:    sysPrompt,
		Messages:  []claudeMessage{{Role: "user", Content: userPrompt}},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequest("POST", "https://api.anthropic.com/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("[Claude] request error: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result claudeResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("Claude parse error: %w", err)
	}
	if result.Error != nil {
		log.Warnf("[Claude] API error [%s]: %s", result.Error.Type, result.Error.Message)
		return "", fmt.Errorf("Claude: %s", result.Error.Message)
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("Claude: empty response")
}
