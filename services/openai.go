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

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// askOpenAI calls the OpenAI chat completions API with an explicit model.
// jsonMode constrains the response format to a JSON object.
func askOpenAI(model, systemPrompt, userPrompt string, jsonMode bool, log *zap.SugaredLogger) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY: %w", ErrNoAPIKey)
	}
	if strings.TrimSpace(userPrompt) == "" {
		return "", fmt.Errorf("empty prompt")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	payload := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: strings.TrimSpace(userPrompt)},
		},
		Temperature: 0.1,
	}
	if jsonMode {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequest("POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("[OpenAI] request error: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var data openAIResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("OpenAI parse error: %w", err)
	}
	if data.Error != nil {
		log.Warnf("[OpenAI] error: %s", data.Error.Message)
		return "", fmt.Errorf("OpenAI: %s", data.Error.Message)
	}
	if len(data.Choices) == 0 {
		return "", fmt.Errorf("OpenAI: empty response")
	}
	return strings.TrimSpace(data.Choices[0].Message.Content), nil
}
