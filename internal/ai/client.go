// Package ai реализует клиента шлюза модерации контента и генерации
// описаний услуг поверх OpenAI-совместимого API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client выполняет запросы к AI шлюзу.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, model string) *Client {
	apiKey := os.Getenv("AI_API_KEY")

	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ModerationResult итог проверки контента.
// AutoApproved означает, что шлюз был недоступен и контент пропущен
// без проверки: доступность платформы важнее строгости модерации.
type ModerationResult struct {
	Approved     bool    `json:"approved"`
	Reason       *string `json:"reason,omitempty"`
	Severity     *string `json:"severity,omitempty"`
	AutoApproved bool    `json:"autoApproved,omitempty"`
}

const moderationSystemPrompt = `Ты модератор площадки бытовых услуг. Проверь текст на запрещённый контент:
оскорбления, мошенничество, контактные данные для обхода платформы, незаконные услуги.
Ответь строго JSON вида {"approved": true|false, "reason": "...", "severity": "low|medium|high"}.`

// ModerateContent проверяет пользовательский текст. Любой сбой шлюза
// (недоступность, лимиты, кривой ответ) трактуется как авто-одобрение.
func (c *Client) ModerateContent(ctx context.Context, content, contentType string) (*ModerationResult, error) {
	raw, err := c.complete(ctx, moderationSystemPrompt, fmt.Sprintf("Тип контента: %s\n\n%s", contentType, content))
	if err != nil {
		return &ModerationResult{Approved: true, AutoApproved: true}, nil
	}

	var result ModerationResult
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return &ModerationResult{Approved: true, AutoApproved: true}, nil
	}
	return &result, nil
}

const descriptionSystemPrompt = `Ты помощник специалиста на площадке бытовых услуг.
Составь краткое продающее описание услуги (2-3 абзаца) на основе названия и ключевых слов.
Ответь только текстом описания, без преамбулы.`

// GenerateServiceDescription генерирует описание услуги по названию и ключевым словам.
func (c *Client) GenerateServiceDescription(ctx context.Context, name string, keywords []string) (string, error) {
	prompt := "Название услуги: " + name
	if len(keywords) > 0 {
		prompt += "\nКлючевые слова: " + strings.Join(keywords, ", ")
	}

	description, err := c.complete(ctx, descriptionSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("ai: генерация описания не удалась: %w", err)
	}
	return strings.TrimSpace(description), nil
}

// complete выполняет обычный chat completion запрос.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("ai: baseURL не задан")
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai: не удалось сериализовать запрос: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("ai: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai: не удалось прочитать ответ: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: шлюз вернул статус %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ai: не удалось разобрать ответ: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai: пустой ответ шлюза")
	}

	return parsed.Choices[0].Message.Content, nil
}

// extractJSON вырезает JSON объект из ответа модели, которая любит
// оборачивать его в markdown блоки.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
