package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestClient_ModerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		json.NewEncoder(w).Encode(completionResponse(`{"approved": false, "reason": "контакты в тексте", "severity": "medium"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gpt-4o-mini")
	result, err := client.ModerateContent(context.Background(), "звоните +55 11 9999", "quote")

	assert.NoError(t, err)
	assert.False(t, result.Approved)
	assert.False(t, result.AutoApproved)
	assert.Equal(t, "контакты в тексте", *result.Reason)
}

func TestClient_ModerateContent_MarkdownFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse("```json\n{\"approved\": true}\n```"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	result, err := client.ModerateContent(context.Background(), "укладка плитки", "quote")

	assert.NoError(t, err)
	assert.True(t, result.Approved)
	assert.False(t, result.AutoApproved)
}

func TestClient_ModerateContent_GatewayDownApproves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	result, err := client.ModerateContent(context.Background(), "текст", "quote")

	// Сбой шлюза не блокирует публикацию.
	assert.NoError(t, err)
	assert.True(t, result.Approved)
	assert.True(t, result.AutoApproved)
}

func TestClient_ModerateContent_GarbageResponseApproves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse("не могу определить"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	result, err := client.ModerateContent(context.Background(), "текст", "quote")

	assert.NoError(t, err)
	assert.True(t, result.Approved)
	assert.True(t, result.AutoApproved)
}

func TestClient_GenerateServiceDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse("  Профессиональная укладка плитки под ключ.  "))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	description, err := client.GenerateServiceDescription(context.Background(), "Укладка плитки", []string{"ванная", "кухня"})

	assert.NoError(t, err)
	assert.Equal(t, "Профессиональная укладка плитки под ключ.", description)
}

func TestClient_GenerateServiceDescription_GatewayDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// Генерация, в отличие от модерации, отдаёт ошибку наружу.
	client := NewClient(server.URL, "")
	_, err := client.GenerateServiceDescription(context.Background(), "Укладка плитки", nil)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"approved": true}`, extractJSON("```json\n{\"approved\": true}\n```"))
	assert.Equal(t, `{"approved": true}`, extractJSON(`вот результат: {"approved": true} готово`))
	assert.Equal(t, `{"a":{"b":1}}`, extractJSON(`{"a":{"b":1}}`))
}
