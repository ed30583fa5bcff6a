// Package billing реализует клиента провайдера PIX платежей.
// Провайдер создаёт одноразовые счета и отдаёт их список с текущими
// статусами; платформа сопоставляет счёт со сметой по корреляционному
// ключу в metadata.quote_id или в externalId продукта.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Статусы счёта на стороне провайдера.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusExpired = "EXPIRED"
)

// Client выполняет запросы к API провайдера.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Product описывает позицию счёта. Цена указывается в центах.
type Product struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
}

// Customer описывает плательщика. TaxID (CPF/CNPJ) обязателен для PIX.
type Customer struct {
	Name  string `json:"name"`
	TaxID string `json:"taxId"`
	Email string `json:"email"`
}

// CreateBillingRequest описывает запрос на создание счёта.
type CreateBillingRequest struct {
	Frequency     string            `json:"frequency"`
	Methods       []string          `json:"methods"`
	Products      []Product         `json:"products"`
	ReturnURL     string            `json:"returnUrl"`
	CompletionURL string            `json:"completionUrl"`
	Customer      Customer          `json:"customer"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Billing описывает счёт на стороне провайдера.
type Billing struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	URL      string            `json:"url"`
	Amount   int64             `json:"amount"`
	Metadata map[string]string `json:"metadata"`
	Products []Product         `json:"products"`
}

// envelope общий конверт ответов провайдера.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *string         `json:"error"`
}

// CreateBilling создаёт одноразовый PIX счёт и возвращает его вместе со
// ссылкой на оплату. Локального состояния вызов не меняет.
func (c *Client) CreateBilling(ctx context.Context, req CreateBillingRequest) (*Billing, error) {
	if req.Frequency == "" {
		req.Frequency = "ONE_TIME"
	}
	if len(req.Methods) == 0 {
		req.Methods = []string{"PIX"}
	}

	var billing Billing
	if err := c.do(ctx, http.MethodPost, "/billing/create", req, &billing); err != nil {
		return nil, err
	}
	return &billing, nil
}

// ListBillings возвращает все счета аккаунта с их текущими статусами.
func (c *Client) ListBillings(ctx context.Context) ([]Billing, error) {
	var billings []Billing
	if err := c.do(ctx, http.MethodGet, "/billing/list", nil, &billings); err != nil {
		return nil, err
	}
	return billings, nil
}

// do выполняет запрос и разбирает конверт ответа.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("billing: baseURL не задан")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("billing: не удалось сериализовать запрос: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("billing: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing: запрос %s %s не выполнен: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("billing: не удалось прочитать ответ: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("billing: провайдер вернул статус %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("billing: не удалось разобрать конверт ответа: %w", err)
	}
	if env.Error != nil && *env.Error != "" {
		return fmt.Errorf("billing: ошибка провайдера: %s", *env.Error)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("billing: не удалось разобрать данные ответа: %w", err)
		}
	}
	return nil
}
