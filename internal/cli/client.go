package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ProcessingResponse — итог синхронной обработки сообщения.
type ProcessingResponse struct {
	Success     bool                 `json:"success"`
	MessageID   string               `json:"message_id,omitempty"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Errors      []string             `json:"errors,omitempty"`
}

// TransactionResponse — ответ расчётной сети.
type TransactionResponse struct {
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
	Fees            int64  `json:"fees"`
}

// MessageAcceptedResponse — подтверждение приёма в асинхронную обработку.
type MessageAcceptedResponse struct {
	MessageID   string `json:"message_id"`
	MessageType string `json:"message_type"`
}

// SubmissionResponse — запись об отправке из API.
type SubmissionResponse struct {
	ID              string `json:"id"`
	MessageID       string `json:"message_id"`
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
	Fees            int64  `json:"fees"`
	RetryCount      int    `json:"retry_count"`
	PriorTxHash     string `json:"prior_tx_hash,omitempty"`
	Error           string `json:"error,omitempty"`
	SubmittedAt     string `json:"submitted_at"`
	UpdatedAt       string `json:"updated_at"`
}

// --- Request types ---

// SubmitMessageRequest — отправка финансового сообщения.
type SubmitMessageRequest struct {
	MessageType string `json:"message_type"`
	Payload     string `json:"payload"`
	Async       bool   `json:"async,omitempty"`
}

// ListSubmissionsOpts — параметры фильтрации отправок.
type ListSubmissionsOpts struct {
	Status string
	Limit  int
	Offset int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Clearway API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Messages ---

// SubmitMessage отправляет сообщение на синхронную обработку.
// Невалидное сообщение — не ошибка транспорта: API отвечает 422 с
// деталями в теле, и клиент возвращает их как обычный результат.
func (c *Client) SubmitMessage(messageType, payload string) (*ProcessingResponse, error) {
	body := SubmitMessageRequest{MessageType: messageType, Payload: payload}

	resp, err := c.do(http.MethodPost, "/api/v1/messages", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusUnprocessableEntity {
		return nil, c.checkError(resp)
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// 422 без data — ошибка состояния (например, недоступен брокер),
	// а не результат обработки
	if len(dr.Data) == 0 {
		return nil, fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	var result ProcessingResponse
	if err := json.Unmarshal(dr.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// SubmitMessageAsync публикует сообщение в очередь на асинхронную обработку.
func (c *Client) SubmitMessageAsync(messageType, payload string) (*MessageAcceptedResponse, error) {
	body := SubmitMessageRequest{MessageType: messageType, Payload: payload, Async: true}
	var accepted MessageAcceptedResponse
	err := c.post("/api/v1/messages", body, &accepted)
	return &accepted, err
}

// GetMessageSubmission возвращает запись об отправке по ID сообщения.
func (c *Client) GetMessageSubmission(messageID string) (*SubmissionResponse, error) {
	var sub SubmissionResponse
	err := c.get("/api/v1/messages/"+messageID+"/submission", &sub)
	return &sub, err
}

// --- Submissions ---

// ListSubmissions возвращает записи об отправках с фильтрацией.
func (c *Client) ListSubmissions(opts ListSubmissionsOpts) ([]SubmissionResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}

	var subs []SubmissionResponse
	err := c.list("/api/v1/submissions", params, &subs)
	return subs, err
}

// GetSubmission возвращает запись об отправке по ID.
func (c *Client) GetSubmission(id string) (*SubmissionResponse, error) {
	var sub SubmissionResponse
	err := c.get("/api/v1/submissions/"+id, &sub)
	return &sub, err
}

// RetrySubmission повторно отправляет неуспешную запись.
func (c *Client) RetrySubmission(id string) (*SubmissionResponse, error) {
	var sub SubmissionResponse
	err := c.post("/api/v1/submissions/"+id+"/retry", nil, &sub)
	return &sub, err
}

// CancelSubmission отменяет ещё не рассчитанную запись.
func (c *Client) CancelSubmission(id string) (*SubmissionResponse, error) {
	var sub SubmissionResponse
	err := c.post("/api/v1/submissions/"+id+"/cancel", nil, &sub)
	return &sub, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
