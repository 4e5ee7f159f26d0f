package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/Clearway/internal/domain"
)

// DefaultBaseURL — адрес шлюза расчётной сети по умолчанию.
const DefaultBaseURL = "http://localhost:9090"

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPClient — Client поверх JSON-шлюза расчётной сети.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient создаёт клиент шлюза.
func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SubmitMessage реализует Client.
func (c *HTTPClient) SubmitMessage(ctx context.Context, req SubmitRequest) (*domain.TransactionResponse, error) {
	var tx domain.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/transactions", req, &tx); err != nil {
		return nil, fmt.Errorf("submit message %s: %w", req.MessageID, err)
	}
	return &tx, nil
}

// GetMessageResult реализует Client.
func (c *HTTPClient) GetMessageResult(ctx context.Context, txHash string) (*MessageResult, error) {
	var result MessageResult
	if err := c.do(ctx, http.MethodGet, "/v1/transactions/"+txHash, nil, &result); err != nil {
		return nil, fmt.Errorf("get result %s: %w", txHash, err)
	}
	return &result, nil
}

// RetryMessage реализует Client.
func (c *HTTPClient) RetryMessage(ctx context.Context, req SubmitRequest) (*domain.TransactionResponse, error) {
	var tx domain.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/transactions/"+req.PriorTxHash+"/retry", req, &tx); err != nil {
		return nil, fmt.Errorf("retry message %s: %w", req.MessageID, err)
	}
	return &tx, nil
}

// CancelMessage реализует Client.
func (c *HTTPClient) CancelMessage(ctx context.Context, txHash string) error {
	if err := c.do(ctx, http.MethodPost, "/v1/transactions/"+txHash+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancel transaction %s: %w", txHash, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	// Известные коды маппятся на sentinel-ошибки для errors.Is
	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrTransactionNotFound
	case http.StatusConflict:
		return ErrNotCancellable
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("network gateway error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
