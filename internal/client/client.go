package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
)

// Client talks to a running weighting service.
type Client interface {
	ListModels(ctx context.Context) ([]registry.ModelRecord, error)
	ReplaceModels(ctx context.Context, models []registry.ModelRecord) error
	ComputeWeights(ctx context.Context, scheme string, subset []string) (*store.WeightRun, error)
	GetRun(ctx context.Context, runID string) (*store.WeightRun, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token, clientID string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("democracy %s %s: %d %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

func (c *HTTPClient) ListModels(ctx context.Context) ([]registry.ModelRecord, error) {
	data, err := c.doReq(ctx, "GET", "/api/v1/models", nil)
	if err != nil {
		return nil, err
	}
	var models []registry.ModelRecord
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (c *HTTPClient) ReplaceModels(ctx context.Context, models []registry.ModelRecord) error {
	_, err := c.doReq(ctx, "PUT", "/api/v1/models", map[string]interface{}{"models": models})
	return err
}

func (c *HTTPClient) ComputeWeights(ctx context.Context, scheme string, subset []string) (*store.WeightRun, error) {
	data, err := c.doReq(ctx, "POST", "/api/v1/weights", map[string]interface{}{
		"scheme": scheme,
		"subset": subset,
	})
	if err != nil {
		return nil, err
	}
	var run store.WeightRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *HTTPClient) GetRun(ctx context.Context, runID string) (*store.WeightRun, error) {
	data, err := c.doReq(ctx, "GET", "/api/v1/weights/"+runID, nil)
	if err != nil {
		return nil, err
	}
	var run store.WeightRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}
