package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// HTTPClient implements Client against the OpenAI assistants v2 REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
}

// NewHTTPClient builds a client. baseURL is normally
// "https://api.openai.com/v1"; tests point it at a local server.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, target interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	var lastErr error
	op := func() error {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("OpenAI-Beta", "assistants=v2")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("assistant api %s: status=%d body=%s", path, resp.StatusCode, string(respBody))
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("assistant api %s: status=%d body=%s", path, resp.StatusCode, string(respBody))
			return backoff.Permanent(lastErr)
		}
		if target != nil {
			if err := json.Unmarshal(respBody, target); err != nil {
				lastErr = fmt.Errorf("assistant api %s: decode: %v body=%s", path, err, string(respBody))
				return lastErr
			}
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

func (c *HTTPClient) CreateThread(ctx context.Context) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", "/threads", map[string]interface{}{}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) CreateMessage(ctx context.Context, threadID, role, content string) error {
	payload := map[string]string{"role": role, "content": content}
	return c.do(ctx, "POST", "/threads/"+threadID+"/messages", payload, nil)
}

func (c *HTTPClient) CreateRun(ctx context.Context, threadID, assistantID string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	payload := map[string]string{"assistant_id": assistantID}
	if err := c.do(ctx, "POST", "/threads/"+threadID+"/runs", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) RetrieveRun(ctx context.Context, threadID, runID string) (RunStatus, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, "GET", "/threads/"+threadID+"/runs/"+runID, nil, &resp); err != nil {
		return "", err
	}
	return RunStatus(resp.Status), nil
}

func (c *HTTPClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var resp struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := c.do(ctx, "GET", "/threads/"+threadID+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(resp.Data))
	for _, m := range resp.Data {
		msg := Message{Role: m.Role}
		for _, blk := range m.Content {
			msg.Segments = append(msg.Segments, Segment{Type: blk.Type, Text: blk.Text.Value})
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
