package bitrix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"call-harvester-go/internal/logger"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Client talks to one tenant's Bitrix portal through its inbound webhook URL.
type Client struct {
	webhookURL string
	log        *logrus.Entry
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		log:        logger.New().WithField("module", "bitrix"),
	}
}

// WebhookURL returns the normalized webhook base URL.
func (c *Client) WebhookURL() string { return c.webhookURL }

func (c *Client) endpoint(method string) string {
	return c.webhookURL + "/" + method
}

// postJSON sends a REST method call with a JSON body and decodes the response.
func (c *Client) postJSON(method string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}
	return doJSON("POST", c.endpoint(method), body, target)
}

// getJSON sends a REST method call with query parameters.
func (c *Client) getJSON(method string, params url.Values, target interface{}) error {
	u, err := url.Parse(c.endpoint(method))
	if err != nil {
		return err
	}
	u.RawQuery = params.Encode()
	return doJSON("GET", u.String(), nil, target)
}

// doJSON performs one REST call with retry on transport and 5xx failures.
// The request is rebuilt per attempt so the body survives retries.
func doJSON(method, rawURL string, body []byte, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequest(method, rawURL, rd)
		if err != nil {
			return backoff.Permanent(err)
		}
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
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(respBody))
			return lastErr
		}
		if resp.StatusCode >= 300 {
			// client errors never heal on retry
			lastErr = fmt.Errorf("api error: status=%d body=%s", resp.StatusCode, string(respBody))
			return backoff.Permanent(lastErr)
		}
		if len(respBody) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(respBody, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(respBody))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

// EntityLink builds the portal URL for the CRM entity a call is attached to.
// Owner types: 1 = lead, 2 = deal, 3 = contact.
func EntityLink(webhookURL, ownerTypeID, ownerID string) string {
	domain := webhookURL
	if i := strings.Index(domain, "/rest/"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	switch ownerTypeID {
	case "1":
		return fmt.Sprintf("https://%s/crm/lead/details/%s/", domain, ownerID)
	case "2":
		return fmt.Sprintf("https://%s/crm/deal/details/%s/", domain, ownerID)
	case "3":
		return fmt.Sprintf("https://%s/crm/contact/details/%s/", domain, ownerID)
	}
	return "no linked entity"
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats Bitrix emits for activity fields.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable time %q", s)
}
