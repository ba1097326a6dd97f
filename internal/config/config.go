package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTZOffsetHours      = 3
	DefaultMaxConcurrentCalls = 3
)

// Tenant holds one portal's settings: the inbound webhook, the assistant to
// run transcripts through, and the run-level knobs.
type Tenant struct {
	ID                 string `yaml:"-"`
	WebhookURL         string `yaml:"bitrix_webhook_url"`
	AssistantID        string `yaml:"openai_assistant_id"`
	TZOffsetHours      int    `yaml:"tz_offset_hours"`
	MaxConcurrentCalls int    `yaml:"max_concurrent_calls"`
	MinDuration        *int   `yaml:"min_duration"`
	MaxDuration        *int   `yaml:"max_duration"`
}

// ClientsDir returns the directory holding per-tenant YAML files.
func ClientsDir() string {
	if dir := os.Getenv("CLIENTS_DIR"); dir != "" {
		return dir
	}
	return "clients"
}

// Load reads the tenant's YAML file from ClientsDir, falling back to
// environment variables for single-tenant deployments. Missing knobs get
// defaults; a missing webhook URL is an error.
func Load(tenantID string) (Tenant, error) {
	t := Tenant{ID: tenantID}
	path := filepath.Join(ClientsDir(), tenantID+".yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &t); err != nil {
			return Tenant{}, fmt.Errorf("parse %s: %w", path, err)
		}
		t.ID = tenantID
	case errors.Is(err, os.ErrNotExist):
		t.WebhookURL = os.Getenv("BITRIX_WEBHOOK_URL")
		t.AssistantID = os.Getenv("OPENAI_ASSISTANT_ID")
		if v := os.Getenv("TZ_OFFSET_HOURS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				t.TZOffsetHours = n
			}
		}
		if v := os.Getenv("MAX_CONCURRENT_CALLS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				t.MaxConcurrentCalls = n
			}
		}
	default:
		return Tenant{}, fmt.Errorf("read %s: %w", path, err)
	}
	if t.TZOffsetHours == 0 {
		t.TZOffsetHours = DefaultTZOffsetHours
	}
	if t.MaxConcurrentCalls <= 0 {
		t.MaxConcurrentCalls = DefaultMaxConcurrentCalls
	}
	if t.WebhookURL == "" {
		return Tenant{}, fmt.Errorf("tenant %s: bitrix webhook url not configured", tenantID)
	}
	return t, nil
}
