package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// LoopsClient talks to the Loops contacts API.
type LoopsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLoopsClient creates a Loops contacts client
func NewLoopsClient(baseURL, apiKey string, timeout time.Duration) *LoopsClient {
	return &LoopsClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *LoopsClient) Name() string {
	return "loops"
}

type loopsContact struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SearchByEmail returns the contact with the given email, or nil when absent.
func (c *LoopsClient) SearchByEmail(ctx context.Context, email string) (*Contact, error) {
	path := "/v1/contacts/find?email=" + url.QueryEscape(email)

	var found []loopsContact
	if err := c.do(ctx, http.MethodGet, path, nil, &found); err != nil {
		return nil, err
	}

	if len(found) == 0 {
		return nil, nil
	}
	return &Contact{ID: found[0].ID, Email: found[0].Email}, nil
}

func (c *LoopsClient) Create(ctx context.Context, email string, attributes map[string]string) (*Contact, error) {
	body := map[string]string{"email": email}
	for k, v := range attributes {
		body[k] = v
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/contacts/create", body, &created); err != nil {
		return nil, err
	}

	return &Contact{ID: created.ID, Email: email, Attributes: attributes}, nil
}

func (c *LoopsClient) Update(ctx context.Context, id string, attributes map[string]string) error {
	body := map[string]string{"id": id}
	for k, v := range attributes {
		body[k] = v
	}
	return c.do(ctx, http.MethodPut, "/v1/contacts/update", body, nil)
}

func (c *LoopsClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode loops request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build loops request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("loops request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("loops returned %d: %s", resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode loops response: %w", err)
	}
	return nil
}
