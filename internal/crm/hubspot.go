package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HubSpotClient talks to the HubSpot CRM v3 contacts API. Only the
// search-by-email and create/update surface this system depends on is
// implemented.
type HubSpotClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHubSpotClient creates a HubSpot contacts client
func NewHubSpotClient(baseURL, apiKey string, timeout time.Duration) *HubSpotClient {
	return &HubSpotClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HubSpotClient) Name() string {
	return "hubspot"
}

type hubspotSearchRequest struct {
	FilterGroups []hubspotFilterGroup `json:"filterGroups"`
	Limit        int                  `json:"limit"`
}

type hubspotFilterGroup struct {
	Filters []hubspotFilter `json:"filters"`
}

type hubspotFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type hubspotContact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type hubspotSearchResponse struct {
	Total   int              `json:"total"`
	Results []hubspotContact `json:"results"`
}

// SearchByEmail returns the contact with the given email, or nil when absent.
func (c *HubSpotClient) SearchByEmail(ctx context.Context, email string) (*Contact, error) {
	reqBody := hubspotSearchRequest{
		FilterGroups: []hubspotFilterGroup{{
			Filters: []hubspotFilter{{PropertyName: "email", Operator: "EQ", Value: email}},
		}},
		Limit: 1,
	}

	var resp hubspotSearchResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	found := resp.Results[0]
	return &Contact{ID: found.ID, Email: email, Attributes: found.Properties}, nil
}

func (c *HubSpotClient) Create(ctx context.Context, email string, attributes map[string]string) (*Contact, error) {
	properties := map[string]string{"email": email}
	for k, v := range attributes {
		properties[k] = v
	}

	var created hubspotContact
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", map[string]interface{}{"properties": properties}, &created); err != nil {
		return nil, err
	}

	return &Contact{ID: created.ID, Email: email, Attributes: created.Properties}, nil
}

func (c *HubSpotClient) Update(ctx context.Context, id string, attributes map[string]string) error {
	path := fmt.Sprintf("/crm/v3/objects/contacts/%s", id)
	return c.do(ctx, http.MethodPatch, path, map[string]interface{}{"properties": attributes}, nil)
}

func (c *HubSpotClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode hubspot request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build hubspot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hubspot returned %d: %s", resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode hubspot response: %w", err)
	}
	return nil
}
