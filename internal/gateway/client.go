package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"boq/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the boq approval server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a new approval server client.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Response envelopes (fixed by the server) ---

type shopEnvelope struct {
	Shop *models.Shop `json:"shop"`
}

type shopsEnvelope struct {
	Shops []models.Shop `json:"shops"`
}

type materialEnvelope struct {
	Material *models.Material `json:"material"`
}

type materialsEnvelope struct {
	Materials []models.Material `json:"materials"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doNoAuth(ctx, "GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Shop methods ---

// CreateShop submits a shop draft for approval.
func (c *Client) CreateShop(ctx context.Context, d models.ShopDraft) (*models.Shop, error) {
	var resp shopEnvelope
	if err := c.do(ctx, "POST", "/shops", d, &resp); err != nil {
		return nil, err
	}
	if resp.Shop == nil {
		return nil, fmt.Errorf("create shop: response missing shop")
	}
	return resp.Shop, nil
}

// ListShops fetches the confirmed shop list.
func (c *Client) ListShops(ctx context.Context) ([]models.Shop, error) {
	var resp shopsEnvelope
	if err := c.do(ctx, "GET", "/shops", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Shops, nil
}

// ListPendingShops fetches shops awaiting an approval decision.
func (c *Client) ListPendingShops(ctx context.Context) ([]models.Shop, error) {
	var resp shopsEnvelope
	if err := c.do(ctx, "GET", "/shops-pending-approval", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Shops, nil
}

// ApproveShop marks a pending shop approved.
func (c *Client) ApproveShop(ctx context.Context, id string) error {
	return c.do(ctx, "POST", fmt.Sprintf("/shops/%s/approve", id), nil, nil)
}

// RejectShop marks a pending shop rejected with a reason.
func (c *Client) RejectShop(ctx context.Context, id, reason string) error {
	return c.do(ctx, "POST", fmt.Sprintf("/shops/%s/reject", id), rejectRequest{Reason: reason}, nil)
}

// DeleteShop removes a confirmed shop.
func (c *Client) DeleteShop(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/shops/%s", id), nil, nil)
}

// --- Material methods ---

// CreateMaterial submits a material draft for approval.
func (c *Client) CreateMaterial(ctx context.Context, d models.MaterialDraft) (*models.Material, error) {
	var resp materialEnvelope
	if err := c.do(ctx, "POST", "/materials", d, &resp); err != nil {
		return nil, err
	}
	if resp.Material == nil {
		return nil, fmt.Errorf("create material: response missing material")
	}
	return resp.Material, nil
}

// ListMaterials fetches the confirmed material list.
func (c *Client) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var resp materialsEnvelope
	if err := c.do(ctx, "GET", "/materials", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Materials, nil
}

// ListPendingMaterials fetches materials awaiting an approval decision.
func (c *Client) ListPendingMaterials(ctx context.Context) ([]models.Material, error) {
	var resp materialsEnvelope
	if err := c.do(ctx, "GET", "/materials-pending-approval", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Materials, nil
}

// ApproveMaterial marks a pending material approved.
func (c *Client) ApproveMaterial(ctx context.Context, id string) error {
	return c.do(ctx, "POST", fmt.Sprintf("/materials/%s/approve", id), nil, nil)
}

// RejectMaterial marks a pending material rejected with a reason.
func (c *Client) RejectMaterial(ctx context.Context, id, reason string) error {
	return c.do(ctx, "POST", fmt.Sprintf("/materials/%s/reject", id), rejectRequest{Reason: reason}, nil)
}

// DeleteMaterial removes a confirmed material.
func (c *Client) DeleteMaterial(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/materials/%s", id), nil, nil)
}

// --- HTTP helpers ---

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// do executes an authenticated HTTP request.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, false)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
