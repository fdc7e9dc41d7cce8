package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/regiondesk/backend/internal/models"
)

// HTTPClient talks to the ticketing backend's REST API with a service
// token. Every call is attempted exactly once; retries belong to callers.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (c *HTTPClient) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	var wire []wireTicket
	if err := c.do(ctx, http.MethodGet, "/api/v1/tickets?expand=false&per_page=500", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.Ticket, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.normalize())
	}
	return out, nil
}

func (c *HTTPClient) GetTicket(ctx context.Context, id int) (models.Ticket, error) {
	var wire wireTicket
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/tickets/%d", id), nil, &wire); err != nil {
		return models.Ticket{}, err
	}
	return wire.normalize(), nil
}

func (c *HTTPClient) ListAgents(ctx context.Context) ([]models.Agent, error) {
	var wire []wireAgent
	if err := c.do(ctx, http.MethodGet, "/api/v1/users?per_page=500", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.Agent, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.normalize())
	}
	return out, nil
}

func (c *HTTPClient) GetGroup(ctx context.Context, id int) (models.Group, error) {
	var group models.Group
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", id), nil, &group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (c *HTTPClient) UpdateTicket(ctx context.Context, id int, update models.TicketUpdate) (models.Ticket, error) {
	var wire wireTicket
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/tickets/%d", id), update, &wire); err != nil {
		return models.Ticket{}, err
	}
	return wire.normalize(), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token token="+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ticketing backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("ticketing backend error: %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
