package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const recordTimeout = 10 * time.Second

// Client talks to the anchor gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: recordTimeout},
	}
}

var _ Registrar = (*Client)(nil)

type recordPayload struct {
	ProjectID          string `json:"project_id"`
	FreelancerID       string `json:"freelancer_id"`
	ClientID           string `json:"client_id"`
	Completed          bool   `json:"completed"`
	OutcomeDescription string `json:"outcome_description"`
}

type recordResponse struct {
	TransactionHash string `json:"transaction_hash"`
	TaskID          string `json:"task_id"`
}

func (c *Client) Record(ctx context.Context, r RecordRequest) (*RecordResult, error) {
	body, err := json.Marshal(recordPayload{
		ProjectID:          r.ProjectID.String(),
		FreelancerID:       r.FreelancerID.String(),
		ClientID:           r.ClientID.String(),
		Completed:          r.Completed,
		OutcomeDescription: r.OutcomeDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anchor payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/anchors", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anchor gateway call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anchor gateway returned status %d", resp.StatusCode)
	}

	var out recordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode anchor response: %w", err)
	}
	if out.TransactionHash == "" {
		return nil, fmt.Errorf("anchor gateway returned empty transaction hash")
	}
	return &RecordResult{TxHash: out.TransactionHash, TaskID: out.TaskID}, nil
}
