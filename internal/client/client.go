// Package client is the consuming side of the work-order API: it keeps a
// best-effort local mirror of the list and invalidates it by refetching
// after every mutation, never by patching locally.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/bitfantasy/workorder/internal/entity"
)

// State is the snapshot the UI renders from: idle → loading → data or error.
type State struct {
	Data    []entity.WorkOrder
	Loading bool
	Error   string
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	state State
	seq   uint64 // token of the newest refetch; stale responses are dropped
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		state:   State{Data: []entity.WorkOrder{}},
	}
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Data = append([]entity.WorkOrder(nil), c.state.Data...)
	return s
}

// Refetch reloads the full list. Overlapping refetches are allowed to race;
// only the newest one is applied (last-write-wins on local state).
func (c *Client) Refetch(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()

	var wos []entity.WorkOrder
	err := c.getJSON(ctx, "/api/workorders", &wos)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		// a newer refetch started after this one; drop the stale response
		return err
	}
	c.state.Loading = false
	if err != nil {
		c.state.Data = []entity.WorkOrder{}
		c.state.Error = err.Error()
		return err
	}
	if wos == nil {
		wos = []entity.WorkOrder{}
	}
	c.state.Data = wos
	return nil
}

// Create posts a new work order and refetches the list on success.
func (c *Client) Create(ctx context.Context, wo entity.WorkOrder) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/workorders", wo, nil); err != nil {
		c.setError(err)
		return err
	}
	return c.Refetch(ctx)
}

// UpdateResult 更新响应里的 data，含展示用的 remaining
type UpdateResult struct {
	WorkOrderNo  string `json:"workOrderNo"`
	MachineNo    string `json:"machineNo"`
	OperatorName string `json:"operatorName"`
	OrderQty     int    `json:"orderQty"`
	CompletedQty int    `json:"completedQty"`
	Remaining    int    `json:"remaining"`
}

// Update replaces the mutable fields of a work order and refetches.
func (c *Client) Update(ctx context.Context, workOrderNo string, wo entity.WorkOrder) (*UpdateResult, error) {
	var resp struct {
		Data UpdateResult `json:"data"`
	}
	path := "/api/workorders/" + workOrderNo
	if err := c.doJSON(ctx, http.MethodPut, path, wo, &resp); err != nil {
		c.setError(err)
		return nil, err
	}
	if err := c.Refetch(ctx); err != nil {
		return &resp.Data, err
	}
	return &resp.Data, nil
}

// Delete removes a work order and refetches.
func (c *Client) Delete(ctx context.Context, workOrderNo string) error {
	path := "/api/workorders/" + workOrderNo
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		c.setError(err)
		return err
	}
	return c.Refetch(ctx)
}

// UploadResult mirrors the upload response payload.
type UploadResult struct {
	Message      string   `json:"message"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// Upload sends a spreadsheet as multipart form data and refetches.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/workorders/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.setError(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := responseError(resp, "Failed to upload work orders")
		c.setError(err)
		return nil, err
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if err := c.Refetch(ctx); err != nil {
		return &result, err
	}
	return &result, nil
}

// Health checks the server liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/api/health", nil)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state.Loading = false
	c.state.Error = err.Error()
	c.mu.Unlock()
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp, fmt.Sprintf("request failed with status %d", resp.StatusCode))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// responseError derives the message from the structured payload when
// present, falling back to a generic string.
func responseError(resp *http.Response, fallback string) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		switch {
		case payload.Message != "":
			return fmt.Errorf("%s", payload.Message)
		case payload.Error != "":
			return fmt.Errorf("%s", payload.Error)
		case payload.Detail != "":
			return fmt.Errorf("%s", payload.Detail)
		}
	}
	return fmt.Errorf("%s", fallback)
}
