// Package client talks to a running riskrater server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/RiskRater/internal/api"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
)

// APIError is a non-2xx response. Message is the server's error or response
// text when the body carries one.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("riskrater %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// SaveRequest is the body of POST /history/save.
type SaveRequest struct {
	Name       string  `json:"name"`
	FinalScore string  `json:"finalScore"`
	Likelihood float64 `json:"likelihood"`
	Impact     float64 `json:"impact"`
	Weighted   int     `json:"weighted"`
}

// SaveRequestFor builds a save body from a computed score.
func SaveRequestFor(name string, res scoring.ScoreResult) SaveRequest {
	req := SaveRequest{
		Name:       name,
		FinalScore: string(res.Category),
		Likelihood: res.Likelihood.Average,
		Impact:     res.Impact.Average,
	}
	if res.Weighted {
		req.Weighted = 1
	}
	return req
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
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
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func errorMessage(body []byte) string {
	var e struct {
		Error    string `json:"error"`
		Response string `json:"response"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Response != "" {
			return e.Response
		}
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) Score(ctx context.Context, req api.ScoreRequest) (*api.ScoreResponse, error) {
	var out api.ScoreResponse
	if err := c.doReq(ctx, "POST", "/score", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Matrices(ctx context.Context) (*api.MatricesResponse, error) {
	var out api.MatricesResponse
	if err := c.doReq(ctx, "GET", "/matrices", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists saved assessments newest first. limit <= 0 returns all.
func (c *HTTPClient) History(ctx context.Context, limit int) ([]api.HistoryItem, error) {
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []api.HistoryItem
	if err := c.doReq(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Save(ctx context.Context, req SaveRequest) error {
	return c.doReq(ctx, "POST", "/history/save", req, nil)
}

func (c *HTTPClient) Clear(ctx context.Context) error {
	return c.doReq(ctx, "POST", "/history/clear", nil, nil)
}

func (c *HTTPClient) Chat(ctx context.Context, message string) (string, error) {
	var out api.ChatResponse
	if err := c.doReq(ctx, "POST", "/chat", api.ChatRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
