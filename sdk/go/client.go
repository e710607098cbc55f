package spycatsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Spy Cat Agency HTTP API client.
type Client struct {
	// BaseURL includes the server's base path, if any.
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

type Cat struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ExperienceYears int     `json:"experience_years"`
	Breed           string  `json:"breed"`
	Salary          float64 `json:"salary"`
}

// NewCat is the body of CreateCat.
type NewCat struct {
	Name            string  `json:"name"`
	ExperienceYears int     `json:"experience_years"`
	Breed           string  `json:"breed"`
	Salary          float64 `json:"salary"`
}

type Target struct {
	ID        int64  `json:"id"`
	MissionID int64  `json:"mission_id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
}

// NewTarget describes one target of CreateMission.
type NewTarget struct {
	Name      string `json:"name"`
	Country   string `json:"country"`
	Notes     string `json:"notes,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

type Mission struct {
	ID        int64    `json:"id"`
	CatID     *int64   `json:"cat_id"`
	Completed bool     `json:"completed"`
	Targets   []Target `json:"targets"`
}

type Breed struct {
	Name string `json:"name"`
}

// APIError wraps non-2xx responses. Code and Message come from the error
// envelope when the server sent one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: status=%d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
}

// CreateCat hires a cat.
func (c *Client) CreateCat(ctx context.Context, cat NewCat) (Cat, error) {
	var resp Cat
	err := c.do(ctx, http.MethodPost, "cats/", cat, &resp)
	return resp, err
}

// ListCats returns every cat.
func (c *Client) ListCats(ctx context.Context) ([]Cat, error) {
	var resp []Cat
	err := c.do(ctx, http.MethodGet, "cats/", nil, &resp)
	return resp, err
}

// GetCat fetches a cat by id.
func (c *Client) GetCat(ctx context.Context, id int64) (Cat, error) {
	var resp Cat
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("cats/%d", id), nil, &resp)
	return resp, err
}

// UpdateCatSalary replaces a cat's salary.
func (c *Client) UpdateCatSalary(ctx context.Context, id int64, salary float64) (Cat, error) {
	var resp Cat
	endpoint := fmt.Sprintf("cats/%d?salary=%s", id, strconv.FormatFloat(salary, 'f', -1, 64))
	err := c.do(ctx, http.MethodPut, endpoint, nil, &resp)
	return resp, err
}

// DeleteCat removes a cat that is not on a mission.
func (c *Client) DeleteCat(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("cats/%d", id), nil, nil)
}

// CreateMission creates an unassigned mission with its targets.
func (c *Client) CreateMission(ctx context.Context, targets []NewTarget) (Mission, error) {
	body := map[string]any{"targets": targets}
	var resp Mission
	err := c.do(ctx, http.MethodPost, "missions/", body, &resp)
	return resp, err
}

// ListMissions returns every mission with its targets.
func (c *Client) ListMissions(ctx context.Context) ([]Mission, error) {
	var resp []Mission
	err := c.do(ctx, http.MethodGet, "missions/", nil, &resp)
	return resp, err
}

// GetMission fetches a mission by id.
func (c *Client) GetMission(ctx context.Context, id int64) (Mission, error) {
	var resp Mission
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("missions/%d", id), nil, &resp)
	return resp, err
}

// AssignCat puts a cat on a mission.
func (c *Client) AssignCat(ctx context.Context, missionID, catID int64) (Mission, error) {
	var resp Mission
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("missions/%d/assign_cat/%d", missionID, catID), nil, &resp)
	return resp, err
}

// DeleteMission removes an unassigned mission and its targets.
func (c *Client) DeleteMission(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("missions/%d", id), nil, nil)
}

// UpdateTargetNotes replaces the notes of an open target.
func (c *Client) UpdateTargetNotes(ctx context.Context, missionID, targetID int64, notes string) (Target, error) {
	var resp Target
	endpoint := fmt.Sprintf("missions/%d/targets/%d?notes=%s", missionID, targetID, url.QueryEscape(notes))
	err := c.do(ctx, http.MethodPut, endpoint, nil, &resp)
	return resp, err
}

// CompleteTarget marks a target completed.
func (c *Client) CompleteTarget(ctx context.Context, missionID, targetID int64) (Target, error) {
	var resp Target
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("missions/%d/targets/%d/complete", missionID, targetID), nil, &resp)
	return resp, err
}

// ListBreeds returns the breeds the server accepts.
func (c *Client) ListBreeds(ctx context.Context) ([]string, error) {
	var resp []Breed
	if err := c.do(ctx, http.MethodGet, "breeds/", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp))
	for _, b := range resp {
		names = append(names, b.Name)
	}
	return names, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(b, &env) == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
