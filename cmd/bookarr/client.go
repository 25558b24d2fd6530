package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps HTTP calls to the bookarr server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new bookarr API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) delete(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// API response types (mirror server types)

type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type BookResponse struct {
	ID        int64           `json:"id"`
	Provider  string          `json:"provider"`
	Key       string          `json:"key"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Year      int             `json:"year"`
	State     string          `json:"state"`
	Assets    []AssetResponse `json:"assets"`
	AddedAt   time.Time       `json:"added_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type AssetResponse struct {
	MediaType   string `json:"media_type"`
	Status      string `json:"status"`
	StoragePath string `json:"storage_path"`
	SizeBytes   int64  `json:"size_bytes"`
}

type ListBooksResponse struct {
	Items []BookResponse `json:"items"`
	Total int            `json:"total"`
}

type CandidateResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	DownloadURL string     `json:"downloadUrl"`
	InfoURL     string     `json:"infoUrl"`
	Source      string     `json:"source"`
	Seeders     *int       `json:"seeders"`
	Size        *int64     `json:"size"`
	PublishDate *time.Time `json:"publishDate"`
	MatchScore  float64    `json:"matchScore"`
}

type JobResponse struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"user_id"`
	BookID        int64      `json:"book_id"`
	MediaType     string     `json:"media_type"`
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	ExternalID    string     `json:"external_id"`
	FailureReason string     `json:"failure_reason"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// API methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Books() (*ListBooksResponse, error) {
	var resp ListBooksResponse
	if err := c.get("/api/v1/books", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Book(id int64) (*BookResponse, error) {
	var resp BookResponse
	if err := c.get("/api/v1/books/"+strconv.FormatInt(id, 10), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Candidates(provider, key, mediaType string, page, pageSize int) ([]CandidateResponse, error) {
	params := url.Values{
		"provider":   {provider},
		"key":        {key},
		"media_type": {mediaType},
		"page":       {strconv.Itoa(page)},
		"page_size":  {strconv.Itoa(pageSize)},
	}
	var resp struct {
		Items []CandidateResponse `json:"items"`
	}
	if err := c.get("/api/v1/candidates?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Grab(userID, provider, key, mediaType, candidateID string) (*JobResponse, error) {
	body := map[string]string{
		"user_id":      userID,
		"provider":     provider,
		"key":          key,
		"media_type":   mediaType,
		"candidate_id": candidateID,
	}
	var resp JobResponse
	if err := c.post("/api/v1/grab", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Downloads(userID string, activeOnly bool) ([]JobResponse, error) {
	params := url.Values{}
	if userID != "" {
		params.Set("user_id", userID)
	}
	if activeOnly {
		params.Set("active", "true")
	}
	path := "/api/v1/downloads"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var resp struct {
		Items []JobResponse `json:"items"`
	}
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Download(id int64) (*JobResponse, error) {
	var resp JobResponse
	if err := c.get("/api/v1/downloads/"+strconv.FormatInt(id, 10), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelDownload(id int64, userID string, deleteFiles bool) error {
	params := url.Values{"user_id": {userID}}
	if deleteFiles {
		params.Set("delete_files", "true")
	}
	return c.delete("/api/v1/downloads/" + strconv.FormatInt(id, 10) + "?" + params.Encode())
}
