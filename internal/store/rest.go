package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/model"
)

type RESTClient struct { // implements PostStore
	baseURL string
	client  *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// postPayload is the writable subset of a post sent on create and update.
// Ids and timestamps are assigned by the store and never sent.
type postPayload struct {
	Title      string           `json:"title"`
	Category   model.Categories `json:"category,omitempty"`
	Content    string           `json:"content"`
	Excerpt    string           `json:"excerpt,omitempty"`
	Tags       []string         `json:"tags"`
	CoverImage string           `json:"coverImage,omitempty"`
	Status     string           `json:"status"`
}

func payloadFrom(post *model.Post) *postPayload {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return &postPayload{
		Title:      post.Title,
		Category:   post.Category,
		Content:    post.Content,
		Excerpt:    post.Excerpt,
		Tags:       tags,
		CoverImage: post.CoverImage,
		Status:     post.Status,
	}
}

func (c *RESTClient) List(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(ctx, http.MethodGet, config.APIBlogsPath, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *RESTClient) Get(ctx context.Context, id model.PostID) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodGet, config.APIBlogsPath+"/"+string(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *RESTClient) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	var created model.Post
	if err := c.do(ctx, http.MethodPost, config.APIBlogsPath, payloadFrom(post), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *RESTClient) Update(ctx context.Context, id model.PostID, post *model.Post) (*model.Post, error) {
	var updated model.Post
	if err := c.do(ctx, http.MethodPut, config.APIBlogsPath+"/"+string(id), payloadFrom(post), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *RESTClient) Delete(ctx context.Context, id model.PostID) error {
	return c.do(ctx, http.MethodDelete, config.APIBlogsPath+"/"+string(id), nil, nil)
}

func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	if body != nil {
		req.Header.Set(config.HCType, config.CTypeJSON)
	}
	req.Header.Set("Accept", config.CTypeJSON)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling post store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StoreError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// readErrorMessage extracts the store's human-readable message from an
// error body. Both {"message": ...} and {"error": ...} envelopes appear in
// the wild.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
