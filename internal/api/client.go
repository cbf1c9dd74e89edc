package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slides/internal/domain"
)

// Client is a domain.SlideStore backed by a remote Server, so an editor can
// persist over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

var _ domain.SlideStore = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) GetSlide(ctx context.Context, id string) (*domain.Slide, error) {
	var sl domain.Slide
	if err := c.do(ctx, http.MethodGet, slidePath(id), nil, &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

func (c *Client) SaveSlide(ctx context.Context, sl *domain.Slide) error {
	return c.do(ctx, http.MethodPut, slidePath(sl.ID), sl, sl)
}

func (c *Client) ListElements(ctx context.Context, slideID string) ([]domain.SlideElement, error) {
	var els []domain.SlideElement
	if err := c.do(ctx, http.MethodGet, slidePath(slideID)+"/elements", nil, &els); err != nil {
		return nil, err
	}
	return els, nil
}

func (c *Client) CreateSlideElement(ctx context.Context, slideID string, payload domain.SlideElement) (*domain.SlideElement, error) {
	var el domain.SlideElement
	if err := c.do(ctx, http.MethodPost, slidePath(slideID)+"/elements", payload, &el); err != nil {
		return nil, err
	}
	return &el, nil
}

func (c *Client) UpdateSlideElement(ctx context.Context, slideID, elementID string, payload domain.SlideElement) (*domain.SlideElement, error) {
	var el domain.SlideElement
	if err := c.do(ctx, http.MethodPut, elementPath(slideID, elementID), payload, &el); err != nil {
		return nil, err
	}
	return &el, nil
}

func (c *Client) DeleteSlideElement(ctx context.Context, slideID, elementID string) error {
	return c.do(ctx, http.MethodDelete, elementPath(slideID, elementID), nil, nil)
}

func slidePath(id string) string {
	return "/api/slides/" + url.PathEscape(id)
}

func elementPath(slideID, elementID string) string {
	return slidePath(slideID) + "/elements/" + url.PathEscape(elementID)
}

// do sends body as JSON and decodes the response into out. A 404 wraps
// domain.ErrNotFound and a 400 wraps domain.ErrInvalidElement.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &eb) != nil || eb.Error == "" {
			eb.Error = strings.TrimSpace(string(data))
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w: %s", method, path, domain.ErrNotFound, eb.Error)
		case http.StatusBadRequest:
			return fmt.Errorf("%s %s: %w: %s", method, path, domain.ErrInvalidElement, eb.Error)
		default:
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, eb.Error)
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
