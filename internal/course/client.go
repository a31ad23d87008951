package course

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProgressAPI is the backend progress surface the tracker writes to.
type ProgressAPI interface {
	UpdateProgress(ctx context.Context, u ProgressUpdate) error
	CourseProgress(ctx context.Context, courseID string) ([]LessonProgress, error)
}

// Catalog yields the ordered lesson list for a course.
type Catalog interface {
	Lessons(ctx context.Context, courseID string) ([]Lesson, error)
}

// Client talks to the LMS progress and course endpoints.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Token   string
}

var (
	_ ProgressAPI = (*Client)(nil)
	_ Catalog     = (*Client)(nil)
)

func NewClient(baseURL, token string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
	}
}

func (c *Client) UpdateProgress(ctx context.Context, u ProgressUpdate) error {
	if u.LessonID == "" {
		return errors.New("lessonID required")
	}
	return c.do(ctx, http.MethodPost, "/lessons/"+u.LessonID+"/progress", u, nil)
}

func (c *Client) CourseProgress(ctx context.Context, courseID string) ([]LessonProgress, error) {
	if courseID == "" {
		return nil, errors.New("courseID required")
	}
	var out []LessonProgress
	if err := c.do(ctx, http.MethodGet, "/courses/"+courseID+"/progress", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Lessons(ctx context.Context, courseID string) ([]Lesson, error) {
	if courseID == "" {
		return nil, errors.New("courseID required")
	}
	var out []Lesson
	if err := c.do(ctx, http.MethodGet, "/courses/"+courseID+"/lessons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.BaseURL == "" {
		return errors.New("missing BaseURL")
	}
	var rd *bytes.Reader
	if in != nil {
		buf, _ := json.Marshal(in)
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: backend returned %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
