package quiz

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

// AttemptAPI is the assessment backend as seen by the session engine.
// NextQuestion returns (nil, nil) when the attempt is exhausted.
type AttemptAPI interface {
	QuizInfo(ctx context.Context, quizID string) (Info, error)
	AttemptHistory(ctx context.Context, quizID string) ([]AttemptSummary, error)
	StartAttempt(ctx context.Context, quizID string) (string, error)
	NextQuestion(ctx context.Context, attemptID string) (*Question, error)
	SubmitAnswer(ctx context.Context, attemptID, questionID string, answerIDs []string, elapsedSec int) (bool, error)
	CompleteAttempt(ctx context.Context, attemptID string) (Result, error)
}

// Client is a stateless HTTP façade over the assessment API.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Token   string // opaque bearer token forwarded as-is
}

var _ AttemptAPI = (*Client)(nil)

func NewClient(baseURL, token string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
	}
}

func (c *Client) QuizInfo(ctx context.Context, quizID string) (Info, error) {
	if quizID == "" {
		return Info{}, errors.New("quizID required")
	}
	var out Info
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID, nil, &out); err != nil {
		return Info{}, err
	}
	return out, nil
}

func (c *Client) AttemptHistory(ctx context.Context, quizID string) ([]AttemptSummary, error) {
	if quizID == "" {
		return nil, errors.New("quizID required")
	}
	var out []AttemptSummary
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID+"/attempts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StartAttempt(ctx context.Context, quizID string) (string, error) {
	if quizID == "" {
		return "", errors.New("quizID required")
	}
	var out struct {
		AttemptID string `json:"attempt_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/quizzes/"+quizID+"/attempts", struct{}{}, &out); err != nil {
		return "", err
	}
	if out.AttemptID == "" {
		return "", errors.New("empty attempt_id in start response")
	}
	return out.AttemptID, nil
}

// NextQuestion fetches the next undelivered question. A 204 from the
// backend means the attempt is exhausted and is mapped to (nil, nil).
func (c *Client) NextQuestion(ctx context.Context, attemptID string) (*Question, error) {
	if attemptID == "" {
		return nil, errors.New("attemptID required")
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/attempts/"+attemptID+"/next-question", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, httpErr("next question", resp)
	}
	var q Question
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, attemptID, questionID string, answerIDs []string, elapsedSec int) (bool, error) {
	if attemptID == "" || questionID == "" {
		return false, errors.New("attemptID and questionID required")
	}
	if answerIDs == nil {
		answerIDs = []string{}
	}
	body := struct {
		QuestionID string   `json:"question_id"`
		AnswerIDs  []string `json:"answer_ids"`
		ElapsedSec int      `json:"elapsed_sec"`
	}{questionID, answerIDs, elapsedSec}
	var out struct {
		HasNextQuestion bool `json:"has_next_question"`
	}
	if err := c.do(ctx, http.MethodPost, "/attempts/"+attemptID+"/answers", body, &out); err != nil {
		return false, err
	}
	return out.HasNextQuestion, nil
}

func (c *Client) CompleteAttempt(ctx context.Context, attemptID string) (Result, error) {
	if attemptID == "" {
		return Result{}, errors.New("attemptID required")
	}
	var out Result
	if err := c.do(ctx, http.MethodPost, "/attempts/"+attemptID+"/complete", struct{}{}, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		buf, _ := json.Marshal(in)
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return httpErr(method+" "+path, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	if c.BaseURL == "" {
		return nil, errors.New("missing BaseURL")
	}
	var r *http.Request
	var err error
	if body != nil {
		r, err = http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	} else {
		r, err = http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		r.Header.Set("Authorization", "Bearer "+c.Token)
	}
	r.Header.Set("Accept", "application/json")
	return r, nil
}

// Uniform HTTP error helper.
func httpErr(op string, resp *http.Response) error {
	return fmt.Errorf("%s: backend returned %s", op, resp.Status)
}
