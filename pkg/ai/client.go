// Package ai calls the story-generation service over HTTP. Callers are
// expected to degrade gracefully when a call fails; the client only reports
// errors, it never substitutes content.
package ai

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Generator is the outbound surface the conversation flow depends on. It is
// an interface so tests can swap in a canned implementation.
type Generator interface {
	CheckRelevance(ctx context.Context, question, answer string) (bool, error)
	GenerateSubQuestion(ctx context.Context, question, answer string) (string, error)
	GenerateStory(ctx context.Context, pairs []QAPair) (string, error)
}

// QAPair is one answered question sent to the story generator.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Generator = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type relevanceRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type relevanceResponse struct {
	Relevant bool `json:"relevant"`
}

func (c *Client) CheckRelevance(ctx context.Context, question, answer string) (bool, error) {
	var resp relevanceResponse
	err := c.post(ctx, "/CQ_relevancy_check", relevanceRequest{Question: question, Answer: answer}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Relevant, nil
}

type subQuestionRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type subQuestionResponse struct {
	Content []string `json:"content"`
}

func (c *Client) GenerateSubQuestion(ctx context.Context, question, answer string) (string, error) {
	var resp subQuestionResponse
	err := c.post(ctx, "/generate_sub_question", subQuestionRequest{Question: question, Answer: answer}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("ai: sub-question response had no content")
	}
	return resp.Content[0], nil
}

type storyRequest struct {
	Conversations []QAPair `json:"conversations"`
}

type storyResponse struct {
	RefinedStory string `json:"refined_story"`
}

func (c *Client) GenerateStory(ctx context.Context, pairs []QAPair) (string, error) {
	var resp storyResponse
	err := c.post(ctx, "/story_generator", storyRequest{Conversations: pairs}, &resp)
	if err != nil {
		return "", err
	}
	if resp.RefinedStory == "" {
		return "", errors.New("ai: story response was empty")
	}
	return resp.RefinedStory, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.WithStack(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return errors.Errorf("ai: %s returned %d: %s", path, resp.StatusCode, msg)
	}
	return errors.WithStack(json.NewDecoder(resp.Body).Decode(out))
}
