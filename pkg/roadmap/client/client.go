// Package client talks to the roadmap collaborator REST API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/houzhh15/roadmap-console/pkg/metrics"
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
)

// DefaultTimeout applies when New is given a zero timeout.
const DefaultTimeout = 30 * time.Second

// Client 封装协作方 REST API 的 HTTP 客户端
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client for baseURL (e.g. "http://localhost:8081/api").
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// envelope is the optional {success, data, error} wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do 执行 HTTP 请求并解码响应；out 为 nil 时忽略响应体
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return roadmap.FetchFailed(op, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(op, 0, time.Since(start))
		return roadmap.FetchFailed(op, 0, fmt.Errorf("request %s %s: %w", method, c.BaseURL+path, err))
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return roadmap.FetchFailed(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		e := roadmap.FetchFailed(op, resp.StatusCode, nil)
		e.Message = "authentication failed (401): check the API token"
		return e
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return roadmap.FetchFailed(op, resp.StatusCode, errorDetail(data))
	}

	payload, err := unwrap(data)
	if err != nil {
		return roadmap.FetchFailed(op, resp.StatusCode, err)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return roadmap.FetchFailed(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// unwrap returns the data of an envelope, or the body itself when it is not
// an envelope.
func unwrap(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	var env envelope
	if json.Unmarshal(trimmed, &env) != nil || env.Success == nil {
		return trimmed, nil
	}
	if !*env.Success {
		msg := "request rejected"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, errors.New(msg)
	}
	return env.Data, nil
}

// maxErrorDetail caps, in bytes, the response text carried by an error.
const maxErrorDetail = 200

func errorDetail(data []byte) error {
	if _, err := unwrap(data); err != nil {
		return err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	if len(text) > maxErrorDetail {
		cut := maxErrorDetail
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return errors.New(text)
}

func seg(s string) string { return url.PathEscape(s) }

func levelsPath(roadmapID string) string {
	return "/roadmaps/" + seg(roadmapID) + "/levels"
}

func milestonesPath(roadmapID, levelID string) string {
	return levelsPath(roadmapID) + "/" + seg(levelID) + "/milestones"
}

func challengesPath(roadmapID, levelID, milestoneID string) string {
	return milestonesPath(roadmapID, levelID) + "/" + seg(milestoneID) + "/challenges"
}

// ListRoadmaps GET /roadmaps
func (c *Client) ListRoadmaps(ctx context.Context) ([]roadmap.Roadmap, error) {
	var out []roadmap.Roadmap
	if err := c.do(ctx, "list_roadmaps", http.MethodGet, "/roadmaps", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRoadmap GET /roadmaps/{id}
func (c *Client) GetRoadmap(ctx context.Context, id string) (roadmap.Roadmap, error) {
	var out roadmap.Roadmap
	err := c.do(ctx, "get_roadmap", http.MethodGet, "/roadmaps/"+seg(id), nil, &out)
	return out, err
}

// SaveRoadmap POST /roadmaps creates the roadmap when its id is empty and
// replaces it otherwise.
func (c *Client) SaveRoadmap(ctx context.Context, r roadmap.Roadmap) (roadmap.Roadmap, error) {
	var out roadmap.Roadmap
	err := c.do(ctx, "save_roadmap", http.MethodPost, "/roadmaps", r, &out)
	return out, err
}

// RoadmapPatch is the body of PATCH /roadmaps/{id}.
type RoadmapPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Icon        *string             `json:"icon,omitempty"`
	Visibility  *roadmap.Visibility `json:"visibility,omitempty"`
}

// PatchRoadmap PATCH /roadmaps/{id}
func (c *Client) PatchRoadmap(ctx context.Context, id string, p RoadmapPatch) (roadmap.Roadmap, error) {
	var out roadmap.Roadmap
	err := c.do(ctx, "patch_roadmap", http.MethodPatch, "/roadmaps/"+seg(id), p, &out)
	return out, err
}

// DeleteRoadmap DELETE /roadmaps/{id}
func (c *Client) DeleteRoadmap(ctx context.Context, id string) error {
	return c.do(ctx, "delete_roadmap", http.MethodDelete, "/roadmaps/"+seg(id), nil, nil)
}

// SaveLevel POST /roadmaps/{id}/levels; an empty level id creates.
func (c *Client) SaveLevel(ctx context.Context, roadmapID string, l roadmap.Level) (roadmap.Level, error) {
	var out roadmap.Level
	err := c.do(ctx, "save_level", http.MethodPost, levelsPath(roadmapID), l, &out)
	return out, err
}

// DeleteLevel DELETE /roadmaps/{id}/levels/{lid}
func (c *Client) DeleteLevel(ctx context.Context, roadmapID, levelID string) error {
	return c.do(ctx, "delete_level", http.MethodDelete, levelsPath(roadmapID)+"/"+seg(levelID), nil, nil)
}

// SaveMilestone POST …/levels/{lid}/milestones; an empty milestone id creates.
func (c *Client) SaveMilestone(ctx context.Context, roadmapID, levelID string, m roadmap.Milestone) (roadmap.Milestone, error) {
	var out roadmap.Milestone
	err := c.do(ctx, "save_milestone", http.MethodPost, milestonesPath(roadmapID, levelID), m, &out)
	return out, err
}

// DeleteMilestone DELETE …/levels/{lid}/milestones/{mid}
func (c *Client) DeleteMilestone(ctx context.Context, roadmapID, levelID, milestoneID string) error {
	return c.do(ctx, "delete_milestone", http.MethodDelete, milestonesPath(roadmapID, levelID)+"/"+seg(milestoneID), nil, nil)
}

// SaveChallenge POST …/milestones/{mid}/challenges; an empty challenge id creates.
func (c *Client) SaveChallenge(ctx context.Context, roadmapID, levelID, milestoneID string, ch roadmap.Challenge) (roadmap.Challenge, error) {
	var out roadmap.Challenge
	err := c.do(ctx, "save_challenge", http.MethodPost, challengesPath(roadmapID, levelID, milestoneID), ch, &out)
	return out, err
}

// DeleteChallenge DELETE …/milestones/{mid}/challenges/{cid}
func (c *Client) DeleteChallenge(ctx context.Context, roadmapID, levelID, milestoneID, challengeID string) error {
	return c.do(ctx, "delete_challenge", http.MethodDelete, challengesPath(roadmapID, levelID, milestoneID)+"/"+seg(challengeID), nil, nil)
}

// ReorderRequest is the body of every …/reorder endpoint.
type ReorderRequest struct {
	Order []ordering.OrderEntry `json:"order"`
}

// Reorder persists the order of the children of parent. The kind of parent
// (roadmap, level or milestone) selects the endpoint.
func (c *Client) Reorder(ctx context.Context, parent roadmap.Path, entries []ordering.OrderEntry) error {
	var path string
	switch parent.Kind() {
	case roadmap.KindRoadmap:
		path = levelsPath(parent.RoadmapID)
	case roadmap.KindLevel:
		path = milestonesPath(parent.RoadmapID, parent.LevelID)
	case roadmap.KindMilestone:
		path = challengesPath(parent.RoadmapID, parent.LevelID, parent.MilestoneID)
	default:
		return roadmap.ValidationError("reorder", "challenges have no children to reorder")
	}
	return c.do(ctx, "reorder", http.MethodPost, path+"/reorder", ReorderRequest{Order: entries}, nil)
}

// Stats GET /roadmaps/stats
func (c *Client) Stats(ctx context.Context) (roadmap.Stats, error) {
	var out roadmap.Stats
	err := c.do(ctx, "stats", http.MethodGet, "/roadmaps/stats", nil, &out)
	return out, err
}
