package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memberhub/internal/models"
)

type Action string

const (
	ActionCreateMember       Action = "CREATE_MEMBER"
	ActionUpdateMember       Action = "UPDATE_MEMBER"
	ActionDeleteMember       Action = "DELETE_MEMBER"
	ActionFetchAllMembers    Action = "FETCH_ALL_MEMBERS"
	ActionFetchMemberDetails Action = "FETCH_MEMBER_DETAILS"
	ActionBulkCreateMembers  Action = "BULK_CREATE_MEMBERS"
	ActionPing               Action = "PING"
)

var ErrNotConfigured = errors.New("webhook URL not configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook error: %s", e.Status)
	}
	return fmt.Sprintf("webhook error: %s - %s", e.Status, e.Body)
}

// Endpoints resolves the current webhook and image host URLs.
type Endpoints interface {
	WebhookURL() string
	ImageURL() string
}

// --- Wire Structures ---

type Request struct {
	Action    Action      `json:"action"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type Response struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message,omitempty"`
	MemberID models.ID              `json:"member_id,omitempty"`
	Members  []models.Member        `json:"members,omitempty"`
	Member   *models.DetailedMember `json:"member,omitempty"`
	Created  []models.ID            `json:"member_ids,omitempty"`
}

type Client struct {
	endpoints Endpoints
	http      *http.Client
	now       func() time.Time
}

func NewClient(endpoints Endpoints, timeout time.Duration) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
	}
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, method, target string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}

// --- Remote Calls ---

// Call sends one (action, data) pair to the webhook. It makes a single
// attempt; there is no retry and no idempotency key.
func (c *Client) Call(ctx context.Context, action Action, data interface{}) (*Response, error) {
	endpoint := c.endpoints.WebhookURL()
	if endpoint == "" {
		return nil, ErrNotConfigured
	}

	req := Request{
		Action:    action,
		Data:      data,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	}
	raw, err := c.sendRequest(ctx, http.MethodPost, endpoint, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	var result Response
	if len(bytes.TrimSpace(raw)) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", action, err)
	}
	return &result, nil
}

// Ping checks connectivity: any 2xx answer counts as success.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, ActionPing, nil)
	return err
}

// --- Image Methods ---

// ImageURL builds the image host URL for a stored photo reference.
// Inline data URLs and absolute URLs are returned unchanged.
func (c *Client) ImageURL(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, true
	}
	base := c.endpoints.ImageURL()
	if base == "" {
		return "", false
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "file=" + url.QueryEscape(strings.TrimPrefix(ref, "/uploads/")), true
}

// FetchImage loads a photo either from an inline data URL or the image host.
func (c *Client) FetchImage(ctx context.Context, ref string) ([]byte, string, error) {
	target, ok := c.ImageURL(ref)
	if !ok {
		return nil, "", fmt.Errorf("no image source for %q", ref)
	}
	if strings.HasPrefix(target, "data:") {
		return decodeDataURL(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func decodeDataURL(ref string) ([]byte, string, error) {
	meta, payload, found := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !found {
		return nil, "", errors.New("malformed data URL")
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if !strings.HasSuffix(meta, ";base64") {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", err
		}
		return []byte(decoded), contentType, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	return data, contentType, nil
}
