// Package publish commits the catalog file to a GitHub repository through
// the contents API, so a static site can pick it up.
package publish

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

	"golang.org/x/oauth2"
)

const defaultAPIURL = "https://api.github.com"

// Options configures the target repository file.
type Options struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Path    string
	Message string
	APIURL  string
}

// Error is returned when the API answers with an unexpected status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish: github returned %d: %s", e.Status, e.Message)
}

// Client writes one file through the GitHub contents API.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// New creates a Client. When httpClient is nil, an oauth2 client carrying
// opts.Token is used.
func New(opts Options, httpClient *http.Client) (*Client, error) {
	if opts.Owner == "" || opts.Repo == "" || opts.Path == "" {
		return nil, errors.New("publish: owner, repo and path are required")
	}
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	if httpClient == nil {
		if opts.Token == "" {
			return nil, errors.New("publish: token is required")
		}
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	return &Client{opts: opts, httpClient: httpClient}, nil
}

type contentResponse struct {
	SHA string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) contentsURL() string {
	segs := strings.Split(strings.Trim(c.opts.Path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.opts.APIURL, url.PathEscape(c.opts.Owner), url.PathEscape(c.opts.Repo), strings.Join(segs, "/"))
}

// Publish creates or replaces the configured file with content.
func (c *Client) Publish(ctx context.Context, content []byte) error {
	sha, err := c.currentSHA(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(putRequest{
		Message: c.opts.Message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.opts.Branch,
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("publish: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("publish: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish: put contents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return readError(resp)
	}
	return nil
}

// currentSHA returns the blob sha of the existing file, or "" when it
// does not exist yet.
func (c *Client) currentSHA(ctx context.Context) (string, error) {
	u := c.contentsURL()
	if c.opts.Branch != "" {
		u += "?ref=" + url.QueryEscape(c.opts.Branch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("publish: create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish: get contents: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var cr contentResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", fmt.Errorf("publish: decode contents: %w", err)
		}
		return cr.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", readError(resp)
	}
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var ae apiError
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &ae) == nil && ae.Message != "" {
		msg = ae.Message
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}
