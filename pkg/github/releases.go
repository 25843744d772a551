// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package github wraps the go-github releases endpoints, flattening the results in to the
// plain structs that the rest of bucketctl works with.
//
// https://docs.github.com/en/rest/releases/releases
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
)

const DefaultBaseURL = "https://api.github.com"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	// Token is sent as a bearer token if set; without it the API rate-limits to 60 requests
	// per hour.
	Token string
}

func (c Client) apiClient() (*gogithub.Client, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", c.BaseURL, err)
	}

	// WithAuthToken swaps the Transport of the *http.Client it is given, so hand it a copy.
	httpClient := &http.Client{}
	if c.HTTPClient != nil {
		copied := *c.HTTPClient
		httpClient = &copied
	}
	client := gogithub.NewClient(httpClient)
	if c.Token != "" {
		client = client.WithAuthToken(c.Token)
	}
	client.BaseURL = u
	client.UserAgent = c.UserAgent
	if client.UserAgent == "" {
		client.UserAgent = "mufi-bucket/bucketctl"
	}
	return client, nil
}

type HTTPError struct {
	Status     string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %s", e.Status)
}

type Asset struct {
	Name               string
	BrowserDownloadURL string
	Size               int64
	ContentType        string
}

type Release struct {
	TagName     string
	Name        string
	Draft       bool
	Prerelease  bool
	PublishedAt time.Time
	HTMLURL     string
	Assets      []Asset
}

// Version returns the tag name with every leading "v" removed.
func (r Release) Version() string {
	return strings.TrimLeft(r.TagName, "v")
}

func convertRelease(in *gogithub.RepositoryRelease) *Release {
	out := &Release{
		TagName:     in.GetTagName(),
		Name:        in.GetName(),
		Draft:       in.GetDraft(),
		Prerelease:  in.GetPrerelease(),
		PublishedAt: in.GetPublishedAt().Time,
		HTMLURL:     in.GetHTMLURL(),
	}
	for _, asset := range in.Assets {
		out.Assets = append(out.Assets, Asset{
			Name:               asset.GetName(),
			BrowserDownloadURL: asset.GetBrowserDownloadURL(),
			Size:               int64(asset.GetSize()),
			ContentType:        asset.GetContentType(),
		})
	}
	return out
}

// convertError turns go-github's error responses in to an *HTTPError, so that callers don't
// need to know which client library is underneath.
func convertError(err error) error {
	var errResp *gogithub.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		ret := &HTTPError{
			Status:     errResp.Response.Status,
			StatusCode: errResp.Response.StatusCode,
			Message:    errResp.Message,
		}
		if req := errResp.Response.Request; req != nil {
			return fmt.Errorf("GET %q => %w", req.URL.String(), ret)
		}
		return ret
	}
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &HTTPError{
			Status:     rateErr.Response.Status,
			StatusCode: rateErr.Response.StatusCode,
			Message:    rateErr.Message,
		}
	}
	return err
}

// checkRepo verifies that repo looks like "OWNER/NAME", so that it can't smuggle extra path
// segments or a query in to the request URL.
func checkRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: must be OWNER/NAME", repo)
	}
	for _, part := range parts {
		for _, char := range part {
			if !(('a' <= char && char <= 'z') ||
				('A' <= char && char <= 'Z') ||
				('0' <= char && char <= '9') ||
				char == '.' ||
				char == '-' ||
				char == '_') {
				return "", "", fmt.Errorf("illegal character in repository %q: %s",
					repo, strconv.QuoteRuneToASCII(char))
			}
		}
	}
	return parts[0], parts[1], nil
}

// LatestRelease returns the most recent non-draft, non-prerelease release of repo.
func (c Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	owner, name, err := checkRepo(repo)
	if err != nil {
		return nil, err
	}
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	release, _, err := client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		return nil, convertError(err)
	}
	return convertRelease(release), nil
}

func (c Client) ReleaseByTag(ctx context.Context, repo, tag string) (*Release, error) {
	owner, name, err := checkRepo(repo)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, fmt.Errorf("empty release tag")
	}
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	release, _, err := client.Repositories.GetReleaseByTag(ctx, owner, name, url.PathEscape(tag))
	if err != nil {
		return nil, convertError(err)
	}
	return convertRelease(release), nil
}
