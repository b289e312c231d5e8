package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const DefaultBadgeBaseURL = "https://img.shields.io"

var ErrUpstream = errors.New("badge service is unreachable")

type Badge struct {
	ContentType string
	Data        []byte
}

// BadgeURL builds the shields.io URL for a label/value badge. rawQuery is
// appended verbatim so callers keep full control over styling parameters.
func BadgeURL(baseURL string, label string, value string, rawQuery string) string {
	badgeURL := fmt.Sprintf("%v/badge/%v-%v-blue", baseURL, url.PathEscape(label), url.PathEscape(value))
	if rawQuery != "" {
		badgeURL = badgeURL + "?" + rawQuery
	}
	return badgeURL
}

// ShieldsClient fetches rendered badges from shields.io, or from BaseURL when
// overridden.
type ShieldsClient struct {
	BaseURL string
}

func (s *ShieldsClient) FetchBadge(ctx context.Context, label string, value string, rawQuery string) (*Badge, error) {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = DefaultBadgeBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BadgeURL(baseURL, label, value, rawQuery), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: badge service returned status %v", ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &Badge{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}
