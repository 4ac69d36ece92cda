package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memberhub/internal/mapper"
)

const maxDownload = 20 << 20

var ErrTooLarge = errors.New("import file is too large")

// Fetcher downloads import files from a URL.
type Fetcher struct {
	http     *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{http: &http.Client{Timeout: timeout}, maxBytes: maxDownload}
}

// SheetsExportURL rewrites a shared Google Sheets link to its CSV export
// link, keeping the sheet gid (0 when absent).
func SheetsExportURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host != "docs.google.com" {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "spreadsheets" || parts[1] != "d" || parts[2] == "" {
		return "", false
	}

	gid := u.Query().Get("gid")
	if frag, err := url.ParseQuery(u.Fragment); err == nil && frag.Get("gid") != "" {
		gid = frag.Get("gid")
	}
	if gid == "" {
		gid = "0"
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", parts[2], url.QueryEscape(gid)), true
}

// Fetch downloads and decodes the file at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]mapper.Row, error) {
	target := strings.TrimSpace(rawURL)
	forceCSV := false
	if export, ok := SheetsExportURL(target); ok {
		target, forceCSV = export, true
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid import url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download %s: unexpected status %s", u.Host, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u.Host, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, u.Host, f.maxBytes)
	}

	format := FormatCSV
	if !forceCSV {
		if format, err = DetectFormat(u.Path, resp.Header.Get("Content-Type")); err != nil {
			return nil, err
		}
	}
	return DecodeBytes(data, format)
}
