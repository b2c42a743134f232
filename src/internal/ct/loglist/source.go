// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
)

// DefaultBaseURL is the directory of Google's v3 log list.
const DefaultBaseURL = "https://www.gstatic.com/ct/log_list/v3/"

// File names under the base URL and inside the zip archive.
const (
	JSONFile = "log_list.json"
	SigFile  = "log_list.sig"
	ZipFile  = "log_list.zip"
)

// Download caps. A response larger than its cap fails with [TooBig]
// regardless of the Content-Length it announced.
const (
	MaxJSONSize int64 = 1 << 20
	MaxSigSize  int64 = 512
	MaxZipSize  int64 = 2 << 20
)

// HTTPSource holds what network sources share.
type HTTPSource struct {
	// BaseURL is the directory holding the list files. Defaults to [DefaultBaseURL].
	BaseURL   string
	Client    *http.Client
	UserAgent string
	Metrics   *metrics.Collector
}

func (h *HTTPSource) resolve(name string) (string, error) {
	base := h.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return u.JoinPath(name).String(), nil
}

func (h *HTTPSource) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *HTTPSource) collector() *metrics.Collector {
	if h.Metrics != nil {
		return h.Metrics
	}
	return metrics.Default
}

// download fetches name and returns at most limit bytes of body.
func (h *HTTPSource) download(ctx context.Context, name string, limit int64) ([]byte, error) {
	target, err := h.resolve(name)
	if err != nil {
		return nil, NetworkFailure{URL: name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, NetworkFailure{URL: target, Err: err}
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, NetworkFailure{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NetworkFailure{URL: target, Err: fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)}
	}

	data, err := gc.ReadAll(resp.Body, limit)
	if err != nil {
		if errors.Is(err, gc.ErrTooLarge) {
			return nil, TooBig{URL: target, Limit: limit}
		}
		return nil, NetworkFailure{URL: target, Err: err}
	}
	return data, nil
}

// NetworkSource downloads log_list.json and log_list.sig. It is read-only.
type NetworkSource struct {
	HTTPSource
}

// Get downloads both files concurrently.
func (n *NetworkSource) Get(ctx context.Context) (raw RawResult, err error) {
	defer func(start time.Time) { n.collector().ObserveFetch("network", start, err) }(time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw.JSON, err = n.download(gctx, JSONFile, MaxJSONSize)
		return err
	})
	g.Go(func() error {
		var err error
		raw.Signature, err = n.download(gctx, SigFile, MaxSigSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return RawResult{}, err
	}
	return raw, nil
}

// Set does nothing.
func (*NetworkSource) Set(context.Context, RawResult) error { return nil }

// ZipSource downloads log_list.zip and extracts both files. It is read-only.
// A download failure is a [NetworkFailure]; an archive that cannot be
// unpacked is a [JSONFormat], since fetching it again yields the same bytes.
type ZipSource struct {
	HTTPSource
}

// Get downloads and unpacks the archive.
func (z *ZipSource) Get(ctx context.Context) (raw RawResult, err error) {
	defer func(start time.Time) { z.collector().ObserveFetch("zip", start, err) }(time.Now())

	data, err := z.download(ctx, ZipFile, MaxZipSize)
	if err != nil {
		return RawResult{}, err
	}
	return unzip(data)
}

// Set does nothing.
func (*ZipSource) Set(context.Context, RawResult) error { return nil }

func unzip(data []byte) (RawResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return RawResult{}, JSONFormat{Err: fmt.Errorf("reading %s: %w", ZipFile, err)}
	}

	var raw RawResult
	for _, f := range zr.File {
		var limit int64
		var dst *[]byte
		switch f.Name {
		case JSONFile:
			limit, dst = MaxJSONSize, &raw.JSON
		case SigFile:
			limit, dst = MaxSigSize, &raw.Signature
		default:
			continue
		}

		b, err := readZipEntry(f, limit)
		if err != nil {
			return RawResult{}, err
		}
		*dst = b
	}

	if raw.JSON == nil || raw.Signature == nil {
		return RawResult{}, JSONFormat{Err: fmt.Errorf("%s lacks %s or %s", ZipFile, JSONFile, SigFile)}
	}
	return raw, nil
}

func readZipEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, JSONFormat{Err: fmt.Errorf("%s/%s: %w", ZipFile, f.Name, err)}
	}
	defer rc.Close()

	b, err := gc.ReadAll(rc, limit)
	if err != nil {
		if errors.Is(err, gc.ErrTooLarge) {
			return nil, TooBig{URL: ZipFile + "/" + f.Name, Limit: limit}
		}
		return nil, JSONFormat{Err: fmt.Errorf("%s/%s: %w", ZipFile, f.Name, err)}
	}
	return b, nil
}
