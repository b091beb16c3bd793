package sitecheck

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Get performs a GET request bound to ctx.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "dingerzone-sitecheck/1")
	return c.client.Do(req)
}

type job struct {
	url    string
	source Source
}

// fetchAll fetches every job with a pool of workers. Seed pages that return
// HTML have their links extracted.
func fetchAll(ctx context.Context, client *HTTPClient, workers int, jobs []job, onResult func(Result)) []Result {
	if workers < 1 {
		workers = 1
	}

	jobChan := make(chan job, workers*WorkerChannelMultiplier)
	results := make([]Result, 0, len(jobs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				res := fetchOne(ctx, client, j)
				if onResult != nil {
					onResult(res)
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- j:
			}
		}
	}()

	wg.Wait()
	return results
}

func fetchOne(ctx context.Context, client *HTTPClient, j job) Result {
	res := Result{URL: j.url, Source: j.source}
	start := time.Now()

	resp, err := client.Get(ctx, j.url)
	if err != nil {
		res.Duration = time.Since(start)
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.ContentType = resp.Header.Get("Content-Type")

	mediaType, _, _ := mime.ParseMediaType(res.ContentType)
	if j.source == SourceSeed && mediaType == "text/html" {
		page, err := url.Parse(j.url)
		if err == nil {
			links, err := extractLinks(page, io.LimitReader(resp.Body, maxPageBytes))
			if err != nil {
				res.Err = fmt.Errorf("parse html: %w", err)
			}
			res.links = links
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	res.Duration = time.Since(start)
	return res
}
