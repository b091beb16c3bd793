package sitecheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/okian/dingerzone/pkg/logger"
)

// Run checks the deployment at cfg.BaseURL: the known pages and the viewer
// page of each share id, then every same-origin link found on them. The
// report table is written to out. A run with failing pages returns the
// report together with ErrPagesFailed.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Report, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	report := &Report{StartTime: time.Now()}
	client := newHTTPClient(cfg.Timeout)

	log.Info(ctx, "starting site check",
		logger.String("baseURL", base.String()),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Int("shares", len(cfg.ShareIDs)))

	if err := checkServiceHealth(ctx, client, base); err != nil {
		return nil, err
	}

	onResult := func(r Result) {
		if !cfg.Verbose {
			return
		}
		log.Debug(ctx, "fetched",
			logger.String("url", r.URL),
			logger.Int("status", r.Status),
			logger.Float64("ms", float64(r.Duration.Microseconds())/1000))
	}

	seeds := seedJobs(base, cfg.ShareIDs)
	seedResults := fetchAll(ctx, client, cfg.Workers, seeds, onResult)
	report.Results = append(report.Results, seedResults...)

	linkJobs := linkedJobs(seeds, seedResults)
	log.Info(ctx, "following links", logger.Int("links", len(linkJobs)))
	report.Results = append(report.Results, fetchAll(ctx, client, cfg.Workers, linkJobs, onResult)...)

	sort.SliceStable(report.Results, func(i, j int) bool {
		if report.Results[i].Source != report.Results[j].Source {
			return report.Results[i].Source == SourceSeed
		}
		return report.Results[i].URL < report.Results[j].URL
	})

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if out != nil {
		if _, err := io.WriteString(out, renderReport(report)+"\n"); err != nil {
			return report, fmt.Errorf("write report: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	failed := report.Failed()
	if len(failed) > 0 {
		log.Warn(ctx, "site check failed", logger.Int("failed", len(failed)), logger.Int("checked", len(report.Results)))
		return report, fmt.Errorf("%w: %d of %d", ErrPagesFailed, len(failed), len(report.Results))
	}

	log.Info(ctx, "site check passed",
		logger.Int("checked", len(report.Results)),
		logger.String("duration", report.Duration.String()))
	return report, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return u, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, base *url.URL) error {
	resp, err := client.Get(ctx, base.JoinPath("healthz").String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func seedJobs(base *url.URL, shareIDs []string) []job {
	jobs := make([]job, 0, len(SeedPaths)+len(shareIDs))
	for _, p := range SeedPaths {
		jobs = append(jobs, job{url: base.JoinPath(p).String(), source: SourceSeed})
	}
	for _, id := range shareIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		jobs = append(jobs, job{url: base.JoinPath("shared", id).String(), source: SourceSeed})
	}
	return jobs
}

// linkedJobs returns one job per link found on the seed pages that is not
// itself a seed.
func linkedJobs(seeds []job, results []Result) []job {
	seen := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		seen[s.url] = struct{}{}
	}

	var jobs []job
	for _, r := range results {
		for _, l := range r.links {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			jobs = append(jobs, job{url: l, source: SourceLink})
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].url < jobs[j].url })
	return jobs
}
