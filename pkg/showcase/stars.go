package showcase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultGitHubAPI = "https://api.github.com"
	userAgent        = "hardcover-docs-star-updater"
)

var (
	ErrRepoNotFound = errors.New("repository not found")
	ErrRateLimited  = errors.New("rate limit exceeded, set GITHUB_TOKEN for higher limits")
)

// GitHubClient reads repository metadata from the GitHub REST API.
type GitHubClient struct {
	BaseURL    string
	Token      string // optional
	HTTPClient *http.Client
}

// NewGitHubClient creates a client for the public API. An empty token
// makes unauthenticated requests.
func NewGitHubClient(token string) *GitHubClient {
	return &GitHubClient{
		BaseURL:    DefaultGitHubAPI,
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

// Stars returns the stargazer count of owner/repo.
func (c *GitHubClient) Stars(ctx context.Context, owner, repo string) (int, error) {
	u := strings.TrimSuffix(c.BaseURL, "/") + "/repos/" + owner + "/" + repo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, fmt.Errorf("%s/%s: %w", owner, repo, ErrRepoNotFound)
	case http.StatusForbidden:
		return 0, ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%v; body: %q", resp.Status, body)
	}

	var out struct {
		StargazersCount int `json:"stargazers_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode repository: %w", err)
	}
	return out.StargazersCount, nil
}

var (
	githubRepoPattern  = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)
	githubQuotedURL    = regexp.MustCompile(`"(https://github\.com/[^"]+)"`)
	githubStarsPattern = regexp.MustCompile(`githubStars:\s*(\d+)`)
	statsKeyPattern    = regexp.MustCompile(`stats:`)
)

// GitHubRepo extracts owner and repository from a GitHub URL. A trailing
// ".git" is dropped.
func GitHubRepo(rawURL string) (owner, repo string, ok bool) {
	m := githubRepoPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

// FindGitHubURL returns the first quoted github.com URL in a project file.
func FindGitHubURL(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "github.com/") {
			continue
		}
		if m := githubQuotedURL.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// CurrentStars returns the githubStars value recorded in content.
func CurrentStars(content string) (int, bool) {
	m := githubStarsPattern.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// UpdateStars rewrites the githubStars value in a project file, adding it
// under an existing stats key or appending a stats section. The rest of
// the file is left byte for byte.
func UpdateStars(content string, stars int) string {
	value := "githubStars: " + strconv.Itoa(stars)
	if strings.Contains(content, "stats:") {
		if githubStarsPattern.MatchString(content) {
			loc := githubStarsPattern.FindStringIndex(content)
			return content[:loc[0]] + value + content[loc[1]:]
		}
		loc := statsKeyPattern.FindStringIndex(content)
		return content[:loc[1]] + "\n  " + value + content[loc[1]:]
	}
	return strings.TrimRight(content, " \t\r\n") + "\n\nstats:\n  " + value + "\n"
}

// StarStatus is the outcome for one file.
type StarStatus string

const (
	StarsUpdated   StarStatus = "updated"
	StarsUnchanged StarStatus = "unchanged"
	StarsSkipped   StarStatus = "skipped"
	StarsError     StarStatus = "error"
)

// StarResult reports what happened to one project file.
type StarResult struct {
	File     string
	Status   StarStatus
	Reason   string // skipped and error results
	OldStars *int
	NewStars int
}

// StarSummary counts results by status.
type StarSummary struct {
	Updated   int
	Unchanged int
	Skipped   int
	Errors    int
}

func Summarize(results []StarResult) StarSummary {
	var s StarSummary
	for _, r := range results {
		switch r.Status {
		case StarsUpdated:
			s.Updated++
		case StarsUnchanged:
			s.Unchanged++
		case StarsSkipped:
			s.Skipped++
		case StarsError:
			s.Errors++
		}
	}
	return s
}

// StarUpdater refreshes the star counts of every project file in Dir.
// Files are processed one at a time with Delay between requests.
type StarUpdater struct {
	Dir    string
	GitHub *GitHubClient
	Delay  time.Duration
	Logger *slog.Logger
}

func (u *StarUpdater) logger() *slog.Logger {
	if u.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.Logger
}

// Run processes every file. The error is non-nil only when the directory
// cannot be listed or ctx is cancelled; per-file failures are results.
func (u *StarUpdater) Run(ctx context.Context) ([]StarResult, error) {
	files, err := Files(u.Dir)
	if err != nil {
		return nil, err
	}

	results := make([]StarResult, 0, len(files))
	for i, f := range files {
		if i > 0 && u.Delay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(u.Delay):
			}
		}
		results = append(results, u.processFile(ctx, f))
	}
	return results, nil
}

func (u *StarUpdater) processFile(ctx context.Context, path string) StarResult {
	name := filepath.Base(path)
	log := u.logger().With("file", name)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("failed to read project file", "error", err)
		return StarResult{File: name, Status: StarsError, Reason: "read-failed"}
	}
	content := string(data)

	githubURL := FindGitHubURL(content)
	if githubURL == "" {
		log.Info("no GitHub URL found, skipping")
		return StarResult{File: name, Status: StarsSkipped, Reason: "no-github-url"}
	}
	owner, repo, ok := GitHubRepo(githubURL)
	if !ok {
		log.Info("could not parse GitHub URL, skipping", "url", githubURL)
		return StarResult{File: name, Status: StarsSkipped, Reason: "invalid-url"}
	}

	log.Debug("fetching stars", "repo", owner+"/"+repo)
	stars, err := u.GitHub.Stars(ctx, owner, repo)
	if err != nil {
		log.Error("failed to fetch stars", "repo", owner+"/"+repo, "error", err)
		return StarResult{File: name, Status: StarsError, Reason: "fetch-failed"}
	}

	result := StarResult{File: name, NewStars: stars}
	if current, ok := CurrentStars(content); ok {
		result.OldStars = &current
		if current == stars {
			result.Status = StarsUnchanged
			log.Info("stars unchanged", "stars", stars)
			return result
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return StarResult{File: name, Status: StarsError, Reason: "write-failed"}
	}
	if err := os.WriteFile(path, []byte(UpdateStars(content, stars)), info.Mode().Perm()); err != nil {
		log.Error("failed to write project file", "error", err)
		return StarResult{File: name, Status: StarsError, Reason: "write-failed"}
	}
	result.Status = StarsUpdated
	old := "none"
	if result.OldStars != nil {
		old = strconv.Itoa(*result.OldStars)
	}
	log.Info("stars updated", "old", old, "new", stars)
	return result
}
