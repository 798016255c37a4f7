package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Options configures a GitHubClient
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	Delay     time.Duration // pause between consecutive requests, 0 disables
}

// GitHubClient fetches user profiles and follow lists from the GitHub REST API.
// It is not safe for concurrent use; the crawler drives it from a single goroutine.
type GitHubClient struct {
	collector *colly.Collector
	baseURL   string
	token     string
}

// NewGitHubClient creates a client backed by a synchronous Colly collector
func NewGitHubClient(opts Options) (*GitHubClient, error) {
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", opts.BaseURL, err)
	}

	options := []colly.CollectorOption{
		colly.AllowURLRevisit(), // profiles of skipped users are fetched again when reached twice
		colly.IgnoreRobotsTxt(),
	}
	if opts.UserAgent != "" {
		options = append(options, colly.UserAgent(opts.UserAgent))
	}
	collector := colly.NewCollector(options...)

	if opts.Timeout > 0 {
		collector.SetRequestTimeout(opts.Timeout)
	}

	if opts.Delay > 0 {
		if err := collector.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       opts.Delay,
		}); err != nil {
			return nil, fmt.Errorf("failed to set request delay: %w", err)
		}
	}

	return &GitHubClient{
		collector: collector,
		baseURL:   opts.BaseURL,
		token:     opts.Token,
	}, nil
}

// FetchProfile returns the profile of login
func (g *GitHubClient) FetchProfile(ctx context.Context, login string) (*Profile, error) {
	target := g.userURL(login, "")

	var payload userPayload
	if err := g.getJSON(ctx, target, &payload); err != nil {
		return nil, err
	}

	if payload.Login == nil || *payload.Login == "" {
		return nil, &TransportError{URL: target, Err: fmt.Errorf("%w: profile without login", ErrMalformedResponse)}
	}

	profile := &Profile{Login: *payload.Login}
	if payload.HTMLURL != nil && *payload.HTMLURL != "" {
		profile.URL = *payload.HTMLURL
	} else {
		profile.URL = ProfileURL(profile.Login)
	}
	if payload.Followers != nil {
		profile.Followers = *payload.Followers
	}

	return profile, nil
}

// FetchFollowers returns the users following login, in API order
func (g *GitHubClient) FetchFollowers(ctx context.Context, login string) ([]Contact, error) {
	return g.fetchContacts(ctx, g.userURL(login, "followers"))
}

// FetchFollowing returns the users login follows, in API order
func (g *GitHubClient) FetchFollowing(ctx context.Context, login string) ([]Contact, error) {
	return g.fetchContacts(ctx, g.userURL(login, "following"))
}

// ProfileURL builds the public profile URL for a login
func ProfileURL(login string) string {
	return "https://github.com/" + login
}

func (g *GitHubClient) fetchContacts(ctx context.Context, target string) ([]Contact, error) {
	var payload []contactPayload
	if err := g.getJSON(ctx, target, &payload); err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(payload))
	for i, entry := range payload {
		if entry.Login == nil || *entry.Login == "" {
			return nil, &TransportError{URL: target, Err: fmt.Errorf("%w: entry %d without login", ErrMalformedResponse, i)}
		}
		contact := Contact{Login: *entry.Login}
		if entry.HTMLURL != nil && *entry.HTMLURL != "" {
			contact.URL = *entry.HTMLURL
		} else {
			contact.URL = ProfileURL(contact.Login)
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

func (g *GitHubClient) userURL(login, suffix string) string {
	target := g.baseURL + "/users/" + url.PathEscape(login)
	if suffix != "" {
		target += "/" + suffix
	}
	return target
}

// getJSON performs one GET through a fresh clone of the collector so callbacks
// never leak between requests, then decodes the body into out
func (g *GitHubClient) getJSON(ctx context.Context, target string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := g.collector.Clone()
	c.Context = ctx

	var (
		body    []byte
		status  int
		headers *http.Header
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/vnd.github+json")
		if g.token != "" {
			r.Headers.Set("Authorization", "token "+g.token)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})

	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		headers = r.Headers
		logrus.Debugf("GitHub API error for %s: %v (status: %d)", target, err, r.StatusCode)
	})

	// colly decides success: only 200-202 reach OnResponse, any other status comes back as visitErr
	visitErr := c.Visit(target)

	if status == http.StatusForbidden || status == http.StatusTooManyRequests {
		return &RateLimitError{URL: target, StatusCode: status, ResetAt: resetTime(headers)}
	}
	if visitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{URL: target, StatusCode: status, Err: visitErr}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{URL: target, StatusCode: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}

	return nil
}

// resetTime reads when the quota refills, preferring X-RateLimit-Reset over Retry-After
func resetTime(headers *http.Header) time.Time {
	if headers == nil {
		return time.Time{}
	}

	if v := headers.Get("X-RateLimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(epoch, 0).UTC()
		}
	}
	if v := headers.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Now().Add(time.Duration(secs) * time.Second).UTC()
		}
	}

	return time.Time{}
}
