package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidArgument is returned for crawl parameters that can never succeed
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultFollowerThreshold is the follower count above which users are not expanded
const DefaultFollowerThreshold = 100

// GitHub logins: alphanumerics with single inner hyphens, at most 39 characters
var loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:-?[A-Za-z0-9])*$`)

const maxLoginLength = 39

// SizePolicy decides whether a user is small enough to expand
type SizePolicy struct {
	Threshold  int
	AllowLarge bool
}

// ShouldExpand reports whether a user with this many followers may be expanded
func (p SizePolicy) ShouldExpand(followers int) bool {
	return p.AllowLarge || followers <= p.Threshold
}

// ValidLogin checks GitHub login syntax
func ValidLogin(login string) bool {
	return len(login) <= maxLoginLength && loginPattern.MatchString(login)
}

// NormalizeLogin accepts "alice", "@alice" or a profile URL such as
// https://github.com/alice and returns the bare login
func NormalizeLogin(input string) (string, error) {
	login := strings.TrimSpace(input)
	login = strings.TrimPrefix(login, "@")

	if strings.HasPrefix(login, "github.com/") || strings.HasPrefix(login, "www.github.com/") {
		login = "https://" + login
	}

	if strings.Contains(login, "://") {
		parsed, err := url.Parse(login)
		if err != nil {
			return "", fmt.Errorf("%w: cannot parse %q: %v", ErrInvalidArgument, input, err)
		}
		host := strings.ToLower(parsed.Hostname())
		if host != "github.com" && host != "www.github.com" {
			return "", fmt.Errorf("%w: %q is not a GitHub profile URL", ErrInvalidArgument, input)
		}
		login = strings.SplitN(strings.Trim(parsed.Path, "/"), "/", 2)[0]
	}

	if !ValidLogin(login) {
		return "", fmt.Errorf("%w: %q is not a valid GitHub login", ErrInvalidArgument, input)
	}

	return login, nil
}
