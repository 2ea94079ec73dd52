// Package scraper fetches web page titles for link submissions.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	xhtml "golang.org/x/net/html"
)

// UserAgent is sent with every request; some sites refuse bot agents
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBody bounds how much of a page is read looking for <title>
const maxBody = 2 << 20

// ErrNoTitle is returned when the page has no usable title
var ErrNoTitle = errors.New("page has no title")

// leveledLogrus forwards retryablehttp logs to the bot logger.
// Errors become warnings since the request is retried.
type leveledLogrus struct{}

func (leveledLogrus) Error(msg string, kv ...interface{}) { logger.Warn(format(msg, kv), "Scraper") }
func (leveledLogrus) Warn(msg string, kv ...interface{})  { logger.Warn(format(msg, kv), "Scraper") }
func (leveledLogrus) Info(msg string, kv ...interface{})  { logger.Debug(format(msg, kv), "Scraper") }
func (leveledLogrus) Debug(msg string, kv ...interface{}) { logger.Debug(format(msg, kv), "Scraper") }

func format(msg string, kv []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

// Option configures a Scraper
type Option func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries
func WithMaxRetries(n int) Option {
	return func(c *retryablehttp.Client) { c.RetryMax = n }
}

// WithRetryWait sets the backoff bounds between retries
func WithRetryWait(min, max time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = min
		c.RetryWaitMax = max
	}
}

// Scraper keeps a cookie jar across requests and persists it to a file
type Scraper struct {
	client     *http.Client
	jar        *cookiejar.Jar
	cookieFile string

	mu    sync.Mutex
	hosts map[string]struct{}
}

// New builds a Scraper. An empty cookieFile disables cookie persistence.
func New(cookieFile string, opts ...Option) *Scraper {
	jar, _ := cookiejar.New(nil)

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledLogrus{})
	for _, opt := range opts {
		opt(retryClient)
	}

	client := retryClient.StandardClient()
	client.Jar = jar
	client.Timeout = 20 * time.Second

	s := &Scraper{client: client, jar: jar, cookieFile: cookieFile, hosts: make(map[string]struct{})}
	s.loadCookies()
	return s
}

// Title returns the title of the page at pageURL. YouTube videos are
// prefixed with "[YouTube]" and lose the site suffix.
func (s *Scraper) Title(ctx context.Context, pageURL string) (string, error) {
	target, youtube := youtubeWatchURL(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.External("web", "get", err)
	}
	defer resp.Body.Close()

	s.remember(req.URL)
	if resp.StatusCode >= 400 {
		return "", errors.External("web", "get", fmt.Errorf("%s returned %s", target, resp.Status))
	}

	title, err := extractTitle(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}
	if youtube {
		title = "[YouTube] " + strings.TrimSpace(strings.TrimSuffix(title, "- YouTube"))
	}
	return title, nil
}

// youtubeWatchURL rewrites youtu.be short links to the watch page
func youtubeWatchURL(pageURL string) (string, bool) {
	switch {
	case strings.HasPrefix(pageURL, "https://www.youtube.com/watch?v="):
		return pageURL, true
	case strings.HasPrefix(pageURL, "https://youtu.be/"):
		return "https://www.youtube.com/watch?v=" + strings.TrimPrefix(pageURL, "https://youtu.be/"), true
	}
	return pageURL, false
}

func extractTitle(r io.Reader) (string, error) {
	z := xhtml.NewTokenizer(r)
	inTitle := false
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				return "", ErrNoTitle
			}
			return "", z.Err()
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case xhtml.TextToken:
			if inTitle {
				title := strings.Join(strings.Fields(string(z.Text())), " ")
				if title == "" {
					return "", ErrNoTitle
				}
				return title, nil
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				return "", ErrNoTitle
			}
		}
	}
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Scraper) remember(u *url.URL) {
	if s.cookieFile == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hosts[u.Scheme+"://"+u.Host] = struct{}{}
	stored := make(map[string][]storedCookie, len(s.hosts))
	for origin := range s.hosts {
		ou, err := url.Parse(origin)
		if err != nil {
			continue
		}
		for _, c := range s.jar.Cookies(ou) {
			stored[origin] = append(stored[origin], storedCookie{Name: c.Name, Value: c.Value})
		}
	}

	data, err := json.Marshal(stored)
	if err == nil {
		err = os.WriteFile(s.cookieFile, data, 0600)
	}
	if err != nil {
		logger.Warn(fmt.Sprintf("Unable to update cached cookies: %v", err), "Scraper")
	}
}

func (s *Scraper) loadCookies() {
	if s.cookieFile == "" {
		return
	}
	data, err := os.ReadFile(s.cookieFile)
	if err != nil {
		logger.Info("Unable to load cached cookies, creating new ones automatically.", "Scraper")
		return
	}

	var stored map[string][]storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn(fmt.Sprintf("Ignoring malformed cookie cache: %v", err), "Scraper")
		return
	}
	for origin, cookies := range stored {
		u, err := url.Parse(origin)
		if err != nil {
			continue
		}
		jarCookies := make([]*http.Cookie, 0, len(cookies))
		for _, c := range cookies {
			jarCookies = append(jarCookies, &http.Cookie{Name: c.Name, Value: c.Value})
		}
		s.jar.SetCookies(u, jarCookies)
		s.hosts[origin] = struct{}{}
	}
}
