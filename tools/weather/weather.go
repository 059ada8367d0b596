// Package weather provides a current weather tool backed by wttr.in.
package weather

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "weather")

const (
	// ToolName is the name the model uses to invoke the tool.
	ToolName = "weather"
	// DefaultBaseURL is the wttr.in endpoint.
	DefaultBaseURL = "https://wttr.in"
	// DefaultFormat is the one line wttr.in format, for example "Tokyo: ⛅️  +18°C".
	DefaultFormat = "3"

	maxBodySize = 64 << 10
)

// Tool returns the current weather for a city.
type Tool struct {
	baseURL    string
	format     string
	userAgent  string
	httpClient *http.Client
}

var _ tools.ITool = (*Tool)(nil)

// New returns the weather tool.
func New() *Tool {
	return &Tool{
		baseURL:    DefaultBaseURL,
		format:     DefaultFormat,
		userAgent:  "curl/8.0",
		httpClient: &http.Client{Timeout: tools.DefaultTimeout},
	}
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	if baseURL != "" {
		t.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	if client != nil {
		t.httpClient = client
	}
	return t
}

// WithFormat sets the wttr.in format string.
func (t *Tool) WithFormat(format string) *Tool {
	if format != "" {
		t.format = format
	}
	return t
}

func (t *Tool) WithUserAgent(userAgent string) *Tool {
	if userAgent != "" {
		t.userAgent = userAgent
	}
	return t
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Get current weather for a city. Input: city name"
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	city := strings.TrimSpace(input)
	if city == "" {
		return "", errors.WithStack(tools.ErrEmptyInput)
	}

	u := t.baseURL + "/" + url.PathEscape(city) + "?format=" + url.QueryEscape(t.format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	// wttr.in returns HTML to browsers
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to get weather")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}

	res := strings.TrimSpace(string(body))
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "weather",
		"city", city,
		"result", res,
	)
	return res, nil
}
