// Package webfetch provides a tool that downloads a web page and returns
// its readable content as plain text or Markdown.
package webfetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "webfetch")

const (
	// ToolName is the name the model uses to invoke the tool.
	ToolName = "fetch"

	// DefaultMaxLength is the maximum number of characters returned to the model.
	DefaultMaxLength = 4000

	maxBodySize  = 5 << 20
	maxRedirects = 10
	truncated    = "\n[truncated]"
)

// Format is the output format of the fetched content.
type Format string

const (
	// FormatText strips all markup.
	FormatText Format = "text"
	// FormatMarkdown converts HTML to Markdown.
	FormatMarkdown Format = "markdown"
)

// Tool fetches a URL.
type Tool struct {
	format     Format
	maxLength  int
	userAgent  string
	httpClient *http.Client
}

var _ tools.ITool = (*Tool)(nil)

// New returns the fetch tool producing plain text.
func New() *Tool {
	return &Tool{
		format:    FormatText,
		maxLength: DefaultMaxLength,
		userAgent: "edgeagent/1.0",
		httpClient: &http.Client{
			Timeout: tools.DefaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// WithFormat sets the output format.
func (t *Tool) WithFormat(format Format) *Tool {
	switch format {
	case FormatText, FormatMarkdown:
		t.format = format
	}
	return t
}

// WithMaxLength sets the maximum number of characters returned.
func (t *Tool) WithMaxLength(n int) *Tool {
	if n > 0 {
		t.maxLength = n
	}
	return t
}

func (t *Tool) WithUserAgent(userAgent string) *Tool {
	if userAgent != "" {
		t.userAgent = userAgent
	}
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	if client != nil {
		t.httpClient = client
	}
	return t
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Fetch a web page and return its content. Input: URL starting with http:// or https://"
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	u := strings.TrimSpace(input)
	if u == "" {
		return "", errors.WithStack(tools.ErrEmptyInput)
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "", errors.New("URL must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		content, err = t.convert(content)
		if err != nil {
			return "", err
		}
	} else {
		content = strings.TrimSpace(content)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "fetched",
		"url", u,
		"content_type", contentType,
		"size", len(body),
		"format", t.format,
	)

	return Truncate(content, t.maxLength), nil
}

func (t *Tool) convert(html string) (string, error) {
	if t.format == FormatMarkdown {
		return ConvertHTMLToMarkdown(html)
	}
	return ExtractTextFromHTML(html)
}

// ExtractTextFromHTML returns the visible text of the document,
// one non-empty line per line.
func ExtractTextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse HTML")
	}

	doc.Find("script, style, noscript").Remove()

	lines := strings.Split(doc.Text(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n"), nil
}

// ConvertHTMLToMarkdown converts the document to Markdown.
func ConvertHTMLToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert HTML to Markdown")
	}

	markdown = strings.TrimSpace(markdown)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return markdown, nil
}

// Truncate limits s to max runes, appending a marker when truncated.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + truncated
}
