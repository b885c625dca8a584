package actions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/playmixer/nova/lexicon"
)

const (
	DefaultSearchURL  = "https://api.duckduckgo.com/"
	browserSearchURL  = "https://duckduckgo.com/?q="
	maxSpokenAnswer   = 300
	searchHTTPTimeout = 5 * time.Second
)

// answerPaths are tried in order on the instant-answer response.
var answerPaths = []string{"Answer", "AbstractText", "Definition", "RelatedTopics.0.Text"}

// Search handles WebSearch: it speaks an instant answer when the search API
// has one and otherwise opens a browser search.
type Search struct {
	GOOS     string
	Runner   Runner
	Endpoint string
	Client   *http.Client
	log      *zap.Logger
}

func NewSearch(goos string, runner Runner, endpoint string, log *zap.Logger) *Search {
	if endpoint == "" {
		endpoint = DefaultSearchURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Search{
		GOOS:     goos,
		Runner:   runner,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: searchHTTPTimeout},
		log:      log,
	}
}

func (s *Search) Execute(ctx context.Context, params map[string]string) (Result, error) {
	query := strings.TrimSpace(params[lexicon.ParamQuery])
	if query == "" {
		return Fail("I'm not sure what you want me to search for."), ErrMissingParam
	}

	answer, err := s.instantAnswer(ctx, query)
	if err != nil {
		s.log.Debug("instant answer failed", zap.String("query", query), zap.Error(err))
	}
	if answer != "" {
		return Ok("According to DuckDuckGo: %s", answer), nil
	}

	cmd, args := openURLCommand(s.GOOS)
	if err := s.Runner.Start(cmd, append(args, browserSearchURL+url.QueryEscape(query))...); err != nil {
		return Fail("I couldn't search for %s.", query), err
	}
	return Ok("I've opened a web search for %s.", query), nil
}

func (s *Search) instantAnswer(ctx context.Context, query string) (string, error) {
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("search: invalid json response")
	}
	for _, path := range answerPaths {
		if text := strings.TrimSpace(gjson.GetBytes(body, path).String()); text != "" {
			return truncate(text, maxSpokenAnswer), nil
		}
	}
	return "", nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := r[:n]
	for i := len(cut) - 1; i > n/2; i-- {
		if strings.ContainsRune(".!?", cut[i]) {
			return string(cut[:i+1])
		}
	}
	return string(cut) + "..."
}
