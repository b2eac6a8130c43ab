package x

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"pun_archiver/internal/domain"
)

const SourceID = "x"

// Config holds X API source configuration.
type Config struct {
	BaseURL      string
	TokenURL     string
	BearerToken  string
	APIKey       string
	APIKeySecret string
	AccountID    string
	AccountName  string
	PageSize     int
	MaxPages     int
	Timeout      time.Duration
}

// Source reads one account's timeline from the X API v2.
type Source struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new X source. Authenticate must succeed before FetchPosts.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		cfg:    cfg,
		logger: logger.With("source", SourceID, "account_id", cfg.AccountID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	if s.cfg.AccountName != "" {
		return "X @" + s.cfg.AccountName
	}
	return "X account " + s.cfg.AccountID
}

// Authenticate builds an authorized client and checks it by looking up
// the archived account. A bearer token is used as is; otherwise the API
// key and secret are exchanged for an app-only token.
func (s *Source) Authenticate(ctx context.Context) error {
	base := &http.Client{Timeout: s.cfg.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	var ts oauth2.TokenSource
	switch {
	case s.cfg.BearerToken != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.cfg.BearerToken, TokenType: "Bearer"})
	case s.cfg.APIKey != "" && s.cfg.APIKeySecret != "":
		cc := clientcredentials.Config{
			ClientID:     s.cfg.APIKey,
			ClientSecret: s.cfg.APIKeySecret,
			TokenURL:     s.cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ts = cc.TokenSource(ctx)
	default:
		return fmt.Errorf("%w: no bearer token or api key pair configured", domain.ErrAuth)
	}

	client := oauth2.NewClient(ctx, ts)
	client.Timeout = s.cfg.Timeout

	var resp UserResponse
	err := s.get(ctx, client, "/2/users/"+url.PathEscape(s.cfg.AccountID), nil, &resp)
	if err != nil {
		if isAuthFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrAuth, err)
		}
		return fmt.Errorf("%w: look up account: %v", domain.ErrFetch, err)
	}
	if resp.Data == nil {
		if len(resp.Errors) > 0 {
			return fmt.Errorf("%w: look up account %s: %v", domain.ErrConfig, s.cfg.AccountID, resp.Errors[0])
		}
		return fmt.Errorf("%w: account %s not found", domain.ErrConfig, s.cfg.AccountID)
	}

	s.httpClient = client
	s.logger.Info("authenticated", "username", resp.Data.Username)
	return nil
}

// FetchPosts returns the account's posts newer than sinceID, newest first,
// without replies or reposts.
func (s *Source) FetchPosts(ctx context.Context, sinceID string) ([]domain.Post, error) {
	if s.httpClient == nil {
		return nil, fmt.Errorf("%w: source is not authenticated", domain.ErrAuth)
	}

	var all []Tweet
	token := ""

	for page := 0; page < s.cfg.MaxPages; page++ {
		resp, err := s.fetchPage(ctx, sinceID, token)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrFetch, page, err)
		}

		all = append(all, resp.Data...)

		s.logger.Debug("fetched page",
			"page", page,
			"posts", len(resp.Data),
			"result_count", resp.Meta.ResultCount,
			"total", len(all),
		)

		if resp.Meta.NextToken == "" {
			break
		}
		token = resp.Meta.NextToken

		if page == s.cfg.MaxPages-1 {
			s.logger.Warn("more posts than max_pages allows, older posts in this window will not be archived",
				"max_pages", s.cfg.MaxPages,
				"page_size", s.cfg.PageSize,
			)
		}
	}

	return s.transform(all), nil
}

func (s *Source) fetchPage(ctx context.Context, sinceID, token string) (*TweetsResponse, error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(s.cfg.PageSize))
	q.Set("exclude", "replies,retweets")
	q.Set("tweet.fields", "id,text,created_at")
	if sinceID != "" {
		q.Set("since_id", sinceID)
	}
	if token != "" {
		q.Set("pagination_token", token)
	}

	var resp TweetsResponse
	path := "/2/users/" + url.PathEscape(s.cfg.AccountID) + "/tweets"
	if err := s.get(ctx, s.httpClient, path, q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 && len(resp.Errors) > 0 {
		return nil, resp.Errors[0]
	}
	return &resp, nil
}

// StatusError is a non-200 response from the API.
type StatusError struct {
	StatusCode int
	Problem    APIError
}

func (e *StatusError) Error() string {
	if e.Problem.Title != "" {
		return fmt.Sprintf("unexpected status: %d: %v", e.StatusCode, e.Problem)
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

func isAuthFailure(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
	}
	var retrieveErr *oauth2.RetrieveError
	return errors.As(err, &retrieveErr)
}

func (s *Source) get(ctx context.Context, client *http.Client, path string, q url.Values, out any) error {
	u := s.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PunArchiver/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, &statusErr.Problem)
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (s *Source) transform(tweets []Tweet) []domain.Post {
	posts := make([]domain.Post, 0, len(tweets))

	for _, t := range tweets {
		createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			s.logger.Warn("failed to parse date",
				"post_id", t.ID,
				"created_at", t.CreatedAt,
			)
			continue
		}

		posts = append(posts, domain.Post{
			ID:        t.ID,
			Text:      html.UnescapeString(t.Text),
			CreatedAt: createdAt.UTC(),
		})
	}

	return posts
}
