package hardcover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/lepinkainen/shelfsync/internal/ratelimit"
)

const (
	// DefaultURL is the GraphQL endpoint of the service.
	DefaultURL = "https://api.hardcover.app/v1/graphql"

	requestsPerMinute = 60
	defaultBurst      = 5
	defaultTimeout    = 30 * time.Second
)

// ErrNoUser is returned when the token does not resolve to a user.
var ErrNoUser = errors.New("hardcover: no user for token")

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a GraphQL client for the remote service. It does not retry;
// callers decide what to do with RateLimitError.
type Client struct {
	token       string
	url         string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
	dryRun      bool

	mu        sync.Mutex
	user      *User
	dryRunLog []DryRunEntry
}

// DryRunEntry records a mutation that was not sent.
type DryRunEntry struct {
	Operation string
	Variables map[string]any
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithURL sets a custom GraphQL endpoint.
func WithURL(url string) Option {
	return func(client *Client) {
		if url != "" {
			client.url = strings.TrimSuffix(url, "/")
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithDryRun makes mutations log instead of executing.
func WithDryRun(dryRun bool) Option {
	return func(client *Client) {
		client.dryRun = dryRun
	}
}

// NewClient creates a client authenticating with token.
func NewClient(token string, opts ...Option) *Client {
	client := &Client{
		token:       token,
		url:         DefaultURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: ratelimit.NewPerMinute("hardcover", requestsPerMinute, defaultBurst),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DryRunLog returns the mutations skipped in dry-run mode.
func (c *Client) DryRunLog() []DryRunEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DryRunEntry(nil), c.dryRunLog...)
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("hardcover: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hardcover: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.NewRateLimitErrorWithRetry("hardcover: rate limit exceeded (60 requests/minute)", retryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.NewAuthenticationError("hardcover: invalid API token")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hardcover: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("hardcover: decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return classifyGraphQLError(envelope.Errors[0].Message)
	}
	if target == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("hardcover: decode data: %w", err)
	}
	return nil
}

func classifyGraphQLError(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "rate limit"):
		return apperrors.NewRateLimitError("hardcover: rate limit exceeded (60 requests/minute)")
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "invalid token"), strings.Contains(lower, "jwt"):
		return apperrors.NewAuthenticationError("hardcover: invalid API token")
	}
	return fmt.Errorf("hardcover: API error: %s", message)
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// Me returns the user owning the token. The result is memoized.
func (c *Client) Me(ctx context.Context) (*User, error) {
	c.mu.Lock()
	if c.user != nil {
		user := c.user
		c.mu.Unlock()
		return user, nil
	}
	c.mu.Unlock()

	var data struct {
		Me []User `json:"me"`
	}
	if err := c.execute(ctx, meQuery, nil, &data); err != nil {
		return nil, err
	}
	if len(data.Me) == 0 {
		return nil, ErrNoUser
	}

	c.mu.Lock()
	c.user = &data.Me[0]
	c.mu.Unlock()
	return &data.Me[0], nil
}

func (c *Client) userID(ctx context.Context) (int, error) {
	user, err := c.Me(ctx)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// BookByID fetches a book by numeric id. A missing book is (nil, nil).
func (c *Client) BookByID(ctx context.Context, id int) (*Book, error) {
	var data struct {
		Books []Book `json:"books"`
	}
	if err := c.execute(ctx, bookByIDQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if len(data.Books) == 0 {
		return nil, nil
	}
	return &data.Books[0], nil
}

// BookBySlug fetches a book by slug. A missing book is (nil, nil).
func (c *Client) BookBySlug(ctx context.Context, slug string) (*Book, error) {
	var data struct {
		Books []Book `json:"books"`
	}
	if err := c.execute(ctx, bookBySlugQuery, map[string]any{"slug": slug}, &data); err != nil {
		return nil, err
	}
	if len(data.Books) == 0 {
		return nil, nil
	}
	return &data.Books[0], nil
}

// BookByISBN looks a book up by ISBN-13 or ISBN-10. The returned book's
// Editions holds only the matched edition.
func (c *Client) BookByISBN(ctx context.Context, isbn string) (*Book, error) {
	isbn = CleanISBN(isbn)

	var query string
	switch len(isbn) {
	case 13:
		query = bookByISBN13Query
	case 10:
		query = bookByISBN10Query
	default:
		return nil, nil
	}

	var data struct {
		Editions []struct {
			Edition
			Book *Book `json:"book"`
		} `json:"editions"`
	}
	if err := c.execute(ctx, query, map[string]any{"isbn": isbn}, &data); err != nil {
		return nil, err
	}
	if len(data.Editions) == 0 || data.Editions[0].Book == nil {
		return nil, nil
	}

	book := *data.Editions[0].Book
	book.Editions = []Edition{data.Editions[0].Edition}
	return &book, nil
}

// UserBooks returns one page of the user's library.
func (c *Client) UserBooks(ctx context.Context, limit, offset int) ([]UserBook, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}

	var data struct {
		UserBooks []UserBook `json:"user_books"`
	}
	vars := map[string]any{"user_id": userID, "limit": limit, "offset": offset}
	if err := c.execute(ctx, userBooksQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.UserBooks, nil
}

// UserBook returns the library entry for bookID, or (nil, nil) when the
// book is not in the user's library.
func (c *Client) UserBook(ctx context.Context, bookID int) (*UserBook, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}

	var data struct {
		UserBooks []UserBook `json:"user_books"`
	}
	vars := map[string]any{"user_id": userID, "book_id": bookID}
	if err := c.execute(ctx, userBookByBookIDQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.UserBooks) == 0 {
		return nil, nil
	}
	return &data.UserBooks[0], nil
}

type mutationResult struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// skipped records a mutation instead of sending it when in dry-run mode.
func (c *Client) skipped(operation string, vars map[string]any) bool {
	if !c.dryRun {
		return false
	}
	c.mu.Lock()
	c.dryRunLog = append(c.dryRunLog, DryRunEntry{Operation: operation, Variables: vars})
	c.mu.Unlock()
	slog.Info("Dry run: skipping mutation", "operation", operation, "variables", vars)
	return true
}

func (c *Client) mutate(ctx context.Context, operation, mutation string, vars map[string]any) (int, error) {
	if c.skipped(operation, vars) {
		return 0, nil
	}

	var data map[string]mutationResult
	if err := c.execute(ctx, mutation, vars, &data); err != nil {
		return 0, err
	}
	result, ok := data[operation]
	if !ok {
		return 0, fmt.Errorf("hardcover: %s returned no result", operation)
	}
	if result.Error != "" {
		return 0, fmt.Errorf("hardcover: %s: %s", operation, result.Error)
	}
	return result.ID, nil
}

// AddUserBook adds bookID to the library and returns the new entry id.
func (c *Client) AddUserBook(ctx context.Context, bookID int, update UserBookUpdate) (int, error) {
	object := map[string]any{"book_id": bookID}
	mergeJSON(object, update)
	return c.mutate(ctx, "insert_user_book", insertUserBookMutation, map[string]any{"object": object})
}

// UpdateUserBook changes status, rating or review of an entry.
func (c *Client) UpdateUserBook(ctx context.Context, userBookID int, update UserBookUpdate) error {
	object := map[string]any{}
	mergeJSON(object, update)
	_, err := c.mutate(ctx, "update_user_book", updateUserBookMutation, map[string]any{"id": userBookID, "object": object})
	return err
}

// InsertRead starts a new reading session on an entry.
func (c *Client) InsertRead(ctx context.Context, userBookID int, update ReadUpdate) (int, error) {
	object := map[string]any{}
	mergeJSON(object, update)
	return c.mutate(ctx, "insert_user_book_read", insertReadMutation, map[string]any{"user_book_id": userBookID, "user_book_read": object})
}

// UpdateRead changes an existing reading session.
func (c *Client) UpdateRead(ctx context.Context, readID int, update ReadUpdate) error {
	object := map[string]any{}
	mergeJSON(object, update)
	_, err := c.mutate(ctx, "update_user_book_read", updateReadMutation, map[string]any{"id": readID, "object": object})
	return err
}

// RemoveUserBook deletes an entry from the library, reading sessions
// included.
func (c *Client) RemoveUserBook(ctx context.Context, userBookID int) error {
	_, err := c.mutate(ctx, "delete_user_book", deleteUserBookMutation, map[string]any{"id": userBookID})
	return err
}

// Lists returns the user's lists ordered by name.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}

	var data struct {
		Lists []List `json:"lists"`
	}
	if err := c.execute(ctx, userListsQuery, map[string]any{"user_id": userID}, &data); err != nil {
		return nil, err
	}
	return data.Lists, nil
}

// BookLists returns the memberships of bookID in the user's lists.
func (c *Client) BookLists(ctx context.Context, bookID int) ([]ListBook, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}

	var data struct {
		ListBooks []ListBook `json:"list_books"`
	}
	vars := map[string]any{"book_id": bookID, "user_id": userID}
	if err := c.execute(ctx, bookListsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.ListBooks, nil
}

// AddBookToList adds bookID to a list and returns the membership id.
func (c *Client) AddBookToList(ctx context.Context, listID, bookID int) (int, error) {
	return c.mutate(ctx, "insert_list_book", addBookToListMutation, map[string]any{"list_id": listID, "book_id": bookID})
}

// RemoveBookFromList deletes a membership. listBookID is ListBook.ID, not
// the book id.
func (c *Client) RemoveBookFromList(ctx context.Context, listBookID int) error {
	vars := map[string]any{"list_book_id": listBookID}
	if c.skipped("delete_list_book", vars) {
		return nil
	}

	var data struct {
		DeleteListBook struct {
			AffectedRows int `json:"affected_rows"`
		} `json:"delete_list_book"`
	}
	if err := c.execute(ctx, removeBookFromListMutation, vars, &data); err != nil {
		return err
	}
	if data.DeleteListBook.AffectedRows == 0 {
		return fmt.Errorf("hardcover: list membership %d not found", listBookID)
	}
	return nil
}

// mergeJSON copies the non-empty JSON fields of v into dst.
func mergeJSON(dst map[string]any, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return
	}
	for k, val := range fields {
		dst[k] = val
	}
}
