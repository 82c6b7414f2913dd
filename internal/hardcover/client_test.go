package hardcover

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/lepinkainen/shelfsync/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Auth      string
	Query     string
	Variables map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, req recordedRequest)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body graphqlRequest
	_ = json.NewDecoder(r.Body).Decode(&body)
	rec := recordedRequest{Auth: r.Header.Get("Authorization"), Query: body.Query, Variables: body.Variables}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.handle(w, rec)
}

func (f *fakeAPI) count(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.Contains(r.Query, substr) {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, handle func(w http.ResponseWriter, req recordedRequest), opts ...Option) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{handle: handle}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithURL(server.URL),
		WithRateLimiter(ratelimit.NewWithBurst("test", 1000, 1000)),
	}, opts...)
	return NewClient("secret", opts...), api
}

func writeData(w http.ResponseWriter, data string) {
	_, _ = w.Write([]byte(`{"data":` + data + `}`))
}

func TestClientOptionsApply(t *testing.T) {
	customHTTP := &http.Client{}
	limiter := ratelimit.New("hardcover", 2)

	client := NewClient(
		"token",
		WithURL("https://example.test/graphql/"),
		WithHTTPClient(customHTTP),
		WithRateLimiter(limiter),
		WithDryRun(true),
	)

	require.Equal(t, "https://example.test/graphql", client.url)
	require.Equal(t, customHTTP, client.httpClient)
	require.Equal(t, limiter, client.rateLimiter)
	require.True(t, client.dryRun)
}

func TestMeSendsBearerTokenAndMemoizes(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		writeData(w, `{"me":[{"id":42,"username":"reader"}]}`)
	})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, user.ID)
	assert.Equal(t, "reader", user.Username)

	_, err = client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("query Me"))
	assert.Equal(t, "Bearer secret", api.requests[0].Auth)
}

func TestMeWithoutUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		writeData(w, `{"me":[]}`)
	})

	_, err := client.Me(context.Background())
	require.ErrorIs(t, err, ErrNoUser)
}

func TestUnauthorizedStatusMapsToAuthenticationError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthenticationError(err))
}

func TestTooManyRequestsMapsToRateLimitError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.BookByID(context.Background(), 1)
	require.Error(t, err)
	require.True(t, apperrors.IsRateLimitError(err))

	var rle *apperrors.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 30*time.Second, rle.RetryAfter)
}

func TestGraphQLErrorsAreClassified(t *testing.T) {
	tests := []struct {
		message   string
		checkAuth bool
		checkRate bool
	}{
		{message: "Unauthorized access"},
		{message: "Rate limit exceeded"},
		{message: "field 'foo' not found"},
	}
	tests[0].checkAuth = true
	tests[1].checkRate = true

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
				_, _ = w.Write([]byte(`{"errors":[{"message":"` + tt.message + `"}]}`))
			})

			_, err := client.BookBySlug(context.Background(), "dune")
			require.Error(t, err)
			assert.Equal(t, tt.checkAuth, apperrors.IsAuthenticationError(err))
			assert.Equal(t, tt.checkRate, apperrors.IsRateLimitError(err))
			assert.Contains(t, strings.ToLower(err.Error()), "hardcover")
		})
	}
}

func TestBookLookups(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		switch {
		case strings.Contains(req.Query, "BookById"):
			if req.Variables["id"] == float64(42) {
				writeData(w, `{"books":[{"id":42,"title":"Dune","slug":"dune"}]}`)
				return
			}
			writeData(w, `{"books":[]}`)
		case strings.Contains(req.Query, "BookBySlug"):
			writeData(w, `{"books":[{"id":42,"title":"Dune","slug":"`+req.Variables["slug"].(string)+`"}]}`)
		case strings.Contains(req.Query, "BookByISBN"):
			writeData(w, `{"editions":[{"id":7,"isbn_13":"9780441013593","book":{"id":42,"title":"Dune","slug":"dune","editions":[{"id":1},{"id":7}]}}]}`)
		}
	})
	ctx := context.Background()

	book, err := client.BookByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "dune", book.Slug)

	missing, err := client.BookByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	book, err = client.BookBySlug(ctx, "dune")
	require.NoError(t, err)
	assert.Equal(t, 42, book.ID)

	book, err = client.BookByISBN(ctx, "978-0-441-01359-3")
	require.NoError(t, err)
	require.Len(t, book.Editions, 1)
	assert.Equal(t, 7, book.Editions[0].ID)

	book, err = client.BookByISBN(ctx, "123")
	require.NoError(t, err)
	assert.Nil(t, book)
	assert.Equal(t, 1, api.count("BookByISBN"))
}

func TestUserBookQueriesUseCurrentUser(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		switch {
		case strings.Contains(req.Query, "query Me"):
			writeData(w, `{"me":[{"id":5,"username":"reader"}]}`)
		case strings.Contains(req.Query, "UserBookByBookId"):
			if req.Variables["book_id"] == float64(100) {
				writeData(w, `{"user_books":[{"id":9,"book_id":100,"status_id":2}]}`)
				return
			}
			writeData(w, `{"user_books":[]}`)
		case strings.Contains(req.Query, "UserBooks"):
			writeData(w, `{"user_books":[{"id":9,"book_id":100}]}`)
		}
	})
	ctx := context.Background()

	ub, err := client.UserBook(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StatusCurrentlyReading, ub.Status())

	missing, err := client.UserBook(ctx, 200)
	require.NoError(t, err)
	assert.Nil(t, missing)

	page, err := client.UserBooks(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 1, api.count("query Me"))

	for _, r := range api.requests {
		if strings.Contains(r.Query, "user_books") {
			assert.Equal(t, float64(5), r.Variables["user_id"])
		}
	}
}

func TestMutationsSendPayloads(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		switch {
		case strings.Contains(req.Query, "InsertUserBookRead"):
			writeData(w, `{"insert_user_book_read":{"id":21}}`)
		case strings.Contains(req.Query, "UpdateUserBookRead"):
			writeData(w, `{"update_user_book_read":{"id":0,"error":"read not found"}}`)
		case strings.Contains(req.Query, "InsertUserBook"):
			writeData(w, `{"insert_user_book":{"id":11}}`)
		case strings.Contains(req.Query, "UpdateUserBook"):
			writeData(w, `{"update_user_book":{"id":11}}`)
		}
	})
	ctx := context.Background()
	status := StatusWantToRead

	id, err := client.AddUserBook(ctx, 100, UserBookUpdate{StatusID: &status})
	require.NoError(t, err)
	assert.Equal(t, 11, id)

	require.NoError(t, client.UpdateUserBook(ctx, 11, UserBookUpdate{Rating: ptr(4.5)}))

	readID, err := client.InsertRead(ctx, 11, ReadUpdate{ProgressPages: ptr(120)})
	require.NoError(t, err)
	assert.Equal(t, 21, readID)

	err = client.UpdateRead(ctx, 21, ReadUpdate{FinishedAt: ptr("2024-05-01")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read not found")

	insert := api.requests[0].Variables["object"].(map[string]any)
	assert.Equal(t, float64(100), insert["book_id"])
	assert.Equal(t, float64(1), insert["status_id"])

	update := api.requests[1].Variables["object"].(map[string]any)
	assert.Equal(t, 4.5, update["rating"])
	assert.NotContains(t, update, "status_id")
}

func TestDryRunSkipsMutations(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		t.Fatalf("unexpected request: %s", req.Query)
	}, WithDryRun(true))

	id, err := client.AddUserBook(context.Background(), 100, UserBookUpdate{})
	require.NoError(t, err)
	assert.Zero(t, id)
	require.NoError(t, client.UpdateUserBook(context.Background(), 1, UserBookUpdate{Rating: ptr(3.0)}))

	log := client.DryRunLog()
	require.Len(t, log, 2)
	assert.Equal(t, "insert_user_book", log[0].Operation)
	assert.Equal(t, "update_user_book", log[1].Operation)
	assert.Empty(t, api.requests)
}

func TestRetryAfterParsing(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, 5*time.Second, retryAfter("5"))
	assert.Equal(t, time.Duration(0), retryAfter("soon"))
}

func TestListQueriesAndMutations(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		switch {
		case strings.Contains(req.Query, "query Me"):
			writeData(w, `{"me":[{"id":5,"username":"reader"}]}`)
		case strings.Contains(req.Query, "UserLists"):
			writeData(w, `{"lists":[{"id":1,"name":"Favorites","slug":"favorites","books_count":12},{"id":2,"name":"Space","books_count":0}]}`)
		case strings.Contains(req.Query, "BookLists"):
			writeData(w, `{"list_books":[{"id":77,"list_id":1,"list":{"id":1,"name":"Favorites"}},{"id":78,"list_id":3}]}`)
		case strings.Contains(req.Query, "AddBookToList"):
			writeData(w, `{"insert_list_book":{"id":79}}`)
		case strings.Contains(req.Query, "RemoveBookFromList"):
			if req.Variables["list_book_id"] == float64(77) {
				writeData(w, `{"delete_list_book":{"affected_rows":1}}`)
				return
			}
			writeData(w, `{"delete_list_book":{"affected_rows":0}}`)
		case strings.Contains(req.Query, "DeleteUserBook"):
			writeData(w, `{"delete_user_book":{"id":9}}`)
		}
	})
	ctx := context.Background()

	lists, err := client.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Favorites", lists[0].Name)
	assert.Equal(t, 12, lists[0].BooksCount)

	memberships, err := client.BookLists(ctx, 100)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, "Favorites", memberships[0].Name())
	assert.Equal(t, "list 3", memberships[1].Name())

	id, err := client.AddBookToList(ctx, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, 79, id)

	require.NoError(t, client.RemoveBookFromList(ctx, 77))
	err = client.RemoveBookFromList(ctx, 12345)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, client.RemoveUserBook(ctx, 9))
	assert.Equal(t, 1, api.count("query Me"))

	for _, r := range api.requests {
		if strings.Contains(r.Query, "BookLists") || strings.Contains(r.Query, "UserLists") {
			assert.Equal(t, float64(5), r.Variables["user_id"])
		}
	}
}

func TestDryRunSkipsListAndRemoveMutations(t *testing.T) {
	client, api := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		t.Fatalf("unexpected request: %s", req.Query)
	}, WithDryRun(true))
	ctx := context.Background()

	_, err := client.AddBookToList(ctx, 1, 100)
	require.NoError(t, err)
	require.NoError(t, client.RemoveBookFromList(ctx, 77))
	require.NoError(t, client.RemoveUserBook(ctx, 9))

	var ops []string
	for _, e := range client.DryRunLog() {
		ops = append(ops, e.Operation)
	}
	assert.Equal(t, []string{"insert_list_book", "delete_list_book", "delete_user_book"}, ops)
	assert.Empty(t, api.requests)
}
