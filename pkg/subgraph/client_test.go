package subgraph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

var skipRe = regexp.MustCompile(`skip:(\d+), first:(\d+)`)

// accountsServer serves total accounts in pages. When skipLimit is positive,
// requests beyond it get the hosted service's skip error.
func accountsServer(t *testing.T, total, skipLimit int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		m := skipRe.FindStringSubmatch(gjson.GetBytes(body, "query").String())
		require.Len(t, m, 3)
		skip, _ := strconv.Atoi(m[1])
		first, _ := strconv.Atoi(m[2])

		if skipLimit > 0 && skip > skipLimit {
			fmt.Fprintf(w, `{"errors":[{"message":"The skip argument must be between 0 and %d, but is %d"}]}`, skipLimit, skip)
			return
		}

		var accounts []string
		for i := skip; i < total && i < skip+first; i++ {
			accounts = append(accounts, fmt.Sprintf(`{"id":"0x%040x","amountOwed":"%d"}`, i+1, (i+1)*10))
		}
		fmt.Fprintf(w, `{"data":{"accounts":[%s]}}`, strings.Join(accounts, ","))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, url string, pageSize int) *Client {
	t.Helper()
	c, err := NewClient(&Config{
		URL:          url,
		PageSize:     pageSize,
		MaxRetries:   1,
		RetryWaitMin: time.Millisecond,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestFetchAccounts_Pagination(t *testing.T) {
	srv, calls := accountsServer(t, 25, 0)
	c := newTestClient(t, srv.URL, 10)

	records, err := c.FetchAccounts(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 25)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", records[0].Address)
	assert.Equal(t, "10", records[0].Amount)
	assert.Equal(t, "250", records[24].Amount)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAccounts_ExactMultipleRequestsEmptyPage(t *testing.T) {
	srv, calls := accountsServer(t, 20, 0)
	c := newTestClient(t, srv.URL, 10)

	records, err := c.FetchAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 20)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAccounts_SkipLimitEndsPagination(t *testing.T) {
	srv, _ := accountsServer(t, 100, 20)
	c := newTestClient(t, srv.URL, 10)

	records, err := c.FetchAccounts(context.Background())
	require.NoError(t, err)
	// pages at skip 0, 10 and 20 succeed
	assert.Len(t, records, 30)
}

func TestFetchAccounts_QueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"indexing error"}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 10).FetchAccounts(context.Background())
	require.ErrorIs(t, err, ErrQuery)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, []string{"indexing error"}, qe.Messages)
}

func TestFetchAccounts_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":{"accounts":[{"id":"0x0000000000000000000000000000000000000001","amountOwed":"5"}]}}`)
	}))
	defer srv.Close()

	records, err := newTestClient(t, srv.URL, 10).FetchAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchAccounts_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 10).FetchAccounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestFetchAccounts_ContextCancelled(t *testing.T) {
	srv, _ := accountsServer(t, 5, 0)
	c := newTestClient(t, srv.URL, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchAccounts(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParsePage(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		want    int
		wantErr error
	}{
		{"empty page", `{"data":{"accounts":[]}}`, 0, nil},
		{"numeric amount", `{"data":{"accounts":[{"id":"0xab","amountOwed":12}]}}`, 1, nil},
		{"not json", `<html>`, 0, ErrMalformedResponse},
		{"missing accounts", `{"data":{}}`, 0, ErrMalformedResponse},
		{"missing amount", `{"data":{"accounts":[{"id":"0xab"}]}}`, 0, ErrMalformedResponse},
		{"graphql error", `{"errors":[{"message":"boom"}]}`, 0, ErrQuery},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := parsePage("http://subgraph", 0, []byte(tc.body))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tc.want)
		})
	}
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(&Config{}, nil)
	require.Error(t, err)
}
