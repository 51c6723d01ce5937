package tests

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

var pageArgs = regexp.MustCompile(`skip:\s*(\d+),\s*first:\s*(\d+)`)

// FakeSubgraph serves a fixed accounts entity the way the hosted graph
// service does, including its cap on the skip argument.
type FakeSubgraph struct {
	*httptest.Server

	accounts  []snapshot.Record
	skipLimit int
	requests  atomic.Int32
}

// NewFakeSubgraph starts a server for accounts. A positive skipLimit makes
// pages beyond it fail with the service's skip error.
func NewFakeSubgraph(t *testing.T, accounts []snapshot.Record, skipLimit int) *FakeSubgraph {
	t.Helper()
	fs := &FakeSubgraph{accounts: accounts, skipLimit: skipLimit}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.Close)
	return fs
}

// Requests returns how many queries the server has answered.
func (fs *FakeSubgraph) Requests() int {
	return int(fs.requests.Load())
}

func (fs *FakeSubgraph) handle(w http.ResponseWriter, r *http.Request) {
	fs.requests.Add(1)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m := pageArgs.FindStringSubmatch(gjson.GetBytes(body, "query").String())
	if m == nil {
		writeErrors(w, "query must page with skip and first")
		return
	}
	skip, _ := strconv.Atoi(m[1])
	first, _ := strconv.Atoi(m[2])

	if fs.skipLimit > 0 && skip > fs.skipLimit {
		writeErrors(w, fmt.Sprintf("The `skip` argument must be between 0 and %d, but is %d", fs.skipLimit, skip))
		return
	}

	page := make([]map[string]string, 0, first)
	for i := skip; i < len(fs.accounts) && i < skip+first; i++ {
		page = append(page, map[string]string{
			"id":         strings.ToLower(fs.accounts[i].Address),
			"amountOwed": fs.accounts[i].Amount,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"accounts": page},
	})
}

func writeErrors(w http.ResponseWriter, messages ...string) {
	errs := make([]map[string]string, len(messages))
	for i, msg := range messages {
		errs[i] = map[string]string{"message": msg}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"errors": errs})
}

// GenerateAccounts returns n accounts with distinct addresses starting at
// offset and amount (i+1)*unit.
func GenerateAccounts(n, offset int, unit int64) []snapshot.Record {
	out := make([]snapshot.Record, n)
	for i := range out {
		out[i] = snapshot.Record{
			Address: fmt.Sprintf("0x%040x", offset+i+1),
			Amount:  strconv.FormatInt(int64(i+1)*unit, 10),
		}
	}
	return out
}
