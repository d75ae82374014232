package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeAPI is an in-process stand-in for the Sheets REST API.
type fakeAPI struct {
	handlers map[string]func(body []byte) (int, any)
	calls    []string
	mu       sync.Mutex
}

func newFakeAPI(t *testing.T) (*fakeAPI, *sheets.Service) {
	t.Helper()
	fake := &fakeAPI{handlers: map[string]func([]byte) (int, any){}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return fake, svc
}

// on registers a handler for a method and a path suffix.
func (f *fakeAPI) on(method, suffix string, h func(body []byte) (int, any)) {
	f.handlers[method+" "+suffix] = h
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	var handler func([]byte) (int, any)
	for key, h := range f.handlers {
		method, suffix, _ := strings.Cut(key, " ")
		if method == r.Method && strings.HasSuffix(r.URL.Path, suffix) {
			handler = h
			break
		}
	}
	f.mu.Unlock()

	if handler == nil {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
		return
	}
	status, resp := handler(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) called(method, suffix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		m, path, _ := strings.Cut(c, " ")
		if m == method && strings.HasSuffix(path, suffix) {
			n++
		}
	}
	return n
}
