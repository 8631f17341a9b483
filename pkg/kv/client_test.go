package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/datamon/datamon-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

// fakeStore serves the REST command protocol backed by a map.
type fakeStore struct {
	data map[string]string
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized"}`)
		return
	}

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	command := parts[0]

	switch command {
	case "ping":
		fmt.Fprint(w, `{"result":"PONG"}`)
	case "get":
		value, ok := f.data[parts[1]]
		if !ok {
			fmt.Fprint(w, `{"result":null}`)
			return
		}
		payload, _ := json.Marshal(value)
		fmt.Fprintf(w, `{"result":%s}`, payload)
	case "set":
		body, _ := io.ReadAll(r.Body)
		f.data[parts[1]] = string(body)
		fmt.Fprint(w, `{"result":"OK"}`)
	case "del":
		count := 0
		for _, key := range strings.Split(parts[1], "/") {
			if _, ok := f.data[key]; ok {
				delete(f.data, key)
				count++
			}
		}
		fmt.Fprintf(w, `{"result":%d}`, count)
	case "incr":
		current := 0
		fmt.Sscanf(f.data[parts[1]], "%d", &current)
		current++
		f.data[parts[1]] = fmt.Sprintf("%d", current)
		fmt.Fprintf(w, `{"result":%d}`, current)
	case "keys":
		keys := []string{}
		prefix := strings.TrimSuffix(parts[1], "*")
		for key := range f.data {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		payload, _ := json.Marshal(keys)
		fmt.Fprintf(w, `{"result":%s}`, payload)
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"unknown command"}`)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeStore) {
	t.Helper()

	fake := &fakeStore{data: make(map[string]string)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "test-token")
	require.NoError(t, err)
	return client, fake
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", "token")
	assert.ErrorContains(t, err, "empty store URL")

	_, err = NewClient("https://example.upstash.io", "")
	assert.ErrorContains(t, err, "empty store token")
}

func TestClient_SetGet(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "project:p1", `{"id":"p1"}`))

	value, err := client.Get(ctx, "project:p1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"p1"}`, value)
}

func TestClient_Get_MissingKey(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNil)
}

func TestClient_Del(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	fake.data["a"] = "1"
	fake.data["b"] = "2"

	require.NoError(t, client.Del(ctx, "a", "b"))
	assert.Empty(t, fake.data)

	// Deleting absent keys is not an error
	assert.NoError(t, client.Del(ctx, "a"))
	assert.NoError(t, client.Del(ctx))
}

func TestClient_Incr(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	value, err := client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)

	value, err = client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), value)
}

func TestClient_Keys(t *testing.T) {
	client, fake := newTestClient(t)

	fake.data["project:p1"] = "x"
	fake.data["project:p2"] = "y"
	fake.data["data:d1"] = "z"

	keys, err := client.Keys(context.Background(), "project:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"project:p1", "project:p2"}, keys)
}

func TestClient_Ping(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_BadCredentials(t *testing.T) {
	fake := &fakeStore{data: make(map[string]string)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "wrong-token")
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "any")
	assert.ErrorContains(t, err, "status 401")
}

func TestClient_KeyEscaping(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	// Keys with reserved characters must round-trip through the path
	key := "webhook:token:a b/c"
	require.NoError(t, client.Set(ctx, key, "v"))

	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}
