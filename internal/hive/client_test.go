package hive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, hits *atomic.Int64, status int, result string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","result":` + result + `,"id":1}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientNoEndpoints(t *testing.T) {
	_, err := NewClient(Options{})
	require.ErrorIs(t, err, ErrEnvironment)
}

func TestCallSuccess(t *testing.T) {
	var hits atomic.Int64
	srv := rpcServer(t, &hits, http.StatusOK, `{"head_block_number":123}`)

	client, err := NewClient(Options{Endpoints: []string{srv.URL}, Backoff: time.Millisecond})
	require.NoError(t, err)

	result, err := client.Call(context.Background(), MethodGetDynamicGlobal, []any{})
	require.NoError(t, err)
	require.JSONEq(t, `{"head_block_number":123}`, string(result))
	require.Equal(t, int64(1), hits.Load())
}

func TestCallOneAttemptPerEndpoint(t *testing.T) {
	var hitsA, hitsB, hitsC atomic.Int64
	srvA := rpcServer(t, &hitsA, http.StatusInternalServerError, "")
	srvB := rpcServer(t, &hitsB, http.StatusBadGateway, "")
	srvC := rpcServer(t, &hitsC, http.StatusServiceUnavailable, "")

	client, err := NewClient(Options{
		Endpoints: []string{srvA.URL, srvB.URL, srvC.URL},
		Backoff:   time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), MethodGetAccounts, []any{})
	require.Error(t, err)

	var exhaustion *NodeExhaustionError
	require.ErrorAs(t, err, &exhaustion)
	require.Equal(t, 3, exhaustion.Attempts)
	require.Error(t, exhaustion.Last)

	require.Equal(t, int64(1), hitsA.Load())
	require.Equal(t, int64(1), hitsB.Load())
	require.Equal(t, int64(1), hitsC.Load())
}

func TestCallFailoverSticks(t *testing.T) {
	var hitsBad, hitsGood atomic.Int64
	bad := rpcServer(t, &hitsBad, http.StatusInternalServerError, "")
	good := rpcServer(t, &hitsGood, http.StatusOK, `[]`)

	client, err := NewClient(Options{
		Endpoints: []string{bad.URL, good.URL},
		Backoff:   time.Millisecond,
	})
	require.NoError(t, err)

	// First call fails over to the second endpoint
	_, err = client.Call(context.Background(), MethodGetAccounts, []any{})
	require.NoError(t, err)
	require.Equal(t, int64(1), hitsBad.Load())
	require.Equal(t, int64(1), hitsGood.Load())

	// Subsequent calls start at the endpoint that worked
	_, err = client.Call(context.Background(), MethodGetAccounts, []any{})
	require.NoError(t, err)
	require.Equal(t, int64(1), hitsBad.Load())
	require.Equal(t, int64(2), hitsGood.Load())
}

func TestCallRotationWrapsAround(t *testing.T) {
	var hitsA, hitsB atomic.Int64
	srvA := rpcServer(t, &hitsA, http.StatusInternalServerError, "")
	srvB := rpcServer(t, &hitsB, http.StatusInternalServerError, "")

	client, err := NewClient(Options{
		Endpoints: []string{srvA.URL, srvB.URL},
		Backoff:   time.Millisecond,
	})
	require.NoError(t, err)

	// Two exhausted calls: the pointer wraps and every endpoint is
	// tried exactly once per call
	for i := 0; i < 2; i++ {
		_, err = client.Call(context.Background(), MethodGetAccounts, []any{})
		var exhaustion *NodeExhaustionError
		require.ErrorAs(t, err, &exhaustion)
		require.Equal(t, 2, exhaustion.Attempts)
	}
	require.Equal(t, int64(2), hitsA.Load())
	require.Equal(t, int64(2), hitsB.Load())
}

func TestCallSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32000,"message":"account does not exist"},"id":1}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{Endpoints: []string{srv.URL}, Backoff: time.Millisecond})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), MethodGetAccounts, []any{})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32000, rpcErr.Code)
	require.Contains(t, rpcErr.Message, "account does not exist")
}

func TestCallContextCancelDuringBackoff(t *testing.T) {
	var hits atomic.Int64
	srvA := rpcServer(t, &hits, http.StatusInternalServerError, "")
	srvB := rpcServer(t, &hits, http.StatusInternalServerError, "")

	client, err := NewClient(Options{
		Endpoints: []string{srvA.URL, srvB.URL},
		Backoff:   time.Minute,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Call(ctx, MethodGetAccounts, []any{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, int64(1), hits.Load())
}

func TestCallSendsEnvelope(t *testing.T) {
	var got JSONRPCRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"jsonrpc":"2.0","result":[],"id":1}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{Endpoints: []string{srv.URL}})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), MethodGetAccounts, []any{[]string{"alice"}})
	require.NoError(t, err)
	require.Equal(t, "2.0", got.JSONRPC)
	require.Equal(t, MethodGetAccounts, got.Method)
	require.Equal(t, 1, got.ID)
}
