package headersource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zecpow/zecpowd/infrastructure/network/rpcclient"
)

const (
	fakeTipHeight  = 1000
	fakeHeaderHex  = "04000000aabbcc"
	fakeBlockHash  = "0000000001a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c"
	rpcUser        = "user"
	rpcPass        = "pass"
	invalidParamRC = -8
)

type fakeRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

type fakeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type fakeResponse struct {
	Result interface{}     `json:"result"`
	Error  *fakeError      `json:"error"`
	ID     json.RawMessage `json:"id"`
}

// newFakeNode serves the three calls RPCSource makes. It knows a single
// block at fakeTipHeight, and getblockhash drops every other height.
func newFakeNode(t *testing.T) (*httptest.Server, func() []string) {
	var methods []string
	var methodsLock sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != rpcUser || pass != rpcPass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		request := fakeRequest{}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		methodsLock.Lock()
		methods = append(methods, request.Method)
		methodsLock.Unlock()

		response := fakeResponse{ID: request.ID}
		switch request.Method {
		case "getblockcount":
			response.Result = fakeTipHeight
		case "getblockhash":
			var height int64
			_ = json.Unmarshal(request.Params[0], &height)
			if height != fakeTipHeight {
				response.Error = &fakeError{Code: invalidParamRC, Message: "Block height out of range"}
				break
			}
			response.Result = fakeBlockHash
		case "getblockheader":
			var hash string
			var verbose bool
			_ = json.Unmarshal(request.Params[0], &hash)
			_ = json.Unmarshal(request.Params[1], &verbose)
			if hash != fakeBlockHash || verbose {
				response.Error = &fakeError{Code: invalidParamRC, Message: "unexpected params"}
				break
			}
			response.Result = fakeHeaderHex
		default:
			response.Error = &fakeError{Code: -32601, Message: "Method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&response)
	}))
	t.Cleanup(server.Close)
	return server, func() []string {
		methodsLock.Lock()
		defer methodsLock.Unlock()
		return append([]string(nil), methods...)
	}
}

func TestRPCSource(t *testing.T) {
	server, methods := newFakeNode(t)
	client, err := rpcclient.NewRPCClient(server.URL, rpcUser, rpcPass)
	require.NoError(t, err)
	source := NewRPCSource(client)
	defer source.Close()

	headerBytes, err := source.HeaderBytes(context.Background(), fakeTipHeight)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04, 0x00, 0x00, 0x00, 0xaa, 0xbb, 0xcc}, headerBytes)
	require.Equal(t, []string{"getblockcount", "getblockhash", "getblockheader"}, methods())

	_, err = source.HeaderBytes(context.Background(), fakeTipHeight+1)
	require.True(t, errors.Is(err, ErrHeaderNotAvailable), "unexpected error: %+v", err)

	_, err = source.HeaderBytes(context.Background(), fakeTipHeight-1)
	require.True(t, errors.Is(err, ErrHeaderNotAvailable), "unexpected error: %+v", err)
}

func TestRPCSourceCredentialsFromURL(t *testing.T) {
	server, _ := newFakeNode(t)
	rpcURL := "http://" + rpcUser + ":" + rpcPass + "@" + server.Listener.Addr().String()
	client, err := rpcclient.NewRPCClient(rpcURL, "", "")
	require.NoError(t, err)
	source := NewRPCSource(client)
	defer source.Close()

	_, err = source.HeaderBytes(context.Background(), fakeTipHeight)
	require.NoError(t, err)
}

func TestRPCSourceCanceled(t *testing.T) {
	server, _ := newFakeNode(t)
	client, err := rpcclient.NewRPCClient(server.URL, rpcUser, rpcPass)
	require.NoError(t, err)
	source := NewRPCSource(client)
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.HeaderBytes(ctx, fakeTipHeight)
	require.True(t, errors.Is(err, context.Canceled), "unexpected error: %+v", err)
}

func TestRPCSourceTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := rpcclient.NewRPCClient(server.URL, rpcUser, rpcPass)
	require.NoError(t, err)
	client.SetTimeout(50 * time.Millisecond)
	source := NewRPCSource(client)
	defer source.Close()

	_, err = source.HeaderBytes(context.Background(), fakeTipHeight)
	require.True(t, errors.Is(err, rpcclient.ErrTimeout), "unexpected error: %+v", err)
}
