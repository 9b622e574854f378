package rpcclient

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	btcrpcclient "github.com/btcsuite/btcd/rpcclient"
	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// RPCClient is a JSON-RPC client of a zcashd compatible full node.
type RPCClient struct {
	client *btcrpcclient.Client

	rpcAddress string
	timeout    time.Duration
}

// Option adjusts the connection settings of a new RPCClient.
type Option func(connConfig *btcrpcclient.ConnConfig)

// WithProxy sends every request through the SOCKS5 proxy at proxyAddr
// (host:port). In HTTP POST mode the client hands ConnConfig.Proxy to
// http.ProxyURL, so the proxy and its credentials are passed as a socks5 URL.
func WithProxy(proxyAddr, proxyUser, proxyPass string) Option {
	return func(connConfig *btcrpcclient.ConnConfig) {
		connConfig.Proxy = proxyURL(proxyAddr, proxyUser, proxyPass)
		connConfig.ProxyUser = proxyUser
		connConfig.ProxyPass = proxyPass
	}
}

func proxyURL(proxyAddr, proxyUser, proxyPass string) string {
	u := &url.URL{Scheme: "socks5", Host: proxyAddr}
	if proxyUser != "" {
		u.User = url.UserPassword(proxyUser, proxyPass)
	}
	return u.String()
}

// NewRPCClient creates a client for the node at rpcURL. Credentials embedded
// in the URL are used unless user is set.
func NewRPCClient(rpcURL, user, pass string, options ...Option) (*RPCClient, error) {
	connConfig, err := connConfigFromURL(rpcURL, user, pass)
	if err != nil {
		return nil, err
	}
	for _, option := range options {
		option(connConfig)
	}
	if connConfig.Proxy != "" {
		log.Infof("Connecting to the RPC server through SOCKS5 proxy %s", redactedProxy(connConfig.Proxy))
	}
	client, err := btcrpcclient.New(connConfig, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating a client for %s", connConfig.Host)
	}

	log.Infof("Using RPC server %s", connConfig.Host)

	return &RPCClient{
		client:     client,
		rpcAddress: connConfig.Host,
		timeout:    defaultTimeout,
	}, nil
}

func connConfigFromURL(rpcURL, user, pass string) (*btcrpcclient.ConnConfig, error) {
	parsedURL, err := url.Parse(rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid RPC URL %q", rpcURL)
	}
	if parsedURL.Host == "" {
		return nil, errors.Errorf("RPC URL %q has no host", rpcURL)
	}
	switch parsedURL.Scheme {
	case "http", "https":
	default:
		return nil, errors.Errorf("RPC URL %q must use http or https", rpcURL)
	}

	if user == "" && parsedURL.User != nil {
		user = parsedURL.User.Username()
		pass, _ = parsedURL.User.Password()
	}

	return &btcrpcclient.ConnConfig{
		Host:         parsedURL.Host + parsedURL.Path,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true,
		DisableTLS:   parsedURL.Scheme == "http",
	}, nil
}

func redactedProxy(proxy string) string {
	u, err := url.Parse(proxy)
	if err != nil {
		return proxy
	}
	return u.Redacted()
}

// SetTimeout sets how long a call waits for its response before failing
// with ErrTimeout.
func (c *RPCClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Close closes the RPC client
func (c *RPCClient) Close() {
	c.client.Shutdown()
}

// Address returns the address the RPC client sends requests to
func (c *RPCClient) Address() string {
	return c.rpcAddress
}

// ErrRPC is an error in the RPC protocol
var ErrRPC = errors.New("rpc error")

// ErrTimeout is returned when the server does not answer within the client's timeout
var ErrTimeout = errors.New("timeout expired")

// await waits for receive to return, for ctx to be done or for the client
// timeout to expire, whichever comes first.
func await[T any](ctx context.Context, c *RPCClient, method string, receive func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	resultChan := make(chan result, 1)
	spawn("RPCClient.await-"+method, func() {
		value, err := receive()
		resultChan <- result{value: value, err: err}
	})

	var zero T
	select {
	case res := <-resultChan:
		if res.err != nil {
			return zero, errors.Wrapf(res.err, "%s failed", method)
		}
		return res.value, nil
	case <-ctx.Done():
		return zero, errors.WithStack(ctx.Err())
	case <-time.After(c.timeout):
		return zero, errors.Wrapf(ErrTimeout, "%s got no response within %s", method, c.timeout)
	}
}

func marshalParams(params ...interface{}) ([]json.RawMessage, error) {
	rawParams := make([]json.RawMessage, len(params))
	for i, param := range params {
		rawParam, err := json.Marshal(param)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		rawParams[i] = rawParam
	}
	return rawParams, nil
}
