package headersource

import (
	"context"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/network/rpcclient"
)

// RPCSource fetches headers from a zcashd compatible node over JSON-RPC.
type RPCSource struct {
	client *rpcclient.RPCClient
}

// NewRPCSource returns a HeaderSource backed by client.
func NewRPCSource(client *rpcclient.RPCClient) *RPCSource {
	return &RPCSource{client: client}
}

// HeaderBytes returns the header of the best chain block at height.
func (s *RPCSource) HeaderBytes(ctx context.Context, height uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	blockCount, err := s.client.GetBlockCount(ctx)
	if err != nil {
		return nil, err
	}
	if int64(height) > blockCount {
		return nil, errors.Wrapf(ErrHeaderNotAvailable, "height %d is above the node tip %d", height, blockCount)
	}

	hash, err := s.client.GetBlockHash(ctx, int64(height))
	if err != nil {
		if isOutOfRangeError(err) {
			return nil, errors.Wrapf(ErrHeaderNotAvailable, "node dropped height %d", height)
		}
		return nil, err
	}
	log.Tracef("Fetching header %d (%s)", height, hash)
	return s.client.GetBlockHeaderBytes(ctx, hash)
}

// Close shuts the RPC client down.
func (s *RPCSource) Close() error {
	s.client.Close()
	return nil
}

func isOutOfRangeError(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCInvalidParameter
}
