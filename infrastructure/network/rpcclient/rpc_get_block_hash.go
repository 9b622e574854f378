package rpcclient

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// GetBlockHash returns the hash of the best chain block at height
func (c *RPCClient) GetBlockHash(ctx context.Context, height int64) (*chainhash.Hash, error) {
	future := c.client.GetBlockHashAsync(height)
	return await(ctx, c, "getblockhash", future.Receive)
}
