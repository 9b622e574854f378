package rpcclient

import "context"

// GetBlockCount returns the height of the node's best chain tip
func (c *RPCClient) GetBlockCount(ctx context.Context) (int64, error) {
	future := c.client.GetBlockCountAsync()
	return await(ctx, c, "getblockcount", future.Receive)
}
