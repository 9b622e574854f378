package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// GetBlockHeaderBytes returns the serialized header of the block with the
// given hash, solution included.
func (c *RPCClient) GetBlockHeaderBytes(ctx context.Context, hash *chainhash.Hash) ([]byte, error) {
	params, err := marshalParams(hash.String(), false)
	if err != nil {
		return nil, err
	}
	future := c.client.RawRequestAsync("getblockheader", params)
	rawResult, err := await(ctx, c, "getblockheader", future.Receive)
	if err != nil {
		return nil, err
	}

	var headerHex string
	err = json.Unmarshal(rawResult, &headerHex)
	if err != nil {
		return nil, errors.Wrapf(ErrRPC, "getblockheader returned a non-string result: %s", err)
	}
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, errors.Wrapf(ErrRPC, "getblockheader returned invalid hex: %s", err)
	}
	return headerBytes, nil
}
