package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

// ipfsFetcher is the IPFSFetcher backed by a Kubo HTTP API client.
type ipfsFetcher struct {
	api *rpc.HttpApi
}

func newIPFSFetcher(api *rpc.HttpApi) IPFSFetcher {
	return &ipfsFetcher{api: api}
}

// Fetch retrieves ref with `ipfs cat`. ref is a CID optionally followed
// by a path inside it.
func (f *ipfsFetcher) Fetch(ctx context.Context, ref string) (content []byte, err error) {
	hash, path := splitRef(ref)
	zap.L().Debug("Hash Used to retrieve from IPFS", zap.String("hash", hash))

	if f.api == nil {
		return nil, errors.New("ipfs client not configured")
	}

	cID, err := cid.Decode(hash)
	if err != nil {
		zap.L().Error("error parsing the ipfs hash", zap.String("hash", hash), zap.Error(err))
		return nil, fmt.Errorf("parse cid %q: %w", hash, err)
	}

	resp, err := f.api.Request("cat", "/ipfs/"+cID.String()+path).Send(ctx)
	if err != nil {
		zap.L().Error("error executing the cat command in ipfs", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Error("error closing response in ipfs", zap.String("hash", hash), zap.Error(cerr))
		}
	}(resp)

	if resp.Error != nil {
		zap.L().Error("ipfs cat returned an error", zap.String("hash", hash), zap.Error(resp.Error))
		return nil, resp.Error
	}
	content, err = readLimited(resp.Output)
	if err != nil {
		zap.L().Error("error reading ipfs content", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}
	return content, nil
}

// NewIPFSClient constructs a Kubo HTTP API client pointed at url. A nil
// client gets a 5 second timeout.
func NewIPFSClient(url string, client *http.Client) (*rpc.HttpApi, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	api, err := rpc.NewURLApiWithClient(url, client)
	if err != nil {
		return nil, fmt.Errorf("connect to ipfs at %s: %w", url, err)
	}
	return api, nil
}
