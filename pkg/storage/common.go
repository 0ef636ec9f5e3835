package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"
)

const (
	// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
	IpfsPrefix = "ipfs://"
	// FilecoinPrefix is the URI scheme prefix recognized for Filecoin/Lighthouse content.
	FilecoinPrefix = "filecoin://"

	// DefaultTimeout bounds one document fetch when Options.Timeout is zero.
	DefaultTimeout = 30 * time.Second
	// MaxDocumentSize caps the bytes read from any backend.
	MaxDocumentSize = 4 << 20
)

var (
	// ErrEmptyURI is returned for an empty document reference.
	ErrEmptyURI = errors.New("empty document uri")
	// ErrUnsupportedURI is returned for references that are neither a CID
	// nor an ipfs://, filecoin:// or http(s):// URI.
	ErrUnsupportedURI = errors.New("unsupported document uri")
)

// LighthouseFetcher fetches content from a Lighthouse gateway.
type LighthouseFetcher interface {
	Fetch(ctx context.Context, endpoint, cid string) ([]byte, error)
}

// IPFSFetcher fetches content addressed by CID from IPFS.
type IPFSFetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// Options configures a Client. Empty URLs disable the matching backend.
type Options struct {
	// IpfsURL is the Kubo HTTP API endpoint, e.g. http://127.0.0.1:5001.
	IpfsURL string
	// LighthouseURL is an IPFS gateway base URL ending in "/", e.g.
	// https://gateway.lighthouse.storage/ipfs/.
	LighthouseURL string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client aggregates the configured storage backends.
type Client struct {
	lighthouseURL string
	timeout       time.Duration
	httpClient    *http.Client

	lighthouseFetcher LighthouseFetcher
	ipfsFetcher       IPFSFetcher
}

// New builds a Client. It does not contact any backend.
func New(opts Options) (*Client, error) {
	c := &Client{
		lighthouseURL: opts.LighthouseURL,
		timeout:       opts.Timeout,
		httpClient:    opts.HTTPClient,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	c.lighthouseFetcher = gatewayFetcher{client: c.httpClient}
	if opts.IpfsURL != "" {
		api, err := NewIPFSClient(opts.IpfsURL, c.httpClient)
		if err != nil {
			return nil, err
		}
		c.ipfsFetcher = newIPFSFetcher(api)
	}
	return c, nil
}

// ReadFile fetches the document behind uri:
//
//   - filecoin://<cid> via the Lighthouse gateway
//   - ipfs://<cid> or a bare CID via the Kubo API, falling back to the
//     Lighthouse gateway when the node fails or is not configured
//   - http:// and https:// by GET
func (c *Client) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, ErrEmptyURI
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch {
	case strings.HasPrefix(uri, FilecoinPrefix):
		hash, path := splitRef(uri)
		return c.fromLighthouse(ctx, hash+path)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return getHTTP(ctx, c.client(), uri)
	}

	hash, path := splitRef(uri)
	if _, err := cid.Decode(hash); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	if c.ipfsFetcher == nil {
		return c.fromLighthouse(ctx, hash+path)
	}
	data, err := c.ipfsFetcher.Fetch(ctx, hash+path)
	if err == nil {
		return data, nil
	}
	if c.lighthouseURL == "" {
		return nil, err
	}
	zap.L().Warn("IPFS read failed, trying gateway", zap.String("cid", hash), zap.Error(err))
	return c.fromLighthouse(ctx, hash+path)
}

// ReadMetadata fetches uri and decodes it as an ERC-1155 metadata document.
func (c *Client) ReadMetadata(ctx context.Context, uri string) (model.TokenMetadata, error) {
	var md model.TokenMetadata
	raw, err := c.ReadFile(ctx, uri)
	if err != nil {
		return md, err
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return md, fmt.Errorf("decode metadata %s: %w", uri, err)
	}
	return md, nil
}

func (c *Client) fromLighthouse(ctx context.Context, hash string) ([]byte, error) {
	if c.lighthouseURL == "" {
		return nil, errors.New("lighthouse gateway not configured")
	}
	if c.lighthouseFetcher == nil {
		c.lighthouseFetcher = gatewayFetcher{client: c.client()}
	}
	return c.lighthouseFetcher.Fetch(ctx, c.lighthouseURL, hash)
}

func (c *Client) client() *http.Client {
	if c.httpClient == nil {
		return http.DefaultClient
	}
	return c.httpClient
}

// gatewayFetcher is the production LighthouseFetcher.
type gatewayFetcher struct {
	client *http.Client
}

func (f gatewayFetcher) Fetch(ctx context.Context, endpoint, cid string) ([]byte, error) {
	return GetLighthouseFile(ctx, f.client, endpoint, cid)
}

// splitRef returns the sanitized CID of an ipfs:// or filecoin:// reference
// and the sub-path that follows it, if any ("/1.json").
func splitRef(uri string) (hash, path string) {
	ref := strings.TrimPrefix(strings.TrimPrefix(uri, IpfsPrefix), FilecoinPrefix)
	ref = strings.TrimPrefix(ref, "ipfs/")
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref, path = ref[:i], ref[i:]
	}
	return formatHash(ref), path
}

var specialCharacters = regexp.MustCompile("[^a-zA-Z0-9=]")

// formatHash removes known URI scheme prefixes and any non-alphanumeric
// characters (except '=') from the supplied hash/URI to produce a clean CID
// string suitable for the underlying backends.
func formatHash(hash string) string {
	hash = strings.Replace(hash, IpfsPrefix, "", -1)
	hash = strings.Replace(hash, FilecoinPrefix, "", -1)
	hash = removeSpecialCharacters(hash)
	return hash
}

// removeSpecialCharacters strips all characters except ASCII letters, digits,
// and '=' from pString.
func removeSpecialCharacters(pString string) string {
	return specialCharacters.ReplaceAllString(pString, "")
}
