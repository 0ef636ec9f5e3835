package config

// Network describes a chain the SDK can target. ChainID is used for EIP-155
// signing and session checks; the remaining fields are what a wallet needs
// to add the network when it does not know it.
type Network struct {
	ChainID     uint64         `json:"chain_id" yaml:"chain_id" mapstructure:"chain_id"`
	Name        string         `json:"network_name" yaml:"network_name" mapstructure:"network_name"`
	Currency    NativeCurrency `json:"native_currency" yaml:"native_currency" mapstructure:"native_currency"`
	RPCURLs     []string       `json:"rpc_urls" yaml:"rpc_urls" mapstructure:"rpc_urls"`
	ExplorerURL string         `json:"explorer_url" yaml:"explorer_url" mapstructure:"explorer_url"`
}

// NativeCurrency is the chain's base currency.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Symbol   string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals" mapstructure:"decimals"`
}

// Polygon is the predefined Network for Polygon PoS mainnet.
var Polygon = Network{
	ChainID:     137,
	Name:        "Polygon Mainnet",
	Currency:    NativeCurrency{Name: "MATIC", Symbol: "MATIC", Decimals: 18},
	RPCURLs:     []string{"https://polygon-rpc.com"},
	ExplorerURL: "https://polygonscan.com",
}

// Amoy is the predefined Network for the Polygon Amoy testnet.
var Amoy = Network{
	ChainID:     80002,
	Name:        "Polygon Amoy Testnet",
	Currency:    NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
	RPCURLs:     []string{"https://rpc-amoy.polygon.technology"},
	ExplorerURL: "https://amoy.polygonscan.com",
}

// Hardhat is the predefined Network for a local development node.
var Hardhat = Network{
	ChainID:  31337,
	Name:     "Hardhat",
	Currency: NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
	RPCURLs:  []string{"http://127.0.0.1:8545"},
}

// NetworkByChainID returns the predefined network for id.
func NetworkByChainID(id uint64) (Network, bool) {
	for _, n := range []Network{Polygon, Amoy, Hardhat} {
		if n.ChainID == id {
			return n, true
		}
	}
	return Network{}, false
}
