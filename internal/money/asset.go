package money

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Cluster names accepted in configuration.
const (
	ClusterMainnet  = "mainnet-beta"
	ClusterDevnet   = "devnet"
	ClusterTestnet  = "testnet"
	ClusterLocalnet = "localnet"
)

// Well-known USDC mint addresses.
const (
	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCMintDevnet  = "4zMMC9srt5Ri5X14GAgXhaHii3GfPAEJ2nz98ta6Z1jJ"
)

const (
	SymbolSOL  = "SOL"
	SymbolUSDC = "USDC"
)

// ErrUnsupportedAsset is returned when a symbol is not in the registry.
var ErrUnsupportedAsset = errors.New("money: unsupported asset")

// AssetKind selects how value moves on chain.
type AssetKind int

const (
	// KindNative moves lamports directly between wallets.
	KindNative AssetKind = iota
	// KindToken moves SPL tokens between associated token accounts.
	KindToken
)

func (k AssetKind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("AssetKind(%d)", int(k))
	}
}

// Asset describes a transferable asset. Mint is the zero key for native assets.
type Asset struct {
	Symbol   string
	Kind     AssetKind
	Decimals uint8
	Mint     solana.PublicKey
}

// IsNative reports whether the asset is the chain's base coin.
func (a Asset) IsNative() bool {
	return a.Kind == KindNative
}

// Native returns the SOL descriptor.
func Native() Asset {
	return Asset{Symbol: SymbolSOL, Kind: KindNative, Decimals: 9}
}

// Token returns an SPL token descriptor.
func Token(symbol string, decimals uint8, mint solana.PublicKey) Asset {
	return Asset{Symbol: symbol, Kind: KindToken, Decimals: decimals, Mint: mint}
}

// DefaultUSDCMint returns the USDC mint for a cluster.
func DefaultUSDCMint(cluster string) (string, error) {
	switch cluster {
	case ClusterMainnet:
		return USDCMintMainnet, nil
	case ClusterDevnet, ClusterTestnet, ClusterLocalnet:
		return USDCMintDevnet, nil
	default:
		return "", fmt.Errorf("money: unknown cluster %q", cluster)
	}
}

// Registry resolves user-supplied symbols to assets. The set is fixed when the
// registry is built and never changes afterwards, so lookups need no locking.
type Registry struct {
	cluster string
	assets  map[string]Asset
}

// NewRegistry builds the asset set for a cluster. usdcMint overrides the
// cluster default when non-empty.
func NewRegistry(cluster, usdcMint string) (*Registry, error) {
	if usdcMint == "" {
		def, err := DefaultUSDCMint(cluster)
		if err != nil {
			return nil, err
		}
		usdcMint = def
	}
	mint, err := solana.PublicKeyFromBase58(usdcMint)
	if err != nil {
		return nil, fmt.Errorf("money: invalid usdc mint %q: %w", usdcMint, err)
	}

	return &Registry{
		cluster: cluster,
		assets: map[string]Asset{
			SymbolSOL:  Native(),
			SymbolUSDC: Token(SymbolUSDC, 6, mint),
		},
	}, nil
}

// MustNewRegistry is NewRegistry for tests and constants.
func MustNewRegistry(cluster, usdcMint string) *Registry {
	r, err := NewRegistry(cluster, usdcMint)
	if err != nil {
		panic(err)
	}
	return r
}

// Cluster returns the cluster the registry was built for.
func (r *Registry) Cluster() string {
	return r.cluster
}

// Resolve looks up a symbol case-insensitively. An empty symbol means SOL.
func (r *Registry) Resolve(symbol string) (Asset, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return r.assets[SymbolSOL], nil
	}
	asset, ok := r.assets[symbol]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedAsset, symbol, strings.Join(r.Symbols(), ", "))
	}
	return asset, nil
}

// Symbols lists supported symbols in sorted order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.assets))
	for s := range r.assets {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
