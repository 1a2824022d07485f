package money

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		wantSym  string
		wantKind AssetKind
		wantDec  uint8
		wantErr  bool
	}{
		{"empty defaults to SOL", "", SymbolSOL, KindNative, 9, false},
		{"SOL", "SOL", SymbolSOL, KindNative, 9, false},
		{"lowercase sol", "sol", SymbolSOL, KindNative, 9, false},
		{"USDC", "USDC", SymbolUSDC, KindToken, 6, false},
		{"mixed case usdc", "UsDc", SymbolUSDC, KindToken, 6, false},
		{"padded", " usdc ", SymbolUSDC, KindToken, 6, false},
		{"unknown", "BONK", "", 0, 0, true},
		{"mint address is not a symbol", USDCMintMainnet, "", 0, 0, true},
	}

	r := MustNewRegistry(ClusterMainnet, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.symbol)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedAsset) {
					t.Fatalf("expected ErrUnsupportedAsset, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.symbol, err)
			}
			if got.Symbol != tt.wantSym || got.Kind != tt.wantKind || got.Decimals != tt.wantDec {
				t.Errorf("Resolve(%q) = %+v", tt.symbol, got)
			}
		})
	}
}

func TestRegistry_MintPerCluster(t *testing.T) {
	tests := []struct {
		cluster  string
		override string
		want     string
	}{
		{ClusterMainnet, "", USDCMintMainnet},
		{ClusterDevnet, "", USDCMintDevnet},
		{ClusterTestnet, "", USDCMintDevnet},
		{ClusterDevnet, USDCMintMainnet, USDCMintMainnet},
	}

	for _, tt := range tests {
		t.Run(tt.cluster+"/"+tt.override, func(t *testing.T) {
			r, err := NewRegistry(tt.cluster, tt.override)
			if err != nil {
				t.Fatalf("NewRegistry: %v", err)
			}
			usdc, _ := r.Resolve(SymbolUSDC)
			if usdc.Mint.String() != tt.want {
				t.Errorf("mint = %s, want %s", usdc.Mint, tt.want)
			}
			sol, _ := r.Resolve(SymbolSOL)
			if !sol.Mint.IsZero() {
				t.Errorf("native asset should have no mint, got %s", sol.Mint)
			}
		})
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	if _, err := NewRegistry("moonnet", ""); err == nil {
		t.Error("expected error for unknown cluster")
	}
	if _, err := NewRegistry(ClusterDevnet, "not-a-mint"); err == nil {
		t.Error("expected error for invalid mint override")
	}
}

func TestRegistry_Symbols(t *testing.T) {
	r := MustNewRegistry(ClusterDevnet, "")
	if got := r.Symbols(); !reflect.DeepEqual(got, []string{"SOL", "USDC"}) {
		t.Errorf("Symbols() = %v", got)
	}
	if r.Cluster() != ClusterDevnet {
		t.Errorf("Cluster() = %s", r.Cluster())
	}
}

func TestAssetKind_String(t *testing.T) {
	if KindNative.String() != "native" || KindToken.String() != "token" {
		t.Errorf("unexpected kind names: %s %s", KindNative, KindToken)
	}
}
