// Package network holds per-chain address books: tokens, protocol
// contracts and the operation executor.
package network

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/summerfi/dma-sdk/pkg/types"
)

//go:embed networks/*.yaml
var files embed.FS

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrUnknownToken   = errors.New("unknown token")
	ErrNotDeployed    = errors.New("protocol not deployed on network")
)

// FlashloanProvider identifies the flashloan source used by TakeFlashloan
type FlashloanProvider uint8

const (
	DssFlash FlashloanProvider = 0
	Balancer FlashloanProvider = 1
)

func (p FlashloanProvider) String() string {
	if p == DssFlash {
		return "dss-flash"
	}
	return "balancer"
}

// TokenConfig is a token entry in the address book
type TokenConfig struct {
	Precision int            `yaml:"precision"`
	Address   common.Address `yaml:"address"`
}

// AaveLike holds the contracts shared by Aave v2, Aave v3 and Spark
type AaveLike struct {
	Pool         common.Address `yaml:"pool"`
	DataProvider common.Address `yaml:"dataProvider"`
	Oracle       common.Address `yaml:"oracle"`
}

// Ajna holds the Ajna helper contract and pools keyed "COLLATERAL/QUOTE"
type Ajna struct {
	PoolInfoUtils common.Address            `yaml:"poolInfoUtils"`
	Pools         map[string]common.Address `yaml:"pools"`
}

// MorphoBlue holds the singleton and market ids keyed "COLLATERAL/LOAN"
type MorphoBlue struct {
	Morpho  common.Address         `yaml:"morpho"`
	Markets map[string]common.Hash `yaml:"markets"`
}

// Network is a chain address book
type Network struct {
	Name              string                    `yaml:"name"`
	ChainID           uint64                    `yaml:"chainId"`
	OperationExecutor common.Address            `yaml:"operationExecutor"`
	WrappedNative     string                    `yaml:"wrappedNative"`
	FlashloanToken    string                    `yaml:"flashloanToken"`
	DssFlash          bool                      `yaml:"dssFlash"`
	Tokens            map[string]TokenConfig    `yaml:"tokens"`
	AaveV2            *AaveLike                 `yaml:"aaveV2"`
	AaveV3            *AaveLike                 `yaml:"aaveV3"`
	Spark             *AaveLike                 `yaml:"spark"`
	Ajna              *Ajna                     `yaml:"ajna"`
	MorphoBlue        *MorphoBlue               `yaml:"morphoBlue"`
	PriceFeeds        map[string]common.Address `yaml:"priceFeeds"`
}

// Names lists the embedded networks
func Names() []string {
	entries, err := fs.ReadDir(files, "networks")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Load reads an embedded network by name
func Load(name string) (*Network, error) {
	data, err := files.ReadFile(path.Join("networks", strings.ToLower(name)+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	return Parse(data)
}

// Parse decodes and validates a network document
func Parse(data []byte) (*Network, error) {
	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode network: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate checks that the book is internally consistent
func (n *Network) Validate() error {
	var errs []error
	if n.Name == "" {
		errs = append(errs, errors.New("network name is required"))
	}
	if n.ChainID == 0 {
		errs = append(errs, fmt.Errorf("network %s: chainId is required", n.Name))
	}
	for symbol, t := range n.Tokens {
		if t.Address == (common.Address{}) {
			errs = append(errs, fmt.Errorf("network %s: token %s has no address", n.Name, symbol))
		}
		if t.Precision < 0 || t.Precision > types.MaxPrecision {
			errs = append(errs, fmt.Errorf("network %s: token %s: %w", n.Name, symbol, types.ErrInvalidPrecision))
		}
	}
	for _, symbol := range []string{n.WrappedNative, n.FlashloanToken} {
		if _, ok := n.Tokens[symbol]; !ok {
			errs = append(errs, fmt.Errorf("network %s: %w: %s", n.Name, ErrUnknownToken, symbol))
		}
	}
	return errors.Join(errs...)
}

// Token resolves a token by symbol
func (n *Network) Token(symbol string) (types.Token, error) {
	key := strings.ToUpper(symbol)
	t, ok := n.Tokens[key]
	if !ok {
		return types.Token{}, fmt.Errorf("%w: %s on %s", ErrUnknownToken, symbol, n.Name)
	}
	return types.Token{Symbol: key, Precision: t.Precision, Address: t.Address}, nil
}

// TokenByAddress resolves a token by address
func (n *Network) TokenByAddress(address common.Address) (types.Token, error) {
	for symbol, t := range n.Tokens {
		if t.Address == address {
			return types.Token{Symbol: symbol, Precision: t.Precision, Address: t.Address}, nil
		}
	}
	return types.Token{}, fmt.Errorf("%w: %s on %s", ErrUnknownToken, address.Hex(), n.Name)
}

// Native is the gas asset
func (n *Network) Native() types.Token {
	return types.Token{Symbol: "ETH", Precision: 18, Address: types.NativeAddress}
}

// Wrapped returns the wrapped gas asset
func (n *Network) Wrapped() (types.Token, error) {
	return n.Token(n.WrappedNative)
}

// IsWrappedNative reports whether t is the wrapped gas asset
func (n *Network) IsWrappedNative(t types.Token) bool {
	w, err := n.Wrapped()
	return err == nil && w.Equal(t)
}

// Flashloan returns the stable reference token used for flashloans
func (n *Network) Flashloan() (types.Token, error) {
	return n.Token(n.FlashloanToken)
}

// FlashloanProviderFor picks DssFlash for DAI where the flash mint module
// exists and Balancer otherwise.
func (n *Network) FlashloanProviderFor(t types.Token) FlashloanProvider {
	if n.DssFlash && strings.EqualFold(t.Symbol, "DAI") {
		return DssFlash
	}
	return Balancer
}

// AaveLikeAddresses returns the contracts for an Aave-like deployment
// named "aaveV2", "aaveV3" or "spark".
func (n *Network) AaveLikeAddresses(name string) (*AaveLike, error) {
	var a *AaveLike
	switch name {
	case "aaveV2":
		a = n.AaveV2
	case "aaveV3":
		a = n.AaveV3
	case "spark":
		a = n.Spark
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotDeployed, name, n.Name)
	}
	return a, nil
}

// PairKey builds the "COLLATERAL/DEBT" key used by Ajna pools and Morpho markets
func PairKey(collateral, debt types.Token) string {
	return strings.ToUpper(collateral.Symbol) + "/" + strings.ToUpper(debt.Symbol)
}
