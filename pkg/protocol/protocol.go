// Package protocol defines the supported lending protocols and the ports
// used to read their state.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedProtocol = errors.New("unsupported protocol")

// Protocol is the closed set of lending protocols. Every switch over a
// Protocol handles all members and rejects anything else.
type Protocol int

const (
	AaveV2 Protocol = iota + 1
	AaveV3
	Spark
	Ajna
	MorphoBlue
)

// All lists every supported protocol
var All = []Protocol{AaveV2, AaveV3, Spark, Ajna, MorphoBlue}

func (p Protocol) String() string {
	switch p {
	case AaveV2:
		return "aave-v2"
	case AaveV3:
		return "aave-v3"
	case Spark:
		return "spark"
	case Ajna:
		return "ajna"
	case MorphoBlue:
		return "morpho-blue"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// Parse accepts "aave-v3", "aavev3", "AaveV3" and similar spellings
func Parse(s string) (Protocol, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch key {
	case "aavev2":
		return AaveV2, nil
	case "aavev3", "aave":
		return AaveV3, nil
	case "spark":
		return Spark, nil
	case "ajna":
		return Ajna, nil
	case "morphoblue", "morpho":
		return MorphoBlue, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, s)
	}
}

// Validate rejects values outside the closed set
func (p Protocol) Validate() error {
	switch p {
	case AaveV2, AaveV3, Spark, Ajna, MorphoBlue:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedProtocol, int(p))
	}
}

// IsAaveLike reports protocols sharing the Aave pool/data-provider model
func (p Protocol) IsAaveLike() bool {
	switch p {
	case AaveV2, AaveV3, Spark:
		return true
	case Ajna, MorphoBlue:
		return false
	default:
		return false
	}
}

// SupportsEMode reports protocols with efficiency-mode categories
func (p Protocol) SupportsEMode() bool {
	switch p {
	case AaveV3, Spark:
		return true
	case AaveV2, Ajna, MorphoBlue:
		return false
	default:
		return false
	}
}

// KeyConfig is the protocol family and version used in registries
type KeyConfig struct {
	Protocol string `json:"protocol"`
	Version  string `json:"version,omitempty"`
}

// ResolveKeyConfig maps a protocol to its family and version
func ResolveKeyConfig(p Protocol) (KeyConfig, error) {
	switch p {
	case AaveV2:
		return KeyConfig{Protocol: "aave", Version: "v2"}, nil
	case AaveV3:
		return KeyConfig{Protocol: "aave", Version: "v3"}, nil
	case Spark:
		return KeyConfig{Protocol: "spark"}, nil
	case Ajna:
		return KeyConfig{Protocol: "ajna"}, nil
	case MorphoBlue:
		return KeyConfig{Protocol: "morphoblue"}, nil
	default:
		return KeyConfig{}, fmt.Errorf("%w: %d", ErrUnsupportedProtocol, int(p))
	}
}

// NetworkKey is the key of the protocol's section in a network book
func (p Protocol) NetworkKey() (string, error) {
	switch p {
	case AaveV2:
		return "aaveV2", nil
	case AaveV3:
		return "aaveV3", nil
	case Spark:
		return "spark", nil
	case Ajna:
		return "ajna", nil
	case MorphoBlue:
		return "morphoBlue", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedProtocol, int(p))
	}
}

// OperationPrefix prefixes the protocol's registered operation names
func (p Protocol) OperationPrefix() (string, error) {
	switch p {
	case AaveV2:
		return "AAVEV2", nil
	case AaveV3:
		return "AAVEV3", nil
	case Spark:
		return "Spark", nil
	case Ajna:
		return "Ajna", nil
	case MorphoBlue:
		return "MorphoBlue", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedProtocol, int(p))
	}
}

func (p Protocol) MarshalText() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return []byte(p.String()), nil
}

func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
