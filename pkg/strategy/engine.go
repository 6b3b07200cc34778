// Package strategy turns a position intent into an executor operation and a
// simulation of the resulting position.
//
// Every strategy runs the same stages in order: resolve the current
// position, resolve protocol data, decide the flashloan, decide the swap,
// assemble calls in registered order, simulate and validate, then encode.
// Validation problems are reported as diagnostics on the simulation and
// never as errors.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/summerfi/dma-sdk/pkg/actions"
	"github.com/summerfi/dma-sdk/pkg/executor"
	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/registry"
	"github.com/summerfi/dma-sdk/pkg/types"
)

var (
	ErrMissingDependency     = errors.New("missing strategy dependency")
	ErrUnsupportedEntryToken = errors.New("unsupported entry token")
	ErrInvalidTarget         = errors.New("invalid target risk")
	ErrNoAdjustment          = errors.New("target risk equals current risk")
	ErrNetworkMismatch       = errors.New("registry and network differ")
)

// DefaultSlippage applies when a strategy is called without slippage
var DefaultSlippage = decimal.RequireFromString("0.005")

// Dependencies are the ports and accounts a strategy call needs
type Dependencies struct {
	Resolver protocol.DataResolver
	// Swapper is only required by strategies that swap
	Swapper protocol.SwapProvider
	// Proxy is the smart account that holds the position
	Proxy common.Address
	// User owns the proxy and funds PullToken steps
	User common.Address
}

func (d Dependencies) validate() error {
	var errs []error
	if d.Resolver == nil {
		errs = append(errs, fmt.Errorf("%w: resolver", ErrMissingDependency))
	}
	if d.Proxy == (common.Address{}) {
		errs = append(errs, fmt.Errorf("%w: proxy address", ErrMissingDependency))
	}
	return errors.Join(errs...)
}

// Delta is the signed change of each balance in base units
type Delta struct {
	Collateral decimal.Decimal `json:"collateral"`
	Debt       decimal.Decimal `json:"debt"`
}

// SwapResult describes the swap included in an operation
type SwapResult struct {
	From        types.Token     `json:"from"`
	To          types.Token     `json:"to"`
	FromAmount  decimal.Decimal `json:"fromAmount"`
	ToAmount    decimal.Decimal `json:"toAmount"`
	MinToAmount decimal.Decimal `json:"minToAmount"`
	// Fee is charged in FeeToken base units
	Fee                   decimal.Decimal `json:"fee"`
	FeeBps                int64           `json:"feeBps"`
	FeeToken              types.Token     `json:"feeToken"`
	CollectFeeInFromToken bool            `json:"collectFeeInFromToken"`
	Source                string          `json:"source,omitempty"`

	calldata       []byte
	receiveAtLeast decimal.Decimal
}

// Flashloan describes the flashloan taken by an operation
type Flashloan struct {
	Token    types.Token               `json:"token"`
	Amount   decimal.Decimal           `json:"amount"`
	Provider network.FlashloanProvider `json:"provider"`
	// TemporaryCollateral is set when the loan is posted as collateral to
	// borrow the debt token before the swap.
	TemporaryCollateral bool `json:"temporaryCollateral"`
}

// Simulation is the projected outcome of an operation
type Simulation struct {
	Position  types.Position `json:"position"`
	Before    types.Position `json:"before"`
	Delta     Delta          `json:"delta"`
	Swap      *SwapResult    `json:"swap,omitempty"`
	Flashloan *Flashloan     `json:"flashloan,omitempty"`
	types.Diagnostics
}

// Result is what every strategy returns. Callers must check
// Simulation.Errors before submitting Tx.
type Result struct {
	Simulation Simulation         `json:"simulation"`
	Tx         types.Transaction  `json:"tx"`
	Operation  executor.Operation `json:"operation"`
}

// Engine runs strategies against one network. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	registry *registry.Registry
	network  *network.Network
	encoder  *executor.Encoder
	executor common.Address
	log      zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithExecutor overrides the operation executor from the network book
func WithExecutor(address common.Address) Option {
	return func(e *Engine) {
		e.executor = address
	}
}

// New creates an engine for the network the registry was built for
func New(reg *registry.Registry, n *network.Network, opts ...Option) (*Engine, error) {
	if reg == nil || n == nil {
		return nil, fmt.Errorf("%w: registry and network are required", ErrMissingDependency)
	}
	if reg.ChainID() != n.ChainID {
		return nil, fmt.Errorf("%w: registry chain %d, network %s chain %d", ErrNetworkMismatch, reg.ChainID(), n.Name, n.ChainID)
	}
	enc, err := executor.NewEncoder()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		registry: reg,
		network:  n,
		encoder:  enc,
		executor: n.OperationExecutor,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("network", n.Name).Logger()
	return e, nil
}

// Network returns the network the engine runs against
func (e *Engine) Network() *network.Network {
	return e.network
}

// currentPosition runs the first stage: nil from the resolver is an error
func (e *Engine) currentPosition(ctx context.Context, deps Dependencies, p protocol.Protocol, collateral, debt types.Token) (types.Position, error) {
	pos, err := deps.Resolver.GetCurrentPosition(ctx, protocol.PositionQuery{
		Protocol:   p,
		Collateral: collateral,
		Debt:       debt,
		Proxy:      deps.Proxy,
	})
	if err != nil {
		return types.Position{}, fmt.Errorf("failed to resolve %s position: %w", p, err)
	}
	if pos == nil {
		return types.Position{}, fmt.Errorf("%w: %s %s/%s for %s", protocol.ErrPositionNotFound, p, collateral, debt, deps.Proxy.Hex())
	}
	return *pos, nil
}

// protocolData runs the second stage. Any missing price fails the call.
func (e *Engine) protocolData(ctx context.Context, deps Dependencies, p protocol.Protocol, collateral, debt types.Token, fl *types.Token) (*protocol.Data, error) {
	q := protocol.DataQuery{
		Protocol:   p,
		Collateral: collateral,
		Debt:       debt,
		Proxy:      deps.Proxy,
	}
	if fl != nil {
		q.Flashloan = *fl
	}
	data, err := deps.Resolver.GetProtocolData(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s protocol data: %w", p, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s returned no data", protocol.ErrProtocolDataUnavailable, p)
	}
	if err := data.Validate(fl != nil); err != nil {
		return nil, err
	}
	return data, nil
}

// reprice applies the freshly resolved price and category to a position
func reprice(pos types.Position, data *protocol.Data) (types.Position, error) {
	price, err := data.OraclePrice()
	if err != nil {
		return types.Position{}, err
	}
	pos = pos.WithPrice(price)
	pos.Category = data.Category()
	return pos, nil
}

// operation runs the last stages shared by every strategy: lay out calls,
// record the simulation delta and encode.
func (e *Engine) operation(plan *actions.Plan, sim Simulation, value decimal.Decimal) (*Result, error) {
	calls, err := plan.Build()
	if err != nil {
		return nil, err
	}
	op := executor.Operation{Name: plan.Definition().Name, Calls: calls}

	sim.Delta = Delta{
		Collateral: sim.Position.Collateral.Amount.Sub(sim.Before.Collateral.Amount),
		Debt:       sim.Position.Debt.Amount.Sub(sim.Before.Debt.Amount),
	}

	var wei *big.Int
	if plan.Has(registry.StepWrapEth) && value.Sign() > 0 {
		wei = value.BigInt()
	}
	tx, err := e.encoder.Encode(op, e.executor, wei)
	if err != nil {
		return nil, err
	}

	e.log.Debug().
		Str("operation", op.Name).
		Int("calls", len(types.PresentCalls(calls))).
		Int("errors", len(sim.Errors)).
		Int("warnings", len(sim.Warnings)).
		Msg("Operation assembled")

	return &Result{Simulation: sim, Tx: tx, Operation: op}, nil
}

func slippageOrDefault(s decimal.Decimal) decimal.Decimal {
	if s.Sign() <= 0 {
		return DefaultSlippage
	}
	return s
}

// entry describes how the user's funds reach the proxy
type entry struct {
	token  types.Token
	native bool
}

// resolveEntry picks the token the user funds the operation with. The gas
// asset is only accepted when target is its wrapped equivalent.
func (e *Engine) resolveEntry(requested *types.Token, target types.Token) (entry, error) {
	if requested == nil || requested.Equal(target) {
		return entry{token: target}, nil
	}
	if requested.IsNative() {
		if !e.network.IsWrappedNative(target) {
			return entry{}, fmt.Errorf("%w: %s can only fund %s positions", ErrUnsupportedEntryToken, requested, e.network.WrappedNative)
		}
		return entry{token: target, native: true}, nil
	}
	return entry{token: *requested}, nil
}

// fund adds the PullToken or WrapEth step moving amount of the entry token
// into the proxy.
func fund(plan *actions.Plan, en entry, user common.Address, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return nil
	}
	if en.native {
		call, err := actions.WrapEth(amount)
		if err != nil {
			return err
		}
		return plan.Add(registry.StepWrapEth, call)
	}
	if user == (common.Address{}) {
		return fmt.Errorf("%w: user address to pull %s from", ErrMissingDependency, en.token)
	}
	call, err := actions.PullToken(en.token.Address, user, amount)
	if err != nil {
		return err
	}
	return plan.Add(registry.StepPullToken, call)
}

// payout adds the UnwrapEth and ReturnFunds steps sending the proxy's
// balance of token back to the user.
func (e *Engine) payout(plan *actions.Plan, step registry.Step, token types.Token, native bool) error {
	asset := token.Address
	if native && e.network.IsWrappedNative(token) && !plan.Has(registry.StepUnwrapEth) {
		call, err := actions.UnwrapAll()
		if err != nil {
			return err
		}
		if err := plan.Add(registry.StepUnwrapEth, call); err != nil {
			return err
		}
		asset = types.NativeAddress
	}
	call, err := actions.ReturnFunds(asset)
	if err != nil {
		return err
	}
	return plan.Add(step, call)
}

// combinedActions reports protocols that deposit and borrow, or repay and
// withdraw, through a single action.
func combinedActions(p protocol.Protocol) (bool, error) {
	switch p {
	case protocol.AaveV2, protocol.AaveV3, protocol.Spark, protocol.MorphoBlue:
		return false, nil
	case protocol.Ajna:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", protocol.ErrUnsupportedProtocol, int(p))
	}
}

func checkAmounts(amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if a.IsNegative() {
			return fmt.Errorf("%w: %s is negative", types.ErrInvalidAmount, a)
		}
	}
	return nil
}

// checkNonEmpty fails before any resolver call when no amount is positive
func checkNonEmpty(intent registry.Intent, amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if a.Sign() > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s with zero amounts", executor.ErrEmptyOperation, intent)
}

// addMapped adds call to step with argument arg read from the output of
// from, when from is set.
func addMapped(plan *actions.Plan, step registry.Step, call actions.Call, arg int, from registry.Step) error {
	if from != "" {
		call = call.MapArg(arg, from)
	}
	return plan.Add(step, call)
}

// Argument positions read from operation storage
const (
	approvalAmountArg = 2
	depositAmountArg  = 1
	swapAmountArg     = 2
)
