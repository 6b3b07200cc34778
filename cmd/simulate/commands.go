package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/summerfi/dma-sdk/pkg/network"
	"github.com/summerfi/dma-sdk/pkg/protocol"
	"github.com/summerfi/dma-sdk/pkg/strategy"
	"github.com/summerfi/dma-sdk/pkg/types"
	"github.com/summerfi/dma-sdk/pkg/version"
)

// positionFlags identify the position every strategy command acts on
type positionFlags struct {
	protocol   string
	collateral string
	debt       string
	proxy      string
	user       string
	slippage   string
}

// position is the parsed form of positionFlags
type position struct {
	protocol   protocol.Protocol
	collateral types.Token
	debt       types.Token
	proxy      common.Address
	user       common.Address
}

func (f *positionFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.protocol, "protocol", "aave-v3", "Lending protocol (aave-v2, aave-v3, spark, ajna, morpho-blue)")
	cmd.PersistentFlags().StringVar(&f.collateral, "collateral", "", "Collateral token symbol")
	cmd.PersistentFlags().StringVar(&f.debt, "debt", "", "Debt token symbol")
	cmd.PersistentFlags().StringVar(&f.proxy, "proxy", "", "Smart account holding the position")
	cmd.PersistentFlags().StringVar(&f.user, "user", "", "Owner of the smart account (defaults to --proxy)")
	cmd.PersistentFlags().StringVar(&f.slippage, "slippage", "", "Swap slippage as a fraction (defaults to DMA_SLIPPAGE)")
}

func (f *positionFlags) parse(n *network.Network) (position, error) {
	var pos position
	var errs []error

	p, err := protocol.Parse(f.protocol)
	if err != nil {
		errs = append(errs, err)
	}
	pos.protocol = p

	if pos.collateral, err = requiredToken(n, "collateral", f.collateral); err != nil {
		errs = append(errs, err)
	}
	if pos.debt, err = requiredToken(n, "debt", f.debt); err != nil {
		errs = append(errs, err)
	}
	if pos.proxy, err = parseAddress("proxy", f.proxy); err != nil {
		errs = append(errs, err)
	}
	pos.user = pos.proxy
	if f.user != "" {
		if pos.user, err = parseAddress("user", f.user); err != nil {
			errs = append(errs, err)
		}
	}
	return pos, errors.Join(errs...)
}

func requiredToken(n *network.Network, flag, symbol string) (types.Token, error) {
	if symbol == "" {
		return types.Token{}, fmt.Errorf("--%s is required", flag)
	}
	return n.Token(symbol)
}

// optionalToken returns nil for an empty symbol
func optionalToken(n *network.Network, symbol string) (*types.Token, error) {
	if symbol == "" {
		return nil, nil
	}
	t, err := n.Token(symbol)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseAddress(flag, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s must be a hex address, got %q", flag, value)
	}
	return common.HexToAddress(value), nil
}

// parseAmount reads a human readable amount of token. Empty means zero.
func parseAmount(token types.Token, flag, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := token.Amount(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", flag, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("--%s: %w: %s", flag, types.ErrInvalidAmount, value)
	}
	return amount, nil
}

// parseTarget reads the target risk from either an LTV or a multiple
func parseTarget(ltv, multiple string) (types.RiskRatio, error) {
	switch {
	case ltv != "" && multiple != "":
		return types.RiskRatio{}, errors.New("use only one of --ltv and --multiple")
	case ltv != "":
		v, err := decimal.NewFromString(ltv)
		if err != nil {
			return types.RiskRatio{}, fmt.Errorf("--ltv: %w", err)
		}
		return types.NewRiskRatio(v), nil
	case multiple != "":
		v, err := decimal.NewFromString(multiple)
		if err != nil {
			return types.RiskRatio{}, fmt.Errorf("--multiple: %w", err)
		}
		return types.NewRiskRatioFromMultiple(v), nil
	default:
		return types.RiskRatio{}, errors.New("one of --ltv or --multiple is required")
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runStrategy sets up the app, runs build and prints the result
func runStrategy(cmd *cobra.Command, pf *positionFlags, build func(context.Context, *app, position, decimal.Decimal) (*strategy.Result, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	pos, err := pf.parse(a.network)
	if err != nil {
		return err
	}
	slippage, err := a.slippage(pf.slippage)
	if err != nil {
		return err
	}

	res, err := build(ctx, a, pos, slippage)
	if err != nil {
		return err
	}
	if len(res.Simulation.Errors) > 0 {
		a.log.Warn().Int("errors", len(res.Simulation.Errors)).Msg("Simulation has validation errors, do not submit")
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

func newRootCommand() *cobra.Command {
	pf := &positionFlags{}
	root := &cobra.Command{
		Use:           "simulate",
		Short:         "Build and simulate lending position operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf.register(root)

	root.AddCommand(
		newDepositBorrowCommand(pf),
		newPaybackWithdrawCommand(pf),
		newOpenCommand(pf),
		newAdjustCommand(pf),
		newCloseCommand(pf),
		newVersionCommand(),
	)
	return root
}

func newDepositBorrowCommand(pf *positionFlags) *cobra.Command {
	var entry, deposit, borrow string
	var receiveNative bool

	cmd := &cobra.Command{
		Use:   "deposit-borrow",
		Short: "Deposit collateral and/or borrow debt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStrategy(cmd, pf, func(ctx context.Context, a *app, pos position, slippage decimal.Decimal) (*strategy.Result, error) {
				entryToken, err := optionalToken(a.network, entry)
				if err != nil {
					return nil, err
				}
				funding := pos.collateral
				if entryToken != nil {
					funding = *entryToken
				}
				depositAmount, err := parseAmount(funding, "deposit", deposit)
				if err != nil {
					return nil, err
				}
				borrowAmount, err := parseAmount(pos.debt, "borrow", borrow)
				if err != nil {
					return nil, err
				}
				return a.engine.DepositBorrow(ctx, strategy.DepositBorrowArgs{
					Protocol:      pos.protocol,
					Collateral:    pos.collateral,
					Debt:          pos.debt,
					EntryToken:    entryToken,
					DepositAmount: depositAmount,
					BorrowAmount:  borrowAmount,
					Slippage:      slippage,
					ReceiveNative: receiveNative,
				}, a.deps(pos.proxy, pos.user))
			})
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "Token funding the deposit (defaults to the collateral)")
	cmd.Flags().StringVar(&deposit, "deposit", "", "Deposit amount in entry token units")
	cmd.Flags().StringVar(&borrow, "borrow", "", "Borrow amount in debt token units")
	cmd.Flags().BoolVar(&receiveNative, "receive-native", false, "Unwrap borrowed wrapped native")
	return cmd
}

func newPaybackWithdrawCommand(pf *positionFlags) *cobra.Command {
	var entry, payback, withdraw string
	var receiveNative bool

	cmd := &cobra.Command{
		Use:   "payback-withdraw",
		Short: "Repay debt and/or withdraw collateral",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStrategy(cmd, pf, func(ctx context.Context, a *app, pos position, _ decimal.Decimal) (*strategy.Result, error) {
				entryToken, err := optionalToken(a.network, entry)
				if err != nil {
					return nil, err
				}
				paybackAmount, err := parseAmount(pos.debt, "payback", payback)
				if err != nil {
					return nil, err
				}
				withdrawAmount, err := parseAmount(pos.collateral, "withdraw", withdraw)
				if err != nil {
					return nil, err
				}
				return a.engine.PaybackWithdraw(ctx, strategy.PaybackWithdrawArgs{
					Protocol:       pos.protocol,
					Collateral:     pos.collateral,
					Debt:           pos.debt,
					EntryToken:     entryToken,
					PaybackAmount:  paybackAmount,
					WithdrawAmount: withdrawAmount,
					ReceiveNative:  receiveNative,
				}, a.deps(pos.proxy, pos.user))
			})
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "Token funding the payback (defaults to the debt)")
	cmd.Flags().StringVar(&payback, "payback", "", "Payback amount in debt token units")
	cmd.Flags().StringVar(&withdraw, "withdraw", "", "Withdraw amount in collateral token units")
	cmd.Flags().BoolVar(&receiveNative, "receive-native", false, "Unwrap withdrawn wrapped native")
	return cmd
}

func newOpenCommand(pf *positionFlags) *cobra.Command {
	var entry, deposit, ltv, multiple, positionType string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a multiplied position at a target risk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStrategy(cmd, pf, func(ctx context.Context, a *app, pos position, slippage decimal.Decimal) (*strategy.Result, error) {
				target, err := parseTarget(ltv, multiple)
				if err != nil {
					return nil, err
				}
				entryToken, err := optionalToken(a.network, entry)
				if err != nil {
					return nil, err
				}
				funding := pos.collateral
				if entryToken != nil {
					funding = *entryToken
				}
				depositAmount, err := parseAmount(funding, "deposit", deposit)
				if err != nil {
					return nil, err
				}
				return a.engine.Open(ctx, strategy.OpenArgs{
					Protocol:      pos.protocol,
					Collateral:    pos.collateral,
					Debt:          pos.debt,
					EntryToken:    entryToken,
					DepositAmount: depositAmount,
					Target:        target,
					Slippage:      slippage,
					PositionType:  positionType,
				}, a.deps(pos.proxy, pos.user))
			})
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "Token funding the position (collateral, gas asset or debt)")
	cmd.Flags().StringVar(&deposit, "deposit", "", "Deposit amount in entry token units")
	cmd.Flags().StringVar(&ltv, "ltv", "", "Target loan to value")
	cmd.Flags().StringVar(&multiple, "multiple", "", "Target multiple")
	cmd.Flags().StringVar(&positionType, "position-type", strategy.DefaultPositionType, "Position type recorded on the operation")
	return cmd
}

func newAdjustCommand(pf *positionFlags) *cobra.Command {
	var ltv, multiple string
	var receiveNative bool

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Move an existing position to a target risk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStrategy(cmd, pf, func(ctx context.Context, a *app, pos position, slippage decimal.Decimal) (*strategy.Result, error) {
				target, err := parseTarget(ltv, multiple)
				if err != nil {
					return nil, err
				}
				return a.engine.Adjust(ctx, strategy.AdjustArgs{
					Protocol:      pos.protocol,
					Collateral:    pos.collateral,
					Debt:          pos.debt,
					Target:        target,
					Slippage:      slippage,
					ReceiveNative: receiveNative,
				}, a.deps(pos.proxy, pos.user))
			})
		},
	}
	cmd.Flags().StringVar(&ltv, "ltv", "", "Target loan to value")
	cmd.Flags().StringVar(&multiple, "multiple", "", "Target multiple")
	cmd.Flags().BoolVar(&receiveNative, "receive-native", false, "Unwrap surplus wrapped native when reducing risk")
	return cmd
}

func newCloseCommand(pf *positionFlags) *cobra.Command {
	var toCollateral, receiveNative bool

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Repay all debt and withdraw all collateral",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStrategy(cmd, pf, func(ctx context.Context, a *app, pos position, slippage decimal.Decimal) (*strategy.Result, error) {
				return a.engine.Close(ctx, strategy.CloseArgs{
					Protocol:      pos.protocol,
					Collateral:    pos.collateral,
					Debt:          pos.debt,
					ToCollateral:  toCollateral,
					Slippage:      slippage,
					ReceiveNative: receiveNative,
				}, a.deps(pos.proxy, pos.user))
			})
		},
	}
	cmd.Flags().BoolVar(&toCollateral, "to-collateral", false, "Return the remaining collateral instead of selling it all")
	cmd.Flags().BoolVar(&receiveNative, "receive-native", false, "Unwrap the returned token when it is wrapped native")
	return cmd
}

func newVersionCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), version.GetBuildInfo())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersionString())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return cmd
}
