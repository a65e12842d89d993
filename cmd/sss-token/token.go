package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/stablecoin_layer/internal/config"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/stablecoin"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

func (a *app) initCommand() *cobra.Command {
	var (
		preset   string
		custom   string
		name     string
		symbol   string
		uri      string
		decimals uint8
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new token and write its state file",
		Example: `  sss-token init --preset sss-1 --name "My USD" --symbol MUSD
  sss-token init --custom token.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.statePath); err == nil && !force {
				return fmt.Errorf("%s already exists: pass --force to replace it", a.statePath)
			}

			var def token.Definition
			if custom != "" {
				loaded, err := config.LoadDefinition(custom)
				if err != nil {
					return err
				}
				def = loaded
			} else if preset == "" {
				return errors.New("either --preset or --custom is required")
			}
			if preset != "" {
				def.Preset = preset
			}
			if name != "" {
				def.Name = name
			}
			if symbol != "" {
				def.Symbol = symbol
			}
			if uri != "" {
				def.URI = uri
			}
			if cmd.Flags().Changed("decimals") {
				def.Decimals = &decimals
			}

			authority := a.v.GetString(keyAuthority)
			if authority == "" {
				generated, err := token.NewMintAddress()
				if err != nil {
					return err
				}
				authority = generated
				a.printer.Warning("No authority configured; generated %s", authority)
			}

			tok, err := stablecoin.Create(cmd.Context(), def, authority, a.options())
			if err != nil {
				return err
			}

			st := tok.Status()
			a.printer.Success("Initialized %s (%s)", st.Name, st.Symbol)
			a.printer.Field("Mint", st.Mint)
			a.printer.Field("Preset", st.Preset)
			a.printer.Field("Decimals", st.Decimals)
			a.printer.Field("Authority", authority)
			a.printer.Field("State", a.statePath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "sss-1 or sss-2")
	f.StringVar(&custom, "custom", "", "token definition file (.json, .toml or .yaml)")
	f.StringVar(&name, "name", "", "token name")
	f.StringVar(&symbol, "symbol", "", "token symbol")
	f.StringVar(&uri, "uri", "", "metadata URI")
	f.Uint8Var(&decimals, "decimals", token.DefaultDecimals, "decimal places")
	f.BoolVar(&force, "force", false, "replace an existing state file")
	return cmd
}

func (a *app) mintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <recipient> <amount>",
		Short: "Mint tokens to a recipient after fiat verification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				spin := a.printer.Spinner("Verifying fiat deposit")
				spin.Start()
				res, err := tok.Mint(ctx, a.actor(tok, roles.Minter), amount, args[0])
				spin.Stop()
				if err != nil {
					return err
				}
				a.printer.Success("Minted %d to %s", res.Amount, res.Address)
				a.printer.Field("Balance", res.NewBalance)
				a.printer.Field("Total supply", res.TotalSupply)
				a.printer.Field("Tx", res.TxID)
				return nil
			})(cmd, args)
		},
	}
}

func (a *app) burnCommand() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "burn <amount>",
		Short: "Burn tokens from an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				actor := a.actor(tok, roles.Burner)
				source := from
				if source == "" {
					source = actor.Address
				}
				res, err := tok.Burn(ctx, actor, amount, source)
				if err != nil {
					return err
				}
				a.printer.Success("Burned %d from %s", res.Amount, res.Address)
				a.printer.Field("Balance", res.NewBalance)
				a.printer.Field("Total supply", res.TotalSupply)
				a.printer.Field("Tx", res.TxID)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "account to burn from (default: the acting address)")
	return cmd
}

func (a *app) pauseCommand(pause bool) *cobra.Command {
	use, short := "pause", "Pause minting"
	if !pause {
		use, short = "unpause", "Resume minting"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
			actor := a.actor(tok, roles.Pauser)
			var (
				tx  string
				err error
			)
			if pause {
				tx, err = tok.Pause(ctx, actor)
			} else {
				tx, err = tok.Unpause(ctx, actor)
			}
			if err != nil {
				return err
			}
			a.printer.Success("Token %sd", use)
			a.printer.Field("Tx", tx)
			return nil
		}),
	}
}

func (a *app) statusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show token configuration and state",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			st := tok.Status()
			if asJSON {
				return a.printer.JSON(st)
			}
			a.printer.Info("%s (%s)", st.Name, st.Symbol)
			a.printer.Field("Mint", st.Mint)
			a.printer.Field("Preset", st.Preset)
			a.printer.Field("Decimals", st.Decimals)
			a.printer.Field("Paused", st.Paused)
			a.printer.Field("Total supply", st.TotalSupply)
			a.printer.Field("Holders", st.Holders)
			a.printer.Field("Compliance", st.ComplianceEnabled)
			a.printer.Field("Permanent delegate", st.PermanentDelegate)
			a.printer.Field("Transfer hook", st.TransferHook)
			a.printer.Field("Default account frozen", st.DefaultAccountFrozen)
			a.printer.Field("Metadata", st.Metadata)
			a.printer.Field("Blacklisted", st.BlacklistCount)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) supplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show the total supply",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			fmt.Fprintln(a.printer.Out, tok.Ledger().TotalSupply())
			return nil
		}),
	}
}

func (a *app) holdersCommand() *cobra.Command {
	var minBalance int64
	cmd := &cobra.Command{
		Use:   "holders",
		Short: "List balances, largest first",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			holders := tok.Ledger().ListHolders(minBalance)
			if len(holders) == 0 {
				a.printer.Info("No holders")
				return nil
			}
			rows := make([][]string, 0, len(holders))
			for _, h := range holders {
				rows = append(rows, []string{h.Address, strconv.FormatInt(h.Balance, 10)})
			}
			a.printer.Table([]string{"ADDRESS", "BALANCE"}, rows)
			return nil
		}),
	}
	cmd.Flags().Int64Var(&minBalance, "min-balance", 0, "only show balances at or above this amount")
	return cmd
}
