package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/stablecoin"
)

func (a *app) freezeCommand(freeze bool) *cobra.Command {
	use, short, done := "freeze", "Freeze an account", "frozen"
	if !freeze {
		use, short, done = "thaw", "Thaw a frozen account", "thawed"
	}
	return &cobra.Command{
		Use:   use + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				actor := a.actor(tok, roles.Pauser)
				run := tok.Freeze
				if !freeze {
					run = tok.Thaw
				}
				res, err := run(ctx, actor, args[0])
				if err != nil {
					return err
				}
				if !res.Changed {
					a.printer.Warning("%s: nothing to %s", res.Address, use)
					return nil
				}
				a.printer.Success("%s: %s", res.Address, done)
				a.printer.Field("Tx", res.TxID)
				return nil
			})(cmd, args)
		},
	}
}

func (a *app) blacklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage the SSS-2 blacklist",
	}

	var reason string
	add := &cobra.Command{
		Use:   "add <address>",
		Short: "Blacklist an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				count, err := tok.BlacklistAdd(ctx, a.actor(tok, roles.Blacklister), args[0], reason)
				if err != nil {
					return err
				}
				a.printer.Success("Blacklisted %s", args[0])
				a.printer.Field("Blacklist size", count)
				return nil
			})(cmd, args)
		},
	}
	add.Flags().StringVar(&reason, "reason", "", "reason recorded with the entry")

	remove := &cobra.Command{
		Use:   "remove <address>",
		Short: "Remove an address from the blacklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				count, err := tok.BlacklistRemove(ctx, a.actor(tok, roles.Blacklister), args[0])
				if err != nil {
					return err
				}
				a.printer.Success("Removed %s from the blacklist", args[0])
				a.printer.Field("Blacklist size", count)
				return nil
			})(cmd, args)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List blacklisted addresses",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			entries := tok.Compliance().List()
			if len(entries) == 0 {
				a.printer.Info("Blacklist is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Address, e.Reason})
			}
			a.printer.Table([]string{"ADDRESS", "REASON"}, rows)
			return nil
		}),
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func (a *app) seizeCommand() *cobra.Command {
	var (
		to     string
		amount float64
	)
	cmd := &cobra.Command{
		Use:   "seize <address>",
		Short: "Seize funds from a blacklisted account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amt *float64
			if cmd.Flags().Changed("amount") {
				amt = &amount
			}
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				res, err := tok.Seize(ctx, a.actor(tok, roles.Seizer), args[0], to, amt)
				if err != nil {
					return err
				}
				a.printer.Success("Seized %d from %s to %s", res.Amount, res.From, res.To)
				a.printer.Field("Tx", res.TxID)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "treasury account receiving the funds")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount to seize (default: the full balance)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) auditLogCommand() *cobra.Command {
	var (
		action         string
		complianceOnly bool
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "audit-log",
		Short: "Show recorded actions, newest first",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			entries := tok.AuditLog(action)
			if complianceOnly {
				entries = tok.ComplianceAuditLog(action)
			}
			if asJSON {
				return a.printer.JSON(entries)
			}
			a.printEntries(entries)
			return nil
		}),
	}
	cmd.Flags().StringVar(&action, "action", "", "only show this action")
	cmd.Flags().BoolVar(&complianceOnly, "compliance", false, "only show compliance actions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
