package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/stablecoin"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

func (a *app) configureCommand() *cobra.Command {
	var rpcURL, programID string
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save the RPC URL, program id and --authority to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("rpc-url") {
				a.v.Set(keyRPCURL, rpcURL)
			}
			if cmd.Flags().Changed("program-id") {
				id, err := token.ParseAddress(programID)
				if err != nil {
					return fmt.Errorf("program id: %w", err)
				}
				a.v.Set(keyProgramID, id)
			}
			if authority := a.v.GetString(keyAuthority); authority != "" {
				addr, err := token.ParseAddress(authority)
				if err != nil {
					return fmt.Errorf("authority: %w", err)
				}
				a.v.Set(keyAuthority, addr)
			}

			path, err := a.configPath()
			if err != nil {
				return err
			}
			if err := a.v.WriteConfigAs(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			a.printer.Success("Saved configuration to %s", path)
			a.printer.Field("RPC URL", a.v.GetString(keyRPCURL))
			a.printer.Field("Program", a.v.GetString(keyProgramID))
			a.printer.Field("Authority", a.v.GetString(keyAuthority))
			return nil
		},
	}
	cmd.Flags().StringVar(&rpcURL, "rpc-url", "", "Solana RPC endpoint")
	cmd.Flags().StringVar(&programID, "program-id", "", "stablecoin program id")
	return cmd
}

func (a *app) mintersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minters",
		Short: "Inspect or change the minter role",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the minter and burner",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			m := tok.Roles().Minters()
			a.printer.Field("Minter", m[0])
			a.printer.Field("Burner", m[1])
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <address>",
		Short: "Give the minter role to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				if _, err := tok.AddMinter(ctx, a.actor(tok, roles.Master), args[0]); err != nil {
					return err
				}
				a.printer.Success("Minter set to %s", args[0])
				return nil
			})(cmd, args)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <address>",
		Short: "Return the minter role to the master",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				if _, err := tok.RemoveMinter(ctx, a.actor(tok, roles.Master), args[0]); err != nil {
					return err
				}
				a.printer.Success("Removed minter %s", args[0])
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func (a *app) rolesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Show every role holder",
		Args:  cobra.NoArgs,
		RunE: a.withToken(func(_ context.Context, tok *stablecoin.Token) error {
			assignments := tok.Roles().Snapshot()
			rows := make([][]string, 0, len(roles.All))
			for _, r := range roles.All {
				rows = append(rows, []string{string(r), assignments.Get(r)})
			}
			a.printer.Table([]string{"ROLE", "HOLDER"}, rows)
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set <role> <address>",
		Short: "Assign a role to an address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := roles.ParseRole(args[0])
			if err != nil {
				return err
			}
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				addr := args[1]
				var u roles.Update
				switch r {
				case roles.Master:
					u.Master = &addr
				case roles.Minter:
					u.Minter = &addr
				case roles.Burner:
					u.Burner = &addr
				case roles.Pauser:
					u.Pauser = &addr
				case roles.Blacklister:
					u.Blacklister = &addr
				case roles.Seizer:
					u.Seizer = &addr
				}
				if _, err := tok.UpdateRoles(ctx, a.actor(tok, roles.Master), u); err != nil {
					return err
				}
				a.printer.Success("%s set to %s", r, addr)
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(set)
	return cmd
}

func (a *app) transferAuthorityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-authority <address>",
		Short: "Hand the master role to another address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withToken(func(ctx context.Context, tok *stablecoin.Token) error {
				tx, err := tok.TransferAuthority(ctx, a.actor(tok, roles.Master), args[0])
				if err != nil {
					return err
				}
				a.printer.Success("Authority transferred to %s", args[0])
				a.printer.Field("Tx", tx)
				return nil
			})(cmd, args)
		},
	}
}
