package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/cli"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/snapshot"
	"github.com/R3E-Network/stablecoin_layer/internal/stablecoin"
	"github.com/R3E-Network/stablecoin_layer/internal/webhook"
)

// Configuration keys persisted by "configure".
const (
	keyRPCURL          = "rpc_url"
	keyProgramID       = "program_id"
	keyAuthority       = "authority"
	keyFiatVerifyDelay = "fiat_verify_delay"
	keyLogLevel        = "log_level"
)

// errNoToken is returned by every command except init when no state exists.
var errNoToken = errors.New("no token found: run 'sss-token init' first")

type app struct {
	printer   *cli.Printer
	v         *viper.Viper
	cfgFile   string
	statePath string
	verbose   bool
}

func newRootCommand(p *cli.Printer) *cobra.Command {
	a := &app{printer: p, v: viper.New()}

	root := &cobra.Command{
		Use:           "sss-token",
		Short:         "Operate a Solana Stablecoin Standard token",
		Long:          "sss-token mints, burns and polices an SSS-1 or SSS-2 stablecoin whose state lives in a local file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig()
		},
	}
	root.SetOut(p.Out)
	root.SetErr(p.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.sss-token.yaml)")
	flags.StringVar(&a.statePath, "state", snapshot.DefaultFileName, "token state file")
	flags.String("authority", "", "wallet address to act as")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log engine activity to stderr")
	_ = a.v.BindPFlag(keyAuthority, flags.Lookup("authority"))

	root.AddCommand(
		a.configureCommand(),
		a.initCommand(),
		a.mintCommand(),
		a.burnCommand(),
		a.pauseCommand(true),
		a.pauseCommand(false),
		a.freezeCommand(true),
		a.freezeCommand(false),
		a.blacklistCommand(),
		a.seizeCommand(),
		a.statusCommand(),
		a.supplyCommand(),
		a.holdersCommand(),
		a.mintersCommand(),
		a.rolesCommand(),
		a.transferAuthorityCommand(),
		a.auditLogCommand(),
	)
	return root
}

// initConfig reads the config file and SSS_* environment variables.
func (a *app) initConfig() error {
	a.v.SetDefault(keyFiatVerifyDelay, ledger.DefaultVerifyDelay)
	a.v.SetDefault(keyLogLevel, "warn")
	a.v.SetEnvPrefix("SSS")
	a.v.AutomaticEnv()

	path, err := a.configPath()
	if err != nil {
		return err
	}
	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".sss-token.yaml"), nil
}

func (a *app) options() stablecoin.Options {
	log := logging.NewDiscard()
	if a.verbose {
		log = logging.New("sss-token", a.v.GetString(keyLogLevel), os.Stderr)
	}
	opts := stablecoin.Options{
		Store: snapshot.NewFileStore(a.statePath),
		// The state file is the only record between invocations, so a
		// command whose change was not written must fail.
		StrictSave: true,
		Logger:     log,
		Verifier:   ledger.DelayVerifier{Delay: a.v.GetDuration(keyFiatVerifyDelay)},
	}
	if url := webhook.URLFromEnv(); url != "" {
		cfg := webhook.DefaultConfig()
		cfg.URL = url
		// Commands are short-lived; deliver inline instead of through the queue.
		opts.Notifier = syncNotifier{client: webhook.New(cfg, log, nil)}
	}
	return opts
}

// open loads the token from the state file.
func (a *app) open(ctx context.Context) (*stablecoin.Token, error) {
	tok, err := stablecoin.Open(ctx, "", a.options())
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil, errNoToken
	}
	return tok, err
}

// actor is the configured authority, or the current holder of role when none
// is configured.
func (a *app) actor(tok *stablecoin.Token, role roles.Role) roles.Actor {
	if addr := a.v.GetString(keyAuthority); addr != "" {
		return roles.As(addr)
	}
	return tok.HolderOf(role)
}

// withToken runs fn against the stored token.
func (a *app) withToken(fn func(ctx context.Context, tok *stablecoin.Token) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		tok, err := a.open(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd.Context(), tok)
	}
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ledger.ErrInvalidAmount, s)
	}
	return v, nil
}

func (a *app) printEntries(entries []audit.Entry) {
	if len(entries) == 0 {
		a.printer.Info("No audit entries")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Timestamp.Format(time.RFC3339), string(e.Action), e.Details, e.TxID})
	}
	a.printer.Table([]string{"TIME", "ACTION", "DETAILS", "TX"}, rows)
}

type syncNotifier struct {
	client *webhook.Client
}

func (n syncNotifier) SendAlert(title, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = n.client.Deliver(ctx, webhook.Alert{Title: title, Message: message})
}
