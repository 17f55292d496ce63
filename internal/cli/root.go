package cli

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/psicash"
	"github.com/dmitrijs2005/psicash/internal/config"
	"github.com/dmitrijs2005/psicash/internal/logging"
	"github.com/spf13/cobra"
)

// RootOptions is the state shared by all subcommands, filled in by the
// root command before any of them runs.
type RootOptions struct {
	Config *config.Config
	Log    logging.Logger
}

// NewRootCommand creates the root psicash command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "psicash",
		Short:         "Inspect and maintain PsiCash client state",
		Long:          "Inspect and maintain the PsiCash client state stored in a data directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Config = cfg
			opts.Log = log
			return nil
		},
	}

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewDiagCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewTokensCommand(opts))
	cmd.AddCommand(NewPurchasesCommand(opts))
	cmd.AddCommand(NewNextExpiringCommand(opts))
	cmd.AddCommand(NewExpireCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewSetMetadataCommand(opts))
	cmd.AddCommand(NewLandingPageCommand(opts))
	cmd.AddCommand(NewActivityDataCommand(opts))

	return cmd
}

// Execute runs the command line args and reports failures through the
// configured output format. It returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format := config.FormatText
	if f, ferr := cmd.PersistentFlags().GetString(config.FlagFormat); ferr == nil && f == config.FormatJSON {
		format = f
	}
	_ = NewOutputFormatter(format, stderr).Error(err)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) && isUsageError(err) {
		return ExitCommandError
	}
	return GetExitCode(err)
}

// isUsageError reports errors produced by cobra itself (unknown command,
// bad flags, wrong arg count) rather than by an operation.
func isUsageError(err error) bool {
	for _, kind := range []error{
		psicash.ErrInvalidArgument, psicash.ErrStorageUnavailable, psicash.ErrStorage,
		psicash.ErrURLParse, psicash.ErrNoValidTokens, psicash.ErrNotInitialized,
	} {
		if errors.Is(err, kind) {
			return false
		}
	}
	return true
}

// withPsiCash opens the data directory, runs fn and closes it again.
func withPsiCash(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error) error {
	ctx := cmd.Context()
	pc := psicash.New(psicash.WithLogger(opts.Log))
	if err := pc.Init(ctx, opts.Config.DataDir, nil); err != nil {
		code := ExitFailure
		if errors.Is(err, psicash.ErrStorageUnavailable) || errors.Is(err, psicash.ErrInvalidArgument) {
			code = ExitCommandError
		}
		return WrapExitError(code, "cannot open data directory", err)
	}
	defer func() {
		if err := pc.Close(); err != nil {
			opts.Log.Warn(ctx, "failed to close datastore", "error", err)
		}
	}()

	return fn(ctx, pc, NewOutputFormatter(opts.Config.Format, cmd.OutOrStdout()))
}
