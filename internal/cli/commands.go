package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/psicash"
	"github.com/spf13/cobra"
)

// PurchaseView is the printable form of a purchase.
type PurchaseView struct {
	ID               string     `json:"id"`
	TransactionClass string     `json:"class"`
	Distinguisher    string     `json:"distinguisher"`
	ServerExpiry     *time.Time `json:"serverTimeExpiry,omitempty"`
	LocalExpiry      *time.Time `json:"localTimeExpiry,omitempty"`
	HasAuthorization bool       `json:"hasAuthorization"`
}

func viewPurchases(ps []psicash.Purchase) []PurchaseView {
	out := make([]PurchaseView, 0, len(ps))
	for _, p := range ps {
		out = append(out, PurchaseView{
			ID:               p.ID,
			TransactionClass: p.TransactionClass,
			Distinguisher:    p.Distinguisher,
			ServerExpiry:     p.ServerExpiry,
			LocalExpiry:      p.LocalExpiry,
			HasAuthorization: p.Authorization != nil,
		})
	}
	return out
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func printPurchases(w io.Writer, ps []PurchaseView) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "no purchases")
		return
	}
	for _, p := range ps {
		fmt.Fprintf(w, "%s\t%s\t%s\tserver=%s\tlocal=%s\n",
			p.ID, p.TransactionClass, p.Distinguisher,
			formatExpiry(p.ServerExpiry), formatExpiry(p.LocalExpiry))
	}
}

// NewDiagCommand creates the diag command.
func NewDiagCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Print the redacted diagnostic summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				info, err := pc.Diagnostics()
				if err != nil {
					return err
				}
				return out.Success(info, func(w io.Writer) {
					s, _ := info.JSON()
					fmt.Fprintln(w, s)
				})
			})
		},
	}
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the stored balance and account status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				balance, err := pc.Balance()
				if err != nil {
					return err
				}
				isAccount, err := pc.IsAccount()
				if err != nil {
					return err
				}
				data := map[string]any{"balance": balance, "isAccount": isAccount}
				return out.Success(data, func(w io.Writer) {
					fmt.Fprintf(w, "balance: %d\naccount: %t\n", balance, isAccount)
				})
			})
		},
	}
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List the valid token types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				types, err := pc.ValidTokenTypes()
				if err != nil {
					return err
				}
				return out.Success(types, func(w io.Writer) {
					if len(types) == 0 {
						fmt.Fprintln(w, "no valid tokens")
						return
					}
					fmt.Fprintln(w, strings.Join(types, "\n"))
				})
			})
		},
	}
}

// NewPurchasesCommand creates the purchases command.
func NewPurchasesCommand(opts *RootOptions) *cobra.Command {
	var validOnly bool
	var classes []string

	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "List owned purchases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				var (
					ps  []psicash.Purchase
					err error
				)
				switch {
				case validOnly:
					ps, err = pc.ValidPurchases()
				case len(classes) > 0:
					ps, err = pc.PurchasesByClass(classes...)
				default:
					ps, err = pc.GetPurchases()
				}
				if err != nil {
					return err
				}
				views := viewPurchases(ps)
				return out.Success(views, func(w io.Writer) { printPurchases(w, views) })
			})
		},
	}

	cmd.Flags().BoolVar(&validOnly, "valid", false, "only list purchases that have not expired")
	cmd.Flags().StringSliceVar(&classes, "class", nil, "only list purchases of these transaction classes")
	cmd.MarkFlagsMutuallyExclusive("valid", "class")

	return cmd
}

// NewNextExpiringCommand creates the next-expiring command.
func NewNextExpiringCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next-expiring",
		Short: "Print the purchase that expires first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				p, ok, err := pc.NextExpiringPurchase()
				if err != nil {
					return err
				}
				if !ok {
					return out.Success(nil, func(w io.Writer) { fmt.Fprintln(w, "no expiring purchases") })
				}
				views := viewPurchases([]psicash.Purchase{p})
				return out.Success(views[0], func(w io.Writer) { printPurchases(w, views) })
			})
		},
	}
}

// NewExpireCommand creates the expire command.
func NewExpireCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Remove expired purchases and list them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				expired, err := pc.ExpirePurchases(ctx)
				if err != nil {
					return err
				}
				views := viewPurchases(expired)
				return out.Success(views, func(w io.Writer) { printPurchases(w, views) })
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove purchases by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				if err := pc.RemovePurchases(ctx, args); err != nil {
					return err
				}
				remaining, err := pc.GetPurchases()
				if err != nil {
					return err
				}
				views := viewPurchases(remaining)
				return out.Success(views, func(w io.Writer) { printPurchases(w, views) })
			})
		},
	}
}

// NewSetMetadataCommand creates the set-metadata command.
func NewSetMetadataCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-metadata <key> <value>",
		Short: "Set a request metadata item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				if err := pc.SetRequestMetadataItem(ctx, args[0], args[1]); err != nil {
					return err
				}
				data := map[string]string{args[0]: args[1]}
				return out.Success(data, func(w io.Writer) { fmt.Fprintf(w, "%s=%s\n", args[0], args[1]) })
			})
		},
	}
}

// NewLandingPageCommand creates the landing-page command.
func NewLandingPageCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "landing-page <url>",
		Short: "Attach the reward context to a landing page URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				u, err := pc.ModifyLandingPage(args[0])
				if err != nil {
					return err
				}
				return out.Success(u, nil)
			})
		},
	}
}

// NewActivityDataCommand creates the activity-data command.
func NewActivityDataCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activity-data",
		Short: "Print the base64 reward context for a rewarded activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPsiCash(cmd, opts, func(ctx context.Context, pc *psicash.PsiCash, out *OutputFormatter) error {
				data, err := pc.GetRewardedActivityData()
				if err != nil {
					return err
				}
				return out.Success(data, nil)
			})
		},
	}
}
