package cmd

import (
	"log/slog"
	"os"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"

	"github.com/libr0/ctc-accounts/ctc/internal/logging"
)

var ledgerFilePath string
var chartFilePath string

var rootCmd = &cobra.Command{
	Use:   "ctc",
	Short: "Import Clubspark bookings and Stripe settlements into the club ledger",
	Long: `ctc reconciles the Clubspark court-booking export and the Stripe
settlement report against the club's plain-text ledger, creating invoices,
payments, refunds and fee postings.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:  rootCmd,
		Headings: cc.HiCyan + cc.Bold + cc.Underline,
		Commands: cc.HiYellow + cc.Bold,
		Example:  cc.Italic,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(logging.Setup)

	rootCmd.PersistentFlags().StringVarP(&ledgerFilePath, "ledger", "f", "ctcaccounts.ledger", "Ledger journal file.")
	rootCmd.PersistentFlags().StringVar(&chartFilePath, "chart", "", "Chart of accounts TOML file (built-in club chart when empty).")
}

// fatal reports an unrecoverable fault and aborts the run. Anything already
// saved to the ledger stays saved.
func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
