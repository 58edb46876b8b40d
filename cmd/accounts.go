package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wdiazux/harvest-sheet/config"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the accounts discovered in the environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		env := config.SystemEnvironment()
		prefixes := config.DiscoverPrefixes(env)
		if len(prefixes) == 0 {
			return &config.ConfigError{
				Reason: "no accounts configured; set HARVEST_ACCOUNT_ID or a prefixed variant",
			}
		}

		for _, prefix := range prefixes {
			account, err := config.ResolveAccount(env, prefix)
			if err != nil {
				fmt.Printf("%s: invalid (%v)\n", prefixLabel(prefix), err)
				continue
			}
			target := "no sheet target"
			if account.SheetConfigured() {
				target = fmt.Sprintf("sheet %s tab %q", account.SheetID, account.SheetTab)
			}
			fmt.Printf("%s: account %s, %s\n", prefixLabel(prefix), account.AccountID, target)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}
