package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajroetker/ippdispatch/internal/decl"
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("domain", "", "only list functions of this domain (ipps, ippi_tl, ippcp)")
	listCmd.Flags().Bool("all", false, "include functions without per-CPU code")
	listCmd.Flags().Bool("signatures", false, "print the declaration of every function")
	bindFlags(listCmd, "list", map[string]string{
		"domain":     "domain",
		"all":        "all",
		"signatures": "signatures",
	})
}

var listCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "List the functions declared by the package",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig("list", 0)
		if err != nil {
			return err
		}
		pkg, err := openPackage(c)
		if err != nil {
			return err
		}

		domain := viper.GetString("list.domain")
		all := viper.GetBool("list.all")
		sigs := pkg.Table.Filter(func(s decl.Signature) bool {
			return (all || s.Dispatchable) && (domain == "" || s.Domain == domain)
		})
		if viper.GetBool("list.signatures") {
			for _, s := range sigs {
				fmt.Println(s.Text)
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FUNCTION\tDOMAIN\tHEADER")
		for _, s := range sigs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Domain, s.Header)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		domains := lo.Uniq(lo.Map(sigs, func(s decl.Signature, _ int) string { return s.Domain }))
		fmt.Printf("\n%d functions in %d domains\n", len(sigs), len(domains))
		return nil
	},
}
