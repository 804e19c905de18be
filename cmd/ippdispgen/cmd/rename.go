package cmd

import (
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/ajroetker/ippdispatch/internal/config"
	"github.com/ajroetker/ippdispatch/internal/rename"
)

func init() {
	rootCmd.AddCommand(renameCmd)

	f := renameCmd.Flags()
	f.StringSliceP("function", "f", nil, "function to rename (repeatable or comma separated)")
	f.StringP("functions-file", "F", "", "file listing one function per line")
	f.String("prefix", "", "prefix added to every renamed function")
	f.StringP("output", "o", ".", "output folder")
	f.Bool("check", false, "diff against the file on disk and fail if it differs")
	f.Bool("print", false, "print the header instead of writing it")
	renameCmd.MarkFlagFilename("functions-file")
	renameCmd.MarkFlagDirname("output")
	renameCmd.MarkFlagsMutuallyExclusive("check", "print")
	bindFlags(renameCmd, "rename", map[string]string{
		"function":       "functions",
		"functions-file": "functions-file",
		"prefix":         "prefix",
		"output":         "output",
		"check":          "check",
		"print":          "print",
	})
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Generate " + rename.FileName + " for prefixed functions",
	Example: heredoc.Doc(`
		# Let a custom library coexist with the stock package
		$ ippdispgen rename -f ippsAESInit,ippsAESEncryptCBC --prefix my_
	`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig("rename", config.NeedFunctions|config.NeedPrefix)
		if err != nil {
			return err
		}
		pkg, err := openPackage(c)
		if err != nil {
			return err
		}
		text, err := rename.Header(pkg.Table, c.Functions, rename.Options{
			Package:     pkg.Type,
			Prefix:      c.Prefix,
			DefsInclude: pkg.DefsInclude(),
		})
		if err != nil {
			return err
		}
		return emit([]outFile{{Path: filepath.Join(c.Output, rename.FileName), Content: text}},
			outputMode{Check: c.Check, Print: c.Print})
	},
}
