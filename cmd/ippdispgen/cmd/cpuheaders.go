package cmd

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/ajroetker/ippdispatch/internal/cpuhdr"
)

func init() {
	rootCmd.AddCommand(cpuHeadersCmd)

	f := cpuHeadersCmd.Flags()
	f.StringSlice("codes", nil, "code paths to generate (default all)")
	f.StringP("output", "o", ".", "output folder")
	f.Bool("check", false, "diff against the files on disk and fail if they differ")
	f.Bool("print", false, "print the headers instead of writing them")
	cpuHeadersCmd.MarkFlagDirname("output")
	cpuHeadersCmd.MarkFlagsMutuallyExclusive("check", "print")
	bindFlags(cpuHeadersCmd, "cpu-headers", map[string]string{
		"codes":  "codes",
		"output": "output",
		"check":  "check",
		"print":  "print",
	})
}

var cpuHeadersCmd = &cobra.Command{
	Use:   "cpu-headers",
	Short: "Generate the per-code-path headers",
	Example: heredoc.Doc(`
		# Headers for the AVX2 and AVX-512 code paths only
		$ ippdispgen cpu-headers --codes l9,k1 -o include
	`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig("cpu-headers", 0)
		if err != nil {
			return err
		}
		pkg, err := openPackage(c)
		if err != nil {
			return err
		}
		headers, err := cpuhdr.GenerateAll(pkg.Table, c.Codes, cpuhdr.Options{Package: pkg.Type})
		if err != nil {
			return err
		}
		var files []outFile
		for _, name := range slices.Sorted(maps.Keys(headers)) {
			files = append(files, outFile{Path: filepath.Join(c.Output, name), Content: headers[name]})
		}
		return emit(files, outputMode{Check: c.Check, Print: c.Print})
	},
}
