package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/ajroetker/ippdispatch/internal/config"
	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/dispatch"
	"github.com/ajroetker/ippdispatch/internal/platform"
	"github.com/ajroetker/ippdispatch/internal/workerpool"
)

func init() {
	rootCmd.AddCommand(dispatcherCmd)

	f := dispatcherCmd.Flags()
	f.StringSliceP("function", "f", nil, "function to dispatch (repeatable or comma separated)")
	f.StringP("functions-file", "F", "", "file listing one function per line")
	f.StringSliceP("cpu", "d", nil, fmt.Sprintf("CPU level to dispatch to (%v)", cpu.CPUNames()))
	f.String("prefix", "", "prefix of the public dispatcher symbols")
	f.String("mode", "dynamic", "dispatcher mode (dynamic, static)")
	f.StringP("output", "o", ".", "output folder")
	f.Bool("split", false, "write one source per function under custom_dispatcher/<arch>/")
	f.Bool("main", false, "also write the library entry source "+platform.MainFileName)
	f.Bool("check", false, "diff against the files on disk and fail if they differ")
	f.Bool("print", false, "print the sources instead of writing them")
	dispatcherCmd.MarkFlagFilename("functions-file")
	dispatcherCmd.MarkFlagDirname("output")
	dispatcherCmd.MarkFlagsMutuallyExclusive("check", "print")
	bindFlags(dispatcherCmd, "dispatcher", map[string]string{
		"function":       "functions",
		"functions-file": "functions-file",
		"cpu":            "cpus",
		"prefix":         "prefix",
		"mode":           "mode",
		"output":         "output",
		"split":          "split",
		"main":           "main",
		"check":          "check",
		"print":          "print",
	})
}

var dispatcherCmd = &cobra.Command{
	Use:     "dispatcher",
	Aliases: []string{"disp"},
	Short:   "Generate the CPU dispatcher source",
	Example: heredoc.Doc(`
		# Dispatch two functions to the AVX2 and AVX-512 code paths
		$ ippdispgen dispatcher -f ippsAESInit,ippsAESEncryptCBC -d avx2 -d avx512bw

		# Static dispatchers renamed with a prefix, one source per function
		$ ippdispgen dispatcher -F functions.txt -d sse42,avx2 --mode static --prefix my_ --split

		# Verify checked-in sources are up to date
		$ ippdispgen dispatcher -F functions.txt -d avx2 -o src --check
	`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig("dispatcher", config.NeedFunctions|config.NeedCPUs)
		if err != nil {
			return err
		}
		pkg, err := openPackage(c)
		if err != nil {
			return err
		}

		pool := workerpool.New(0)
		defer pool.Close()
		gen := &dispatch.Generator{
			Table:   pkg.Table,
			Options: c.DispatchOptions(pkg.Type),
			Pool:    pool,
			Log:     log.Log,
		}

		var res *dispatch.Result
		dir := c.Output
		if c.Split {
			res, err = gen.GenerateSplit(c.Functions)
			dir = filepath.Join(dir, "custom_dispatcher", c.Arch.String())
		} else {
			res, err = gen.Generate(c.Functions)
		}
		if err != nil {
			return err
		}

		files := make([]outFile, 0, len(res.Files)+1)
		for _, f := range res.Files {
			files = append(files, outFile{Path: filepath.Join(dir, f.Name), Content: f.Content})
		}
		if c.Main {
			files = append(files, outFile{
				Path:    filepath.Join(c.Output, platform.MainFileName),
				Content: c.Platform.MainFile(pkg.Type),
			})
		}
		if err := emit(files, outputMode{Check: c.Check, Print: c.Print}); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"mode": c.Mode,
			"cpus": c.CPUs,
		}).Infof("Generated %d of %d dispatchers", len(res.Plans), len(c.Functions))
		if len(res.Failures) > 0 {
			return fmt.Errorf("%d dispatchers failed: %w", len(res.Failures), res.Err())
		}
		return nil
	},
}
