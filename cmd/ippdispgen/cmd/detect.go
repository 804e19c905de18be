package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/hostcpu"
)

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("detector", "cpuid", "feature probe (cpuid, sys)")
	detectCmd.Flags().StringSliceP("cpu", "d", nil, "CPU levels a dispatcher would choose from (default all)")
	bindFlags(detectCmd, "detect", map[string]string{
		"detector": "detector",
		"cpu":      "cpus",
	})
}

var detectCmd = &cobra.Command{
	Use:           "detect",
	Short:         "Show the host CPU features and the code path a dispatcher would pick",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setup()
		d, err := hostcpu.New(viper.GetString("detect.detector"))
		if err != nil {
			return err
		}
		arch, err := cpu.ParseArch(lo.CoalesceOrEmpty(viper.GetString("arch"), cpu.Intel64.String()))
		if err != nil {
			return err
		}
		cpus := lo.Map(cpu.Priority(), func(v cpu.Variant, _ int) cpu.CPU { return v.CPU })
		if names := viper.GetStringSlice("detect.cpus"); len(names) > 0 {
			cpus = nil
			for _, name := range names {
				c, err := cpu.ParseCPU(name)
				if err != nil {
					return err
				}
				cpus = append(cpus, c)
			}
		}

		features := d.Features()
		fmt.Printf("%s %s\n", colorHeader("CPU:"), hostcpu.Describe())
		fmt.Printf("%s\n", colorHeader("Features:"))
		for _, f := range features.Features() {
			fmt.Printf("  %s\n", f)
		}

		v, ok := hostcpu.Best(features, cpus)
		if !ok {
			fmt.Printf("%s none of %s (the fallback would run)\n", colorStale("Selects:"), cpuList(cpus))
			return nil
		}
		code, _ := v.Code(arch)
		fmt.Printf("%s %s (%s_ on %s)\n", colorWrote("Selects:"), v.CPU, code, arch)
		return nil
	},
}

func cpuList(cpus []cpu.CPU) string {
	return strings.Join(lo.Map(cpus, func(c cpu.CPU, _ int) string { return c.String() }), ", ")
}
