// Copyright 2025 ippdispatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is the ippdispgen command tree.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajroetker/ippdispatch/internal/config"
	"github.com/ajroetker/ippdispatch/internal/pkgscan"
)

var (
	cfgFile string
	// AppVersion is set by main.
	AppVersion string
)

var rootCmd = &cobra.Command{
	Use:   "ippdispgen",
	Short: "Generate CPU dispatchers for custom IPP libraries",
	Long: `ippdispgen reads the headers of an installed package and generates the C
sources that route every public function of a custom library to the
implementation optimized for the running CPU.`,
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	rootCmd.Version = AppVersion
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	log.SetHandler(clihandler.Default)

	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ippdispgen/config.yaml)")
	pf.BoolP("verbose", "V", false, "verbose output")
	pf.Bool("color", false, "colorize output")
	pf.String("root", "", "package root (default is $IPPCRYPTOROOT or $IPPROOT)")
	pf.String("arch", "intel64", "target architecture (intel64, ia32)")
	pf.String("os", "", "target OS (linux, windows; default is the host OS)")
	pf.MarkHidden("color")
	rootCmd.MarkPersistentFlagDirname("root")
	for _, name := range []string{"verbose", "color", "root", "arch", "os"} {
		viper.BindPFlag(name, pf.Lookup(name))
	}
	viper.BindEnv("color", "CLICOLOR")

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(filepath.Join(home, ".config", "ippdispgen"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setup applies the output settings shared by every command.
func setup() {
	if viper.GetBool("verbose") {
		log.SetLevel(log.DebugLevel)
	}
	if viper.GetBool("color") {
		color.NoColor = false
	}
}

// loadConfig resolves the configuration of the command section.
func loadConfig(section string, need config.Requirement) (*config.Config, error) {
	setup()
	return config.Load(viper.GetViper(), section, need)
}

func openPackage(c *config.Config) (*pkgscan.Package, error) {
	pkg, err := (&pkgscan.Loader{Log: log.Log}).Open(c.Root)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"functions": pkg.Table.Len(),
		"skipped":   len(pkg.Skipped),
	}).Infof("Found %s", pkg.Name())
	return pkg, nil
}

// bindFlags binds every named flag of cmd to the viper key <section>.<key>.
func bindFlags(cmd *cobra.Command, section string, keys map[string]string) {
	for flag, key := range keys {
		viper.BindPFlag(section+"."+key, cmd.Flags().Lookup(flag))
	}
}
