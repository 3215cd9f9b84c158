/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"gdelttrends/internal/config"
	"gdelttrends/internal/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gdelttrends",
	Short: "gdelttrends ingests the GDELT GKG feed and serves ranked keyword trends.",
	Long: `gdelttrends fetches GDELT Global Knowledge Graph archives, aggregates
entity mentions into realtime and daily trend documents, scores them against
a trailing baseline, and serves the results over a small JSON API.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.gdelttrends.yaml, then $HOME/.gdelttrends.yaml)")
}

// initConfig loads configuration before any subcommand runs.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading configuration:", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.App.LogLevel)
}
