// Package main provides the entry point for the job board client.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	profileArg string
)

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board client",
	Long: "jobboard searches resumes and vacancies on a job board API, keeps a signed-in session " +
		"shared across terminals and browser tabs, and serves the browser front end.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&profileArg, "profile", "", "Storage profile to act as (overrides STORAGE_PROFILE)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
