package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/gymstack/gymstack/pkg/utils"
)

var (
	rootCmd = &cobra.Command{
		Use:   "tenantd",
		Short: "Gymstack tenant lifecycle manager",
		Long:  `Provisions, migrates and tears down the database/bucket pair backing each gym.`,
	}
)

func main() {
	_ = godotenv.Load()
	utils.LogLevel = zerolog.InfoLevel
	utils.ConfigureLogger()
	if _, err := maxprocs.Set(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
