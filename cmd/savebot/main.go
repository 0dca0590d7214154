package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "savebot",
		Short: "Chat-to-Google-Drive save bot",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and channel adapters",
		Run: func(_ *cobra.Command, _ []string) {
			runServe()
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
