package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version versão da aplicação, sobrescrita no build via -ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Exibir versão da aplicação",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("cpu-hotplug-manager versão %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
