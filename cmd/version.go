package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"boq/internal/config"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version",
	GroupID: "system",
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Print(version)
			return
		}
		fmt.Printf("boq %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		fmt.Printf("server: %s\n", config.GetServerURL())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Output only version string")
}
