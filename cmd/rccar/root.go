package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MichalTraczyk/rc-car/internal/ui"
)

var (
	flagServerURL string
	flagSTUN      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rccar",
	Short: "Drive RC cars over WebRTC",
	Long: `rccar connects controllers and cars through a room-code signaling
relay and negotiates a direct peer-to-peer link for video and low-latency
driving commands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Signaling server websocket URL")
	rootCmd.PersistentFlags().StringVar(&flagSTUN, "stun", "", "Comma-separated STUN server URLs")
}
