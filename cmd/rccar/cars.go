package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MichalTraczyk/rc-car/internal/config"
	"github.com/MichalTraczyk/rc-car/internal/sigclient"
	"github.com/MichalTraczyk/rc-car/internal/ui"
)

var carsCmd = &cobra.Command{
	Use:   "cars",
	Short: "List cars currently registered with the relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCars()
	},
}

func listCars() error {
	cfg := config.Load(config.Options{ServerURL: flagServerURL, STUN: flagSTUN})

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	client := sigclient.NewClient(cfg.ServerURL)
	if err := client.Connect(); err != nil {
		stopSpinner()
		return err
	}
	defer client.Close()

	handler := sigclient.NewHandler(client)
	go handler.Start()

	client.RequestCarList()

	select {
	case entries := <-handler.CarList:
		stopSpinner()
		ui.RenderCarTable(entries)
		return nil
	case <-time.After(10 * time.Second):
		stopSpinner()
		return fmt.Errorf("timed out waiting for car list")
	}
}

func init() {
	rootCmd.AddCommand(carsCmd)
}
