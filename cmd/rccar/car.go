package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/MichalTraczyk/rc-car/internal/config"
	"github.com/MichalTraczyk/rc-car/internal/control"
	"github.com/MichalTraczyk/rc-car/internal/dispatch"
	"github.com/MichalTraczyk/rc-car/internal/negotiate"
	"github.com/MichalTraczyk/rc-car/internal/roomcode"
	"github.com/MichalTraczyk/rc-car/internal/rtc"
	"github.com/MichalTraczyk/rc-car/internal/sigclient"
	"github.com/MichalTraczyk/rc-car/internal/ui"
)

var (
	flagCarCode  string
	flagCarVideo string
)

var carCmd = &cobra.Command{
	Use:   "car",
	Short: "Run a car: publish a room code and serve controllers",
	Long: `Car registers a room code with the relay, waits for a controller to
join, offers a WebRTC connection and applies received driving commands to the
motor. With --video it streams a pre-encoded IVF file as the camera feed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCar()
	},
}

func runCar() error {
	cfg := config.Load(config.Options{ServerURL: flagServerURL, STUN: flagSTUN})

	code := flagCarCode
	if code == "" {
		code = roomcode.Generate()
	}

	var video *rtc.VideoFile
	if flagCarVideo != "" {
		v, err := rtc.NewVideoFile(flagCarVideo)
		if err != nil {
			return err
		}
		video = v
		defer video.Stop()
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	client := sigclient.NewClient(cfg.ServerURL)
	if err := client.Connect(); err != nil {
		stopSpinner()
		return err
	}
	defer client.Close()

	handler := sigclient.NewHandler(client)
	go handler.Start()
	stopSpinner()

	disp := dispatch.NewQueue()
	motor := control.NewLogMotor(slog.Default())

	factory := func(ev negotiate.TransportEvents) (negotiate.Transport, error) {
		peer, err := rtc.NewPublisherPeer(rtc.Config{
			STUNServers: cfg.STUNServers,
			Events:      ev,
			OnControlMessage: func(data []byte) {
				disp.Post(func() {
					sample, err := control.DecodeSample(data)
					if err != nil {
						slog.Error("bad control message", "err", err)
						return
					}
					motor.Apply(sample)
				})
			},
		})
		if err != nil {
			return nil, err
		}
		if video != nil {
			if err := peer.AddTrack(video.Track()); err != nil {
				peer.Close()
				return nil, err
			}
			video.Start()
		}
		return peer, nil
	}

	negot := negotiate.New(negotiate.RolePublisher, client, factory, disp,
		negotiate.WithStateFunc(func(s negotiate.State, note string) {
			ui.PrintStatus(fmt.Sprintf("%s: %s", s, note))
		}),
	)

	if err := negot.StartPublishing(code); err != nil {
		return err
	}
	ui.PrintSuccessf("Car registered with room code %s", code)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case id, ok := <-handler.ControllerJoined:
			if !ok {
				return fmt.Errorf("signaling connection lost")
			}
			negot.HandleControllerJoined(id)

		case sig, ok := <-handler.Answer:
			if !ok {
				return fmt.Errorf("signaling connection lost")
			}
			negot.HandleAnswer(sig.Payload())

		case sig, ok := <-handler.Candidate:
			if !ok {
				return fmt.Errorf("signaling connection lost")
			}
			negot.HandleRemoteCandidate(sig.Payload())

		case <-handler.CarListUpdated:
			// Registry broadcasts reach every connection, including this car's
			// own re-registrations. Nothing to do with them here.

		case <-handler.Offer:
			// Cross-talk from another publisher sharing the room code.

		case <-ticker.C:
			disp.Drain()

			// A failed controller link is not fatal to the car: re-register
			// and wait for the next controller.
			if negot.State() == negotiate.StateFailed {
				ui.PrintStatus("controller lost, waiting for the next one")
				if err := negot.StartPublishing(code); err != nil {
					return err
				}
			}

		case <-interrupt:
			negot.Close()
			ui.PrintSuccessf("Car stopped")
			return nil
		}
	}
}

func init() {
	rootCmd.AddCommand(carCmd)

	carCmd.Flags().StringVarP(&flagCarCode, "code", "c", "", "Room code to register (random if omitted)")
	carCmd.Flags().StringVar(&flagCarVideo, "video", "", "IVF file to stream as the camera feed")
}
