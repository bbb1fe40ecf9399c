package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/MichalTraczyk/rc-car/internal/config"
	"github.com/MichalTraczyk/rc-car/internal/control"
	"github.com/MichalTraczyk/rc-car/internal/dispatch"
	"github.com/MichalTraczyk/rc-car/internal/negotiate"
	"github.com/MichalTraczyk/rc-car/internal/rtc"
	"github.com/MichalTraczyk/rc-car/internal/sigclient"
	"github.com/MichalTraczyk/rc-car/internal/ui"
)

// tickInterval is the controlling-context tick: the dispatch queue is drained
// and one control sample is sent per tick.
const tickInterval = 50 * time.Millisecond

var driveCmd = &cobra.Command{
	Use:   "drive [room-code]",
	Short: "Connect to a car and drive it",
	Long: `Drive connects to the signaling relay, joins the given room and
negotiates a direct WebRTC link to the car. Without a room code it shows an
interactive picker over the live car list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomCode := ""
		if len(args) == 1 {
			roomCode = args[0]
		}
		return drive(roomCode)
	},
}

// currentChannel tracks the control channel of whichever transport is live.
type currentChannel struct {
	mu   sync.Mutex
	peer *rtc.Peer
}

func (c *currentChannel) set(p *rtc.Peer) {
	c.mu.Lock()
	c.peer = p
	c.mu.Unlock()
}

func (c *currentChannel) get() *rtc.Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

func (c *currentChannel) Open() bool {
	p := c.get()
	return p != nil && p.Open()
}

func (c *currentChannel) Send(data []byte) error {
	return c.get().Send(data)
}

func drive(roomCode string) error {
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
	stopSpinner()

	disp := dispatch.NewQueue()
	channel := &currentChannel{}

	factory := func(ev negotiate.TransportEvents) (negotiate.Transport, error) {
		peer, err := rtc.NewViewerPeer(rtc.Config{
			STUNServers: cfg.STUNServers,
			Events:      ev,
		})
		if err != nil {
			return nil, err
		}
		channel.set(peer)
		return peer, nil
	}

	negot := negotiate.New(negotiate.RoleViewer, client, factory, disp,
		negotiate.WithStateFunc(func(s negotiate.State, note string) {
			ui.PrintStatus(fmt.Sprintf("%s: %s", s, note))
		}),
	)

	if roomCode == "" {
		code, ok, err := pickRoom(negot, handler)
		if err != nil || !ok {
			return err
		}
		roomCode = code
	}

	if err := negot.StartSession(roomCode); err != nil {
		return err
	}

	driver := control.NewDriver(&control.SweepSampler{}, channel)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case sig, ok := <-handler.Offer:
			if !ok {
				return fmt.Errorf("signaling connection lost")
			}
			negot.HandleOffer(sig.Payload())

		case sig, ok := <-handler.Candidate:
			if !ok {
				return fmt.Errorf("signaling connection lost")
			}
			negot.HandleRemoteCandidate(sig.Payload())

		case <-handler.CarListUpdated:
			// Informational only; an orphaned session just waits until the
			// user cancels.

		case <-handler.Answer:
			// Another controller's answer relayed through the group.

		case <-ticker.C:
			disp.Drain()
			driver.Tick()

			if negot.State() == negotiate.StateFailed {
				return fmt.Errorf("connection to car failed; run drive again to retry")
			}

		case <-interrupt:
			negot.Close()
			ui.PrintSuccessf("Disconnected")
			return nil
		}
	}
}

// pickRoom enters discovery and offers the registry snapshot as an
// interactive list.
func pickRoom(negot *negotiate.Negotiator, handler *sigclient.Handler) (string, bool, error) {
	negot.Discover()

	select {
	case entries := <-handler.CarList:
		entry, ok, err := ui.PickCar(entries)
		if err != nil || !ok {
			return "", false, err
		}
		return entry.RoomCode, true, nil
	case <-time.After(10 * time.Second):
		return "", false, fmt.Errorf("timed out waiting for car list")
	}
}

func init() {
	rootCmd.AddCommand(driveCmd)
}
