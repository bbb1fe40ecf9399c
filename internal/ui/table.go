package ui

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// RenderCarTable prints the current registry snapshot.
func RenderCarTable(entries []protocol.RegistryEntry) {
	if len(entries) == 0 {
		fmt.Println(MutedStyle.Render("No cars online"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Room Code", "Car ID"})
	for i, entry := range entries {
		t.AppendRow(table.Row{i + 1, entry.RoomCode, entry.SocketID})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
