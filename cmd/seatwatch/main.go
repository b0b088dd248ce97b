// Command seatwatch tails a library's live seat availability from
// the terminal.  It authenticates with the access token stored in a
// file, joins the library's room and prints every delta as it
// arrives, keeping a local snapshot of the seat map.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/realtime"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "WebSocket endpoint")
		tokenFile = flag.String("token-file", ".seatwatch-token", "file holding the access token")
		role      = flag.String("role", "STUDENT", "role to join as (STUDENT or OWNER)")
		libraryID = flag.Uint64("library", 0, "library id to watch")
		community = flag.Uint64("community", 0, "optional community id to join")
	)
	flag.Parse()
	if *libraryID == 0 {
		log.Fatal("seatwatch: -library is required")
	}

	client := realtime.New(realtime.Options{
		URL:    *url,
		Role:   *role,
		Tokens: realtime.FileToken(*tokenFile),
		Dialer: &realtime.WebsocketDialer{HandshakeTimeout: 10 * time.Second},
	})
	defer client.Close()

	store := realtime.NewSnapshotStore()

	client.On(realtime.EventConnect, func(realtime.Event) {
		log.Printf("connected, watching library %d", *libraryID)
	})
	client.On(realtime.EventConnectError, func(ev realtime.Event) {
		var p struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		log.Printf("connect error: %s", p.Error)
	})
	client.On(realtime.EventReconnect, func(realtime.Event) {
		log.Printf("reconnected")
	})
	client.On(realtime.EventReconnectFailed, func(realtime.Event) {
		log.Printf("gave up reconnecting: %s", client.LastError())
		os.Exit(1)
	})
	client.On(realtime.EventDisconnect, func(ev realtime.Event) {
		var info realtime.DisconnectInfo
		_ = json.Unmarshal(ev.Data, &info)
		log.Printf("disconnected (%s)", info.Reason)
	})
	client.On(realtime.EventSeatAvailability, func(ev realtime.Event) {
		var d realtime.SeatDelta
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return
		}
		store.ApplyDelta(d)
		available, total := store.Counts()
		log.Printf("seat %d -> %s (%d/%d available)", d.SeatID, d.Status, available, total)
	})
	client.On(realtime.EventLibraryUpdated, func(ev realtime.Event) {
		var u realtime.LibraryUpdate
		if err := json.Unmarshal(ev.Data, &u); err != nil {
			return
		}
		log.Printf("library %d updated: %q %d/%d available", u.LibraryID, u.Name, u.AvailableSeats, u.TotalSeats)
	})
	client.On(realtime.EventMessageNew, func(ev realtime.Event) {
		var m realtime.ChatMessage
		if err := json.Unmarshal(ev.Data, &m); err != nil {
			return
		}
		log.Printf("[community %d] user %d: %s", m.CommunityID, m.UserID, m.Body)
	})

	client.JoinLibrary(*libraryID)
	if *community != 0 {
		client.JoinCommunity(*community)
	}
	if err := client.Connect(); err != nil {
		log.Fatalf("seatwatch: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("shutting down")
}
