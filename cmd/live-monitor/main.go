package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"storyhub/pkg/models"
)

func main() {
	addr := flag.String("addr", "ws://127.0.0.1:8080/api/live", "live feed URL")
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad url: %v\n", err)
		os.Exit(1)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", u, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Connected to live feed:", u)
	fmt.Println("Waiting for activity...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var ev models.ActivityEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			fmt.Println(format(ev))
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		<-done
	}
	fmt.Println("Disconnected.")
}

func format(ev models.ActivityEvent) string {
	ts := time.Unix(ev.Timestamp, 0).Format(time.TimeOnly)
	switch {
	case ev.Message != "" && ev.Username != "":
		return fmt.Sprintf("%s [%s] %s: %s", ts, ev.Type, ev.Username, ev.Message)
	case ev.Message != "":
		return fmt.Sprintf("%s [%s] %s", ts, ev.Type, ev.Message)
	default:
		return fmt.Sprintf("%s [%s] story=%d user=%d", ts, ev.Type, ev.StoryID, ev.UserID)
	}
}
