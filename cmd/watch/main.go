package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"airace/internal/observerproto"
	"airace/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://127.0.0.1:8080/admin/v1/observer/ws", "observer ws url")
		every   = flag.Int("every", 30, "only receive every Nth tick (event ticks are always sent)")
		stayOn  = flag.Bool("stay", false, "keep watching after the race finishes")
		verbose = flag.Bool("v", false, "print agent positions on every received tick")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		EveryTicks:      *every,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	v := &viewer{logger: logger, verbose: *verbose}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		finished, err := v.handle(msg)
		if err != nil {
			logger.Printf("%v", err)
			os.Exit(1)
		}
		if finished && !*stayOn {
			return
		}
	}
}

type viewer struct {
	logger  *log.Logger
	verbose bool

	names  map[string]string
	winner string
}

// handle prints one server message. It reports true once a finished tick has been seen.
func (v *viewer) handle(msg []byte) (bool, error) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return false, nil
	}
	switch base.Type {
	case protocol.TypeError:
		var e protocol.ErrorMsg
		if err := json.Unmarshal(msg, &e); err != nil {
			return false, nil
		}
		return false, fmt.Errorf("server error %s: %s", e.Code, e.Message)

	case observerproto.TypeTick:
		var t observerproto.TickMsg
		if err := json.Unmarshal(msg, &t); err != nil {
			return false, nil
		}
		if v.names == nil {
			v.names = map[string]string{}
		}
		for _, a := range t.Agents {
			v.names[a.ID] = a.Name
			if v.verbose {
				v.logger.Printf("tick=%d %s pos=%.1f,%.1f,%.1f speed=%.1f lap=%d wp=%d", t.Tick, a.Name, a.Pos[0], a.Pos[1], a.Pos[2], a.Speed, a.Lap, a.Waypoint)
			}
		}
		for _, ev := range t.Events {
			name := v.names[ev.AgentID]
			if name == "" {
				name = ev.AgentID
			}
			switch ev.Type {
			case observerproto.EventLap:
				v.logger.Printf("%s %s", name, ev.Text)
			case observerproto.EventFinish:
				v.logger.Printf("%s", ev.Text)
			case observerproto.EventConfigError:
				v.logger.Printf("%s disabled: %s", name, ev.Text)
			}
		}
		if t.Finished {
			if v.winner == "" {
				v.winner = t.Winner
			}
			return true, nil
		}
	}
	return false, nil
}
