package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"airace/internal/observerproto"
	persistlog "airace/internal/persistence/log"
	"airace/internal/sim/world"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "runtime data directory")
		raceID  = flag.String("race", "race_1", "race id")
		raceDir = flag.String("race_dir", "", "race directory containing events/ (overrides -data/-race)")
		ticks   = flag.Bool("ticks", false, "also print every agent state line")
	)
	flag.Parse()

	dir := *raceDir
	if dir == "" {
		dir = filepath.Join(*dataDir, "races", *raceID)
	}

	sum, err := replay(dir, os.Stdout, *ticks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	if sum.Winner == "" {
		fmt.Printf("ticks=%d laps=%d no winner\n", sum.Ticks, sum.Laps)
		os.Exit(3)
	}
	fmt.Printf("ticks=%d laps=%d winner=%s finish_tick=%d\n", sum.Ticks, sum.Laps, sum.Winner, sum.FinishTick)
}

type summary struct {
	Ticks      int
	Laps       int
	Winner     string
	FinishTick uint64
	ConfigErrs int
}

// replay walks every tick log file under dir in order and prints lap and finish events.
func replay(dir string, out io.Writer, verbose bool) (summary, error) {
	var sum summary
	files, err := persistlog.TickFiles(dir)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("no tick logs under %s/events", dir)
	}

	names := map[string]string{}
	var lastTick uint64
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(e world.TickLogEntry) error {
			if sum.Ticks > 0 && e.Tick <= lastTick {
				return fmt.Errorf("%s: tick %d after %d", path, e.Tick, lastTick)
			}
			lastTick = e.Tick
			sum.Ticks++
			for _, a := range e.Agents {
				names[a.ID] = a.Name
				if verbose {
					fmt.Fprintf(out, "tick=%d %s pos=%.2f,%.2f,%.2f speed=%.2f wp=%d lap=%d\n",
						e.Tick, a.Name, a.Pos[0], a.Pos[1], a.Pos[2], a.Speed, a.Waypoint, a.Lap)
				}
			}
			for _, ev := range e.Events {
				name := names[ev.AgentID]
				if name == "" {
					name = ev.AgentID
				}
				switch ev.Type {
				case observerproto.EventLap:
					sum.Laps++
					fmt.Fprintf(out, "tick=%d %s %s\n", e.Tick, name, ev.Text)
				case observerproto.EventFinish:
					fmt.Fprintf(out, "tick=%d %s\n", e.Tick, ev.Text)
				case observerproto.EventConfigError:
					sum.ConfigErrs++
					fmt.Fprintf(out, "tick=%d %s disabled: %s\n", e.Tick, name, ev.Text)
				}
			}
			if e.Finished && sum.Winner == "" {
				sum.Winner = e.Winner
				sum.FinishTick = e.Tick
			}
			return nil
		})
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}
