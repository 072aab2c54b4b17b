// Command feedserver is a stand-in matrix feed for developing the scope
// without the sequencer, plus a few MIDI checks.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-stepscope/engine"
	"go-stepscope/feed"
	"go-stepscope/midi"
	"go-stepscope/render"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "ports":
		err = listPorts()
	case "leds":
		err = testLEDs()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("feedserver - test feed for go-stepscope")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  serve   - Serve random matrices over websocket")
	fmt.Println("  ports   - List all MIDI ports")
	fmt.Println("  leds    - Light a test pattern on the Launchpad")
}

func logf(format string, args ...any) {
	fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", ":8080", "listen address")
	length := fs.Int("length", engine.DefaultMatrixLength, "matrix length")
	density := fs.Float64("density", 0.3, "probability of a 1 cell")
	every := fs.Float64("every", 8, "seconds between new matrices (0 disables)")
	sweep := fs.Duration("sweep", 250*time.Millisecond, "interval between /wheel values (0 disables)")
	tracks := fs.Int("tracks", 0, "send this track count once at start (0 disables)")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *length <= 0 {
		return errors.Errorf("matrix length %d", *length)
	}

	h := newHub(*length, *density, *seed)
	srv := &http.Server{Addr: *listen, Handler: h}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	go h.drive(ctx, time.Duration(*every*float64(time.Second)), *sweep, *tracks)

	logf("serving %d cells on ws://%s", *length, *listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "listen")
	}
	return nil
}

// drive pushes new matrices and sweeps the wheel until ctx is done
func (h *hub) drive(ctx context.Context, every, sweep time.Duration, tracks int) {
	var matrixC, sweepC <-chan time.Time
	if every > 0 {
		t := time.NewTicker(every)
		defer t.Stop()
		matrixC = t.C
	}
	if sweep > 0 {
		t := time.NewTicker(sweep)
		defer t.Stop()
		sweepC = t.C
	}

	sentTracks := tracks <= 0
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-matrixC:
			data, err := feed.EncodeMatrix(h.shuffle())
			if err != nil {
				logf("encode: %v", err)
				continue
			}
			h.broadcast(data)
			logf("new matrix")
		case <-sweepC:
			// 320..960 is tempo 10..30
			data, _ := feed.EncodeValue(feed.AddrWheel, wheelSweep(i, 320, 960, 40))
			h.broadcast(data)
			if !sentTracks {
				data, _ = feed.EncodeValue(feed.AddrTracks, float64(tracks))
				h.broadcast(data)
				sentTracks = true
			}
		}
	}
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

// testLEDs lights every level the mirror uses, one row each
func testLEDs() error {
	ins, outs, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		return err
	}

	var lp *midi.LaunchpadController
	for _, in := range ins {
		name := in.String()
		if !midi.IsLaunchpad(name) {
			continue
		}
		lp, err = midi.NewLaunchpadController(name, in, midi.MatchingOut(name, outs))
		if err != nil {
			return errors.Wrapf(err, "open %s", name)
		}
		break
	}
	if lp == nil {
		return errors.New("no Launchpad found")
	}
	defer lp.Close()

	colors := [][3]uint8{{255, 0, 0}, {255, 200, 0}, {0, 255, 0}, {0, 200, 200}, {0, 100, 255}}
	var updates []midi.LEDUpdate
	for row := range colors {
		for col := 0; col < render.GridSize; col++ {
			updates = append(updates, midi.LEDUpdate{Row: row, Col: col, Color: colors[row]})
		}
	}
	if err := lp.SetLEDBatch(updates); err != nil {
		return err
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()
	return nil
}
