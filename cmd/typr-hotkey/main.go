// Command typr-hotkey is a manual test for the evdev combo listener.
// Run it, then press the combo on any keyboard to see transitions.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/typr-hotkey [--combo Meta+Shift+Space]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/typr-dev/typr/internal/hotkey"
)

func main() {
	combo := flag.String("combo", "Meta+Shift+Space", "hotkey combo to listen for")
	flag.Parse()

	spec, err := hotkey.ParseSpec(*combo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Listening for %s on all keyboards...\n", spec)
	fmt.Println("Press Ctrl+C to exit.")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	listener := hotkey.NewListener(spec, "")

	go func() {
		for ev := range listener.Events() {
			switch ev.Type {
			case hotkey.EventActivated:
				fmt.Println(">>> ACTIVATED  (would start recording)")
			case hotkey.EventDeactivated:
				fmt.Println("<<< DEACTIVATED (would stop recording)")
			}
		}
	}()

	if err := listener.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}
