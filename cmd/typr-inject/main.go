// Command typr-inject is a manual test for virtual-keyboard text injection.
// It waits 3 seconds, then types the given text into the focused window.
// Focus a text editor before the countdown finishes.
//
// Usage:
//
//	go run ./cmd/typr-inject [--text "Hello"] [--delay 2ms]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/typr-dev/typr/internal/output"
)

func main() {
	text := flag.String("text", "Hello from typr! (testing: UPPER, 123, symbols #@%)", "text to inject")
	delay := flag.Duration("delay", 2*time.Millisecond, "delay between keystrokes")
	flag.Parse()

	keyboard, err := output.NewKeyboard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer keyboard.Close()

	fmt.Printf("Will type %q in 3 seconds...\n", *text)
	fmt.Println("Focus a text editor now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	inj := output.NewInjector(keyboard, *delay)
	if err := inj.Inject(context.Background(), *text); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nDone!")
}
