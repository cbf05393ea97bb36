// terminal_keys.go - Raw-terminal keyboard play for the CLI
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// keyToNote maps the home row (plus the sharps row above) to one chromatic
// octave starting at middle C, tracker style.
var keyToNote = map[byte]uint8{
	'a': 60, 'w': 61, 's': 62, 'e': 63, 'd': 64,
	'f': 65, 't': 66, 'g': 67, 'y': 68, 'h': 69,
	'u': 70, 'j': 71, 'k': 72,
}

// RunKeyboardPlayer puts the terminal in raw mode and auditions notes from
// keypresses until q, Escape or Ctrl-C. Monophonic: a new key releases the
// previous note.
func RunKeyboardPlayer(engine *SamplerEngine) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("keyboard player: failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("keys a..k play C4 to C5 (w e t y u for sharps), q quits\r\n")

	held := uint8(0)
	heldActive := false
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		switch b := buf[0]; {
		case b == 'q' || b == 3 || b == 27:
			if heldActive {
				engine.NoteOff(held, 0)
			}
			return nil
		default:
			note, ok := keyToNote[b]
			if !ok {
				continue
			}
			if heldActive {
				engine.NoteOff(held, 0)
			}
			engine.NoteOn(note, 100)
			held = note
			heldActive = true
		}
	}
}
