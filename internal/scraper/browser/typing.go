package browser

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// Keystroke delay bounds for TypeHuman.
const (
	minKeyDelay = 50 * time.Millisecond
	maxKeyDelay = 150 * time.Millisecond
)

// TypeHuman types text one key at a time with a random pause between
// keystrokes, firing real keydown/keyup events.
func TypeHuman(el *rod.Element, text string) error {
	for _, char := range text {
		if err := el.Type(input.Key(char)); err != nil {
			return err
		}
		time.Sleep(minKeyDelay + time.Duration(rand.Int63n(int64(maxKeyDelay-minKeyDelay))))
	}
	return nil
}

// Fill clears the form field named name and types text into it. With human
// set, keystrokes are paced by TypeHuman.
func Fill(page *rod.Page, name, text string, human bool) error {
	el, err := page.Element(fmt.Sprintf("[name=%q]", name))
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	if err := el.Input(""); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}

	if human {
		return TypeHuman(el, text)
	}

	keys := make([]input.Key, 0, len(text))
	for _, char := range text {
		keys = append(keys, input.Key(char))
	}
	return el.Type(keys...)
}
