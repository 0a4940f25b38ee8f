package components

import (
	"fmt"

	"github.com/lxc/incus/v6/shared/ask"
)

// Prompter asks the user for confirmation.
type Prompter interface {
	Confirm(question string, defaultYes bool) (bool, error)
}

// AskPrompter asks on the terminal.
type AskPrompter struct {
	Asker ask.Asker
}

// Confirm asks question and returns the answer.
func (p AskPrompter) Confirm(question string, defaultYes bool) (bool, error) {
	def := "no"
	choices := "[y/N]"

	if defaultYes {
		def = "yes"
		choices = "[Y/n]"
	}

	return p.Asker.AskBool(fmt.Sprintf("%s %s: ", question, choices), def)
}

// AutoPrompter answers every question with a fixed value.
type AutoPrompter bool

// Confirm returns the fixed answer.
func (p AutoPrompter) Confirm(_ string, _ bool) (bool, error) {
	return bool(p), nil
}
