package terminal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers to prompts from an input stream
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter creates a prompter reading from in and writing prompts to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

// ReadLine prints prompt and reads a line of input
func (p *Prompter) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	input, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}

	// Trim whitespace and newline
	return strings.TrimSpace(input), nil
}

// Confirm asks a yes/no question. Only "y" or "yes" confirm; anything
// else, including a read error, declines.
func (p *Prompter) Confirm(question string) bool {
	answer, err := p.ReadLine(fmt.Sprintf("%s%s [y/N]: %s", colorYellow, question, colorReset))
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
