package bootstrap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	// AutoYes answers every question with yes without reading input.
	AutoYes bool
	In      *bufio.Reader
	Out     io.Writer
}

// AskYesNo prints "question [y/N] " and reads one line. Only "y" (any case)
// is a yes; end of input counts as no.
func (p *Prompter) AskYesNo(question string) (bool, error) {
	prompt := fmt.Sprintf("%s [y/N] ", question)
	if p.AutoYes {
		fmt.Fprintln(p.Out, prompt+"y")
		return true, nil
	}
	fmt.Fprint(p.Out, prompt)
	if p.In == nil {
		return false, nil
	}
	line, err := p.In.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y", nil
}
