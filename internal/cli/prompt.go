package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input. Passwords are read
// without echo when stdin is a terminal.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, reader: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.cmd.OutOrStdout(), label)
	s, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) password(label string) (string, error) {
	in, ok := p.cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return p.line(label)
	}
	fmt.Fprint(p.cmd.OutOrStdout(), label)
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(p.cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// confirm asks a yes/no question, defaulting to no
func (p *prompter) confirm(question string) bool {
	answer, err := p.line(question + " [y/N]: ")
	if err != nil {
		return false
	}
	return answer == "y" || answer == "Y"
}

// orPrompt returns value, or asks for it when empty
func (p *prompter) orPrompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return p.line(label)
}
