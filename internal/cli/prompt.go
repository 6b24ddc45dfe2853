package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminal returns in as a file when it is an interactive terminal
func terminal(in io.Reader) (*os.File, bool) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}
	return f, true
}

// readPassword prompts for a password, hiding input when in is a terminal.
// Otherwise it reads one line from in.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := terminal(in); ok {
		return readHiddenPassword(f, out)
	}

	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readHiddenPassword(f *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
