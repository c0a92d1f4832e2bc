package utils

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}

// ReadPassphrase prompts for a password without echoing input.
// Returns an error if stdin is not a terminal.
func ReadPassphrase(prompt string) ([]byte, error) {
	if !IsTerminal() {
		return nil, fmt.Errorf("cannot read password: stdin is not a terminal")
	}

	return readHidden(int(os.Stdin.Fd()), prompt)
}

// ReadPassphraseFromTTY prompts for a password on /dev/tty (or CON on
// Windows). Used when stdin carries other input, such as a piped value.
func ReadPassphraseFromTTY(prompt string) ([]byte, error) {
	path := ttyPath()

	tty, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s for password input: %w", path, err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", path)
	}

	return readHidden(fd, prompt)
}

func readHidden(fd int, prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTTYAvailable returns true if /dev/tty (or CON on Windows) can be read.
func IsTTYAvailable() bool {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false
	}
	defer tty.Close()

	return term.IsTerminal(int(tty.Fd()))
}
