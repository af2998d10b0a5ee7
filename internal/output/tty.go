package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is an interactive terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStdinTTY reports whether stdin is an interactive terminal. Password
// prompting is only offered when this is true.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadPassword prompts for a password on stderr and reads it from stdin
// without echo.
func ReadPassword(prompt string) (string, error) {
	os.Stderr.WriteString(prompt)
	defer os.Stderr.WriteString("\n")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
