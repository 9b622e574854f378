package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// promptPassword is swapped out in tests.
var promptPassword = readPasswordFromTerminal

func readPasswordFromTerminal(prompt string) (string, error) {
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return "", errors.New("stdin is not a terminal")
	}

	fmt.Print(prompt)
	password, err := term.ReadPassword(stdinFd)
	fmt.Println()
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(password), nil
}
