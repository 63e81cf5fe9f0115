package shared

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/go-ports/vecture/internal/service"
)

// PassphraseEnv names the environment variable consulted for a passphrase.
const PassphraseEnv = "VECTURE_PASSPHRASE"

// ErrNoPassphrase is returned when no passphrase source is available.
var ErrNoPassphrase = errors.New("no passphrase: use --passphrase-file, " + PassphraseEnv + " or run in a terminal")

// stdinFD is swapped in tests.
var stdinFD = func() int { return int(os.Stdin.Fd()) }

// Passphrase returns a lazy passphrase source for opening keys. The prompt,
// if any, is written to prompt.
func Passphrase(file string, prompt io.Writer) service.Passphrase {
	return func() (string, error) { return readPassphrase(file, prompt, false) }
}

// NewPassphrase obtains a passphrase for sealing a new key. An interactive
// prompt asks twice.
func NewPassphrase(file string, prompt io.Writer) (string, error) {
	return readPassphrase(file, prompt, true)
}

func readPassphrase(file string, prompt io.Writer, confirm bool) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read passphrase file: %w", err)
		}
		p := strings.TrimRight(string(data), "\r\n")
		if p == "" {
			return "", fmt.Errorf("passphrase file %s is empty", file)
		}
		return p, nil
	}
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}

	fd := stdinFD()
	if !term.IsTerminal(fd) {
		return "", ErrNoPassphrase
	}
	p, err := ask(fd, prompt, "Passphrase: ")
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", errors.New("empty passphrase")
	}
	if confirm {
		again, err := ask(fd, prompt, "Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if again != p {
			return "", errors.New("passphrases do not match")
		}
	}
	return p, nil
}

func ask(fd int, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(b), nil
}
