// Package authutil hashes and checks the command passcode.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasscodeLen is the shortest passcode HashPasscode accepts.
const MinPasscodeLen = 6

var (
	// ErrShortPasscode is returned by HashPasscode for passcodes under
	// MinPasscodeLen characters.
	ErrShortPasscode = errors.New("passcode too short")
	// ErrNoPasscode is returned by CheckPasscode when no hash is configured.
	ErrNoPasscode = errors.New("command passcode not configured")
)

// HashPasscode returns a bcrypt hash suitable for the passcode_hash setting.
func HashPasscode(passcode string) (string, error) {
	if len([]rune(passcode)) < MinPasscodeLen {
		return "", ErrShortPasscode
	}
	b, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPasscode reports whether passcode matches hash. A wrong passcode is
// (false, nil); a missing or malformed hash is an error.
func CheckPasscode(hash, passcode string) (bool, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false, ErrNoPasscode
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
