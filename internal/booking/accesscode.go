package booking

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// TokenLength is the number of characters in a gate token.
	TokenLength = 9
	// PINLength is the number of digits in a gate PIN.
	PINLength = 4
	pinSpace  = 10000

	defaultCodeAttempts = 10
)

// Codes is a token/PIN pair handed to the customer.
type Codes struct {
	Token string
	PIN   string
}

// CodeIssuer mints access codes that are unique among active bookings.
// Draws happen outside the lock; only the claim on the active sets is
// serialized.
type CodeIssuer struct {
	rand        io.Reader
	maxAttempts int

	mu     sync.Mutex
	tokens map[string]struct{}
	pins   map[string]struct{}
}

// NewCodeIssuer returns an issuer reading from crypto/rand.  maxAttempts
// bounds the random redraws per code; values below 1 use the default.
func NewCodeIssuer(maxAttempts int) *CodeIssuer {
	return NewCodeIssuerWithSource(rand.Reader, maxAttempts)
}

// NewCodeIssuerWithSource is NewCodeIssuer with a caller-supplied random
// source.
func NewCodeIssuerWithSource(src io.Reader, maxAttempts int) *CodeIssuer {
	if maxAttempts < 1 {
		maxAttempts = defaultCodeAttempts
	}
	return &CodeIssuer{
		rand:        src,
		maxAttempts: maxAttempts,
		tokens:      make(map[string]struct{}),
		pins:        make(map[string]struct{}),
	}
}

// Issue draws a fresh token and PIN and marks both active.
func (ci *CodeIssuer) Issue() (Codes, error) {
	token, err := ci.issueToken()
	if err != nil {
		return Codes{}, err
	}
	pin, err := ci.issuePIN()
	if err != nil {
		ci.mu.Lock()
		delete(ci.tokens, token)
		ci.mu.Unlock()
		return Codes{}, err
	}
	return Codes{Token: token, PIN: pin}, nil
}

// Claim marks existing codes active.  It is used when restoring bookings
// from the store and fails if either code is already taken.
func (ci *CodeIssuer) Claim(c Codes) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if _, ok := ci.tokens[c.Token]; ok {
		return fmt.Errorf("token %s already active", c.Token)
	}
	if _, ok := ci.pins[c.PIN]; ok {
		return fmt.Errorf("pin %s already active", c.PIN)
	}
	ci.tokens[c.Token] = struct{}{}
	ci.pins[c.PIN] = struct{}{}
	return nil
}

// Release returns codes to the pool once their booking leaves the active
// set.
func (ci *CodeIssuer) Release(c Codes) {
	ci.mu.Lock()
	delete(ci.tokens, c.Token)
	delete(ci.pins, c.PIN)
	ci.mu.Unlock()
}

// activePINs reports how many PINs are currently held.
func (ci *CodeIssuer) activePINs() int {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return len(ci.pins)
}

func (ci *CodeIssuer) issueToken() (string, error) {
	for i := 0; i < ci.maxAttempts; i++ {
		tok, err := ci.drawToken()
		if err != nil {
			return "", err
		}
		if ci.tryClaim(ci.tokens, tok) {
			return tok, nil
		}
	}
	return "", fmt.Errorf("token: %w", ErrCodeSpaceExhausted)
}

func (ci *CodeIssuer) issuePIN() (string, error) {
	for i := 0; i < ci.maxAttempts; i++ {
		n, err := ci.intn(pinSpace)
		if err != nil {
			return "", err
		}
		if pin := formatPIN(n); ci.tryClaim(ci.pins, pin) {
			return pin, nil
		}
	}
	// The PIN space is small enough to fill up; probe from a random
	// offset before giving up.
	start, err := ci.intn(pinSpace)
	if err != nil {
		return "", err
	}
	ci.mu.Lock()
	defer ci.mu.Unlock()
	for i := 0; i < pinSpace; i++ {
		pin := formatPIN((start + i) % pinSpace)
		if _, taken := ci.pins[pin]; !taken {
			ci.pins[pin] = struct{}{}
			return pin, nil
		}
	}
	return "", fmt.Errorf("pin: %w", ErrCodeSpaceExhausted)
}

func (ci *CodeIssuer) tryClaim(set map[string]struct{}, code string) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if _, taken := set[code]; taken {
		return false
	}
	set[code] = struct{}{}
	return true
}

func (ci *CodeIssuer) drawToken() (string, error) {
	buf := make([]byte, TokenLength)
	for i := range buf {
		n, err := ci.intn(len(tokenAlphabet))
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[n]
	}
	return string(buf), nil
}

func (ci *CodeIssuer) intn(n int) (int, error) {
	v, err := rand.Int(ci.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}

func formatPIN(n int) string { return fmt.Sprintf("%04d", n) }
