package order

import (
	"errors"
	"fmt"

	"github.com/aneebrehman51/komugybynarumii/random"
)

// TokenLength is the length of every issued order token. 32 characters over
// a 62-character alphabet gives ~190 bits of entropy, enough to treat
// possession of the token as ownership of the order.
const TokenLength = 32

// Token is the public, unguessable handle for an order. It is the only
// identifier ever accepted from the client; the internal order id never
// leaves the server.
type Token string

var ErrMalformedToken = errors.New("malformed order token")

// NewToken issues a fresh token. Uniqueness is enforced by the orders table
// constraint, not here.
func NewToken() (Token, error) {
	s, err := random.StringSecure(TokenLength)
	if err != nil {
		return "", fmt.Errorf("generating order token: %w", err)
	}
	return Token(s), nil
}

// ParseToken screens raw client input. A malformed token can never match a
// stored one, so rejecting it early saves a lookup; callers must still
// present the failure to the client exactly as they present a missing order.
func ParseToken(s string) (Token, error) {
	if len(s) != TokenLength || !random.InCharset(s) {
		return "", ErrMalformedToken
	}
	return Token(s), nil
}
