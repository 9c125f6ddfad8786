// Package credential implements the scannable check-in credential: a compact
// text form of (participant, event, checksum) and the keyed digest that
// proves a credential was issued by this service.
//
// The codec is a pure transform.  It rejects text that does not have the
// credential shape but never judges whether the checksum is right; that is
// the Verifier's job.
package credential

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// version prefixes every credential text so the format can evolve without
// ambiguity.
const version = "EC1"

const sep = "."

// ErrMalformed is returned by Decode when the text does not parse into a
// credential.  Operators see it as "unreadable code".
var ErrMalformed = errors.New("credential: malformed")

var b64 = base64.RawURLEncoding

// Credential is the decoded triple carried by a scannable code.
type Credential struct {
	ParticipantRef string
	EventRef       string
	Checksum       string // lower-case hex
}

// Valid reports whether c can be encoded and decoded back unchanged.
func (c Credential) Valid() bool {
	return c.ParticipantRef != "" && c.EventRef != "" && isHex(c.Checksum)
}

// Encode renders c as a single line of URL-safe text suitable for a QR code.
// Refs are base64url encoded, so any opaque identifier round-trips.
func Encode(c Credential) string {
	return strings.Join([]string{
		version,
		b64.EncodeToString([]byte(c.ParticipantRef)),
		b64.EncodeToString([]byte(c.EventRef)),
		strings.ToLower(c.Checksum),
	}, sep)
}

// Decode parses text produced by Encode.  Leading and trailing whitespace is
// ignored because keyboard-wedge scanners usually append a newline.
func Decode(text string) (Credential, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Credential{}, fmt.Errorf("%w: empty", ErrMalformed)
	}
	parts := strings.Split(text, sep)
	if len(parts) != 4 {
		return Credential{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformed, len(parts))
	}
	if parts[0] != version {
		return Credential{}, fmt.Errorf("%w: unknown version %q", ErrMalformed, parts[0])
	}
	participant, err := decodeRef(parts[1])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: participant: %v", ErrMalformed, err)
	}
	event, err := decodeRef(parts[2])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: event: %v", ErrMalformed, err)
	}
	if !isHex(parts[3]) {
		return Credential{}, fmt.Errorf("%w: checksum is not hex", ErrMalformed)
	}
	return Credential{
		ParticipantRef: participant,
		EventRef:       event,
		Checksum:       strings.ToLower(parts[3]),
	}, nil
}

func decodeRef(s string) (string, error) {
	if s == "" {
		return "", errors.New("empty")
	}
	raw, err := b64.DecodeString(s)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("empty")
	}
	return string(raw), nil
}

func isHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
