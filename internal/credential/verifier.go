package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// MinSecretLen is the shortest secret accepted by NewVerifier.
const MinSecretLen = 32

var (
	// ErrChecksumMismatch means the credential parsed but was not issued
	// with any secret this process knows: forged or corrupted.
	ErrChecksumMismatch = errors.New("credential: checksum mismatch")
	// ErrWeakSecret is returned by NewVerifier for short or missing secrets.
	ErrWeakSecret = errors.New("credential: secret too short")
)

// Verifier computes and checks keyed digests.  It holds the current secret,
// used for signing, and any retired secrets that are still accepted during
// a rotation.  A Verifier is immutable and safe for concurrent use.
type Verifier struct {
	current  []byte
	previous [][]byte
}

// NewVerifier builds a Verifier from the current secret and optional retired
// ones.  Every secret must be at least MinSecretLen bytes.
func NewVerifier(current string, previous ...string) (*Verifier, error) {
	if len(current) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	v := &Verifier{current: []byte(current)}
	for _, p := range previous {
		if p == "" {
			continue
		}
		if len(p) < MinSecretLen {
			return nil, ErrWeakSecret
		}
		v.previous = append(v.previous, []byte(p))
	}
	return v, nil
}

// Sign returns the hex checksum for (participantRef, eventRef) under the
// current secret.
func (v *Verifier) Sign(participantRef, eventRef string) string {
	return hex.EncodeToString(digest(v.current, participantRef, eventRef))
}

// Issue returns a complete credential for the pair.
func (v *Verifier) Issue(participantRef, eventRef string) Credential {
	return Credential{
		ParticipantRef: participantRef,
		EventRef:       eventRef,
		Checksum:       v.Sign(participantRef, eventRef),
	}
}

// Verify checks that c carries the digest of its own refs under one of the
// known secrets.  It proves issuance only; whether the participant still
// exists and belongs to the event is decided by the caller.
func (v *Verifier) Verify(c Credential) (participantRef, eventRef string, err error) {
	got, err := hex.DecodeString(c.Checksum)
	if err != nil || len(got) != sha256.Size {
		return "", "", ErrChecksumMismatch
	}
	// Every known secret is tried, so timing does not reveal which one matched.
	ok := hmac.Equal(got, digest(v.current, c.ParticipantRef, c.EventRef))
	for _, s := range v.previous {
		if hmac.Equal(got, digest(s, c.ParticipantRef, c.EventRef)) {
			ok = true
		}
	}
	if !ok {
		return "", "", ErrChecksumMismatch
	}
	return c.ParticipantRef, c.EventRef, nil
}

// digest is HMAC-SHA256 over uvarint-length-prefixed refs, so ("ab","c")
// and ("a","bc") never collide.
func digest(secret []byte, participantRef, eventRef string) []byte {
	m := hmac.New(sha256.New, secret)
	var n [binary.MaxVarintLen64]byte
	for _, part := range []string{participantRef, eventRef} {
		l := binary.PutUvarint(n[:], uint64(len(part)))
		m.Write(n[:l])
		m.Write([]byte(part))
	}
	return m.Sum(nil)
}
