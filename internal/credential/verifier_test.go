package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secretA = strings.Repeat("a", MinSecretLen)
	secretB = strings.Repeat("b", MinSecretLen)
)

func newVerifier(t *testing.T, current string, previous ...string) *Verifier {
	t.Helper()
	v, err := NewVerifier(current, previous...)
	require.NoError(t, err)
	return v
}

func TestNewVerifier_RejectsWeakSecrets(t *testing.T) {
	_, err := NewVerifier("short")
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewVerifier(secretA, "short")
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewVerifier(secretA, "")
	assert.NoError(t, err)
}

func TestVerify_AcceptsIssuedCredential(t *testing.T) {
	v := newVerifier(t, secretA)
	c := v.Issue("p-1", "e-1")

	p, e, err := v.Verify(c)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p)
	assert.Equal(t, "e-1", e)

	// survives the text form too
	decoded, err := Decode(Encode(c))
	require.NoError(t, err)
	_, _, err = v.Verify(decoded)
	require.NoError(t, err)
}

func TestVerify_AnySingleFieldMutationFails(t *testing.T) {
	v := newVerifier(t, secretA)
	c := v.Issue("p-1", "e-1")

	flipped := []byte(c.Checksum)
	if flipped[0] == '0' {
		flipped[0] = '1'
	} else {
		flipped[0] = '0'
	}

	mutations := map[string]Credential{
		"participant": {ParticipantRef: "p-2", EventRef: c.EventRef, Checksum: c.Checksum},
		"event":       {ParticipantRef: c.ParticipantRef, EventRef: "e-2", Checksum: c.Checksum},
		"checksum":    {ParticipantRef: c.ParticipantRef, EventRef: c.EventRef, Checksum: string(flipped)},
		"truncated":   {ParticipantRef: c.ParticipantRef, EventRef: c.EventRef, Checksum: c.Checksum[:32]},
		"not hex":     {ParticipantRef: c.ParticipantRef, EventRef: c.EventRef, Checksum: "xyz"},
	}
	for name, m := range mutations {
		t.Run(name, func(t *testing.T) {
			_, _, err := v.Verify(m)
			require.ErrorIs(t, err, ErrChecksumMismatch)
		})
	}
}

func TestVerify_DifferentSecretFails(t *testing.T) {
	issued := newVerifier(t, secretA).Issue("p-1", "e-1")
	_, _, err := newVerifier(t, secretB).Verify(issued)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVerify_RefBoundariesAreUnambiguous(t *testing.T) {
	v := newVerifier(t, secretA)
	assert.NotEqual(t, v.Sign("ab", "c"), v.Sign("a", "bc"))
}

func TestVerify_AcceptsRetiredSecretDuringRotation(t *testing.T) {
	old := newVerifier(t, secretA).Issue("p-1", "e-1")
	rotated := newVerifier(t, secretB, secretA)

	_, _, err := rotated.Verify(old)
	require.NoError(t, err)

	// new credentials are signed with the current secret only
	assert.NotEqual(t, old.Checksum, rotated.Sign("p-1", "e-1"))
}

func TestSign_Deterministic(t *testing.T) {
	v := newVerifier(t, secretA)
	assert.Equal(t, v.Sign("p", "e"), v.Sign("p", "e"))
	assert.Len(t, v.Sign("p", "e"), 64)
}
