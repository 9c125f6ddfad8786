package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []Credential{
		{ParticipantRef: "p-1", EventRef: "e-1", Checksum: "00ff"},
		{ParticipantRef: "3f2b8c1e-0d5a-4b8e-9c1a-7e6d5c4b3a21", EventRef: "42", Checksum: strings.Repeat("ab", 32)},
		{ParticipantRef: "a.b.c", EventRef: "x|y:z", Checksum: "deadbeef"},
		{ParticipantRef: "Łukasz 🎫", EventRef: " spaced ", Checksum: "0102"},
	}
	for _, c := range cases {
		text := Encode(c)
		got, err := Decode(text)
		require.NoError(t, err, text)
		assert.Equal(t, c, got)
		assert.True(t, got.Valid())
	}
}

func TestEncode_NormalizesChecksumCase(t *testing.T) {
	c := Credential{ParticipantRef: "p", EventRef: "e", Checksum: "ABCD"}
	got, err := Decode(Encode(c))
	require.NoError(t, err)
	assert.Equal(t, "abcd", got.Checksum)
}

func TestDecode_TrimsScannerWhitespace(t *testing.T) {
	c := Credential{ParticipantRef: "p", EventRef: "e", Checksum: "abcd"}
	got, err := Decode("  " + Encode(c) + "\r\n")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecode_Malformed(t *testing.T) {
	valid := Encode(Credential{ParticipantRef: "p", EventRef: "e", Checksum: "abcd"})
	parts := strings.Split(valid, ".")

	cases := map[string]string{
		"empty":             "",
		"whitespace":        "   ",
		"too few fields":    strings.Join(parts[:3], "."),
		"too many fields":   valid + ".ff",
		"wrong version":     "EC9." + strings.Join(parts[1:], "."),
		"bad base64":        strings.Join([]string{parts[0], "!!", parts[2], parts[3]}, "."),
		"empty participant": strings.Join([]string{parts[0], "", parts[2], parts[3]}, "."),
		"empty event":       strings.Join([]string{parts[0], parts[1], "", parts[3]}, "."),
		"empty checksum":    strings.Join([]string{parts[0], parts[1], parts[2], ""}, "."),
		"non-hex checksum":  strings.Join([]string{parts[0], parts[1], parts[2], "zz"}, "."),
		"odd hex checksum":  strings.Join([]string{parts[0], parts[1], parts[2], "abc"}, "."),
		"free text":         "hello world",
		"json":              `{"participantId":"p","eventId":"e","checksum":"abcd"}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(text)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}
