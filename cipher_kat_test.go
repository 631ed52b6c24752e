package srtp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// These vectors exercise the wire format directly against known-answer
// outputs, independent of the Session façade: master key/salt in, exact
// protected bytes out.

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

func TestKATAesCmHmacSha1RTP(t *testing.T) {
	masterKey := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	masterSalt := mustHex(t, "101112131415161718191a1b1c1d")

	keys, err := DeriveSessionKeys(ProtectionProfileAes128CmHmacSha1_80, masterKey, masterSalt)
	require.NoError(t, err)

	cipher, err := newAESCMHMACSHA1(keys, 10)
	require.NoError(t, err)

	header := mustHex(t, "800f1234decafbadcafebabe")
	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = 0xab
	}

	protected, err := cipher.encryptRTP(header, payload, 0xcafebabe, 0, 0x1234)
	require.NoError(t, err)

	got := append(append([]byte(nil), header...), protected...)
	want := mustHex(t, "800f1234decafbadcafebabec8f5e0214236e5fde9cbd62d47b0a0914abc4786f3c58a32060f")
	require.Equal(t, want, got)

	plaintext, err := cipher.decryptRTP(header, protected, 0xcafebabe, 0, 0x1234)
	require.NoError(t, err)
	require.Equal(t, payload, plaintext)
}

func TestKATAesCmHmacSha1RTCP(t *testing.T) {
	masterKey := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	masterSalt := mustHex(t, "101112131415161718191a1b1c1d")

	keys, err := DeriveSessionKeys(ProtectionProfileAes128CmHmacSha1_80, masterKey, masterSalt)
	require.NoError(t, err)

	cipher, err := newAESCMHMACSHA1(keys, 10)
	require.NoError(t, err)

	header := mustHex(t, "81c80005cafebabe")
	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = 0xab
	}

	// First outbound SRTCP packet on a fresh stream uses index 1 under the
	// CM profile's pre-increment convention (§4.4, §9).
	protected, err := cipher.encryptRTCP(header, payload, 0xcafebabe, 1)
	require.NoError(t, err)

	got := append(append([]byte(nil), header...), protected...)
	want := mustHex(t, "81c80005cafebabe2dcbd1a0f763810879d398df743f4f7d80000001ddc57f60c3485f92e761")
	require.Equal(t, want, got)

	plaintext, index, err := cipher.decryptRTCP(header, protected, 0xcafebabe)
	require.NoError(t, err)
	require.Equal(t, uint32(1), index)
	require.Equal(t, payload, plaintext)
}

func TestKATAeadAes128GcmRTCP(t *testing.T) {
	masterKey := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	masterSalt := mustHex(t, "a0a1a2a3a4a5a6a7a8a9aaab")

	keys, err := DeriveSessionKeys(ProtectionProfileAeadAes128Gcm, masterKey, masterSalt)
	require.NoError(t, err)

	cipher, err := newAEADAESGCM(keys)
	require.NoError(t, err)

	// Empty Receiver Report: PT=201, RC=0, length=1 (8 bytes total).
	header := mustHex(t, "80c90001cafebabe")

	// First outbound call under the pre-incremented streamState counter
	// (§9) is 1; the GCM wire index on the very first packet is 0. See
	// the DESIGN.md entry for this cipher for why GCM does not observe
	// the CM profile's pre-increment on the wire.
	protected, err := cipher.encryptRTCP(header, nil, 0xcafebabe, 1)
	require.NoError(t, err)

	got := append(append([]byte(nil), header...), protected...)
	want := mustHex(t, "80c90001cafebabeeaecc2c438ea2e58439ea0841a4a2e8d80000000")
	require.Equal(t, want, got)

	plaintext, index, err := cipher.decryptRTCP(header, protected, 0xcafebabe)
	require.NoError(t, err)
	require.Equal(t, uint32(0), index)
	require.Empty(t, plaintext)
}

// TestKATExtensionInAAD is scenario 4 of §8: an RTP packet carrying a
// one-byte-header (0xBEDE) extension must round-trip under GCM, and
// flipping any byte of the extension before decryption must fail
// authentication. The AAD discipline of §4.5 depends on the extension
// being part of what both sides authenticate.
func TestKATExtensionInAAD(t *testing.T) {
	masterKey := make([]byte, 16)
	masterSalt := make([]byte, 12)
	for i := range masterKey {
		masterKey[i] = byte(i)
	}
	for i := range masterSalt {
		masterSalt[i] = byte(i + 0x20)
	}

	keys, err := DeriveSessionKeys(ProtectionProfileAeadAes128Gcm, masterKey, masterSalt)
	require.NoError(t, err)

	cipher, err := newAEADAESGCM(keys)
	require.NoError(t, err)

	// Header with a one-byte-header extension carrying a transport-wide-CC
	// style 2-byte payload under extension id 3.
	header := mustHex(t, "90601234decafbadcafebabebede000131aabb00")
	payload := []byte("payload-bytes-here")

	protected, err := cipher.encryptRTP(header, payload, 0xcafebabe, 0, 0x1234)
	require.NoError(t, err)

	plaintext, err := cipher.decryptRTP(header, protected, 0xcafebabe, 0, 0x1234)
	require.NoError(t, err)
	require.Equal(t, payload, plaintext)

	for i := range header {
		tampered := append([]byte(nil), header...)
		tampered[i] ^= 0x01

		_, err := cipher.decryptRTP(tampered, protected, 0xcafebabe, 0, 0x1234)
		require.ErrorIs(t, err, ErrAuthenticationFailed, "byte %d", i)
	}
}
