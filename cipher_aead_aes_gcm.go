package srtp

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

const gcmTagLen = 16

// aeadAESGCM implements the AEAD_AES_128_GCM / AEAD_AES_256_GCM profile
// (§4.5, RFC 7714): a single AEAD does both confidentiality and
// authentication, with strict AAD discipline: the complete RTP header
// (extensions included) for SRTP, and the RTCP header concatenated with an
// always-E-flagged index for SRTCP.
type aeadAESGCM struct {
	srtpAEAD  cipher.AEAD
	srtpSalt  []byte
	srtcpAEAD cipher.AEAD
	srtcpSalt []byte
}

func newAEADAESGCM(keys *SessionKeys) (*aeadAESGCM, error) {
	srtpBlock, err := aes.NewCipher(keys.SRTPEncryption)
	if err != nil {
		return nil, err
	}
	srtpAEAD, err := cipher.NewGCM(srtpBlock)
	if err != nil {
		return nil, err
	}

	srtcpBlock, err := aes.NewCipher(keys.SRTCPEncryption)
	if err != nil {
		return nil, err
	}
	srtcpAEAD, err := cipher.NewGCM(srtcpBlock)
	if err != nil {
		return nil, err
	}

	return &aeadAESGCM{
		srtpAEAD:  srtpAEAD,
		srtpSalt:  keys.SRTPSalt,
		srtcpAEAD: srtcpAEAD,
		srtcpSalt: keys.SRTCPSalt,
	}, nil
}

func (c *aeadAESGCM) authTagRTPLen() int  { return gcmTagLen }
func (c *aeadAESGCM) authTagRTCPLen() int { return gcmTagLen }

// srtpNonce builds the 12-byte SRTP GCM nonce: 00 00 || SSRC(4) || ROC(4)
// || SEQ(2), XORed with the 12-byte session salt.
func srtpNonce(ssrc, roc uint32, seq uint16, salt []byte) []byte {
	nonce := make([]byte, 12)
	binary.BigEndian.PutUint32(nonce[2:6], ssrc)
	binary.BigEndian.PutUint32(nonce[6:10], roc)
	binary.BigEndian.PutUint16(nonce[10:12], seq)

	for i := range nonce {
		nonce[i] ^= salt[i]
	}

	return nonce
}

// srtcpNonce builds the 12-byte SRTCP GCM nonce: 00 00 || SSRC(4) || 00 00
// || SRTCP-index(4), XORed with the session salt.
func srtcpNonce(ssrc, index uint32, salt []byte) []byte {
	nonce := make([]byte, 12)
	binary.BigEndian.PutUint32(nonce[2:6], ssrc)
	binary.BigEndian.PutUint32(nonce[8:12], index)

	for i := range nonce {
		nonce[i] ^= salt[i]
	}

	return nonce
}

func (c *aeadAESGCM) encryptRTP(headerBytes, payload []byte, ssrc, roc uint32, seq uint16) ([]byte, error) {
	nonce := srtpNonce(ssrc, roc, seq, c.srtpSalt)

	return c.srtpAEAD.Seal(nil, nonce, payload, headerBytes), nil
}

func (c *aeadAESGCM) decryptRTP(headerBytes, ciphertextAndTag []byte, ssrc, roc uint32, seq uint16) ([]byte, error) {
	if len(ciphertextAndTag) < gcmTagLen {
		return nil, fmt.Errorf("%w: rtp payload shorter than gcm tag", ErrMalformedPacket)
	}

	nonce := srtpNonce(ssrc, roc, seq, c.srtpSalt)

	plaintext, err := c.srtpAEAD.Open(nil, nonce, ciphertextAndTag, headerBytes)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}

// encryptRTCP always encrypts: AEAD_AES_*_GCM has no cleartext-SRTCP mode,
// unlike the CM profiles' optional E-flag. The AAD is the header
// concatenated with the index word, E-flag always set (§4.5).
//
// The caller hands us the same pre-incremented, 1-based counter the CM
// profile uses (first outbound call = 1), but the GCM wire index is
// zero-based on the first packet: unlike the CM profile's trailing index
// word, reference GCM implementations never observe the pre-increment, so
// this cipher takes one off before it ever touches the nonce or AAD.
func (c *aeadAESGCM) encryptRTCP(headerBytes, payload []byte, ssrc, index uint32) ([]byte, error) {
	index--

	nonce := srtcpNonce(ssrc, index, c.srtcpSalt)

	var indexWord [4]byte
	binary.BigEndian.PutUint32(indexWord[:], index|0x80000000)

	aad := append(append([]byte(nil), headerBytes...), indexWord[:]...)
	sealed := c.srtcpAEAD.Seal(nil, nonce, payload, aad)

	return append(sealed, indexWord[:]...), nil
}

func (c *aeadAESGCM) decryptRTCP(headerBytes, rest []byte, ssrc uint32) ([]byte, uint32, error) {
	if len(rest) < 4+gcmTagLen {
		return nil, 0, fmt.Errorf("%w: rtcp too short for index+tag", ErrMalformedPacket)
	}

	ciphertextAndTag := rest[:len(rest)-4]
	indexWord := rest[len(rest)-4:]

	indexValue := binary.BigEndian.Uint32(indexWord)
	index := indexValue &^ 0x80000000

	nonce := srtcpNonce(ssrc, index, c.srtcpSalt)
	aad := append(append([]byte(nil), headerBytes...), indexWord...)

	plaintext, err := c.srtcpAEAD.Open(nil, nonce, ciphertextAndTag, aad)
	if err != nil {
		return nil, 0, ErrAuthenticationFailed
	}

	return plaintext, index, nil
}
