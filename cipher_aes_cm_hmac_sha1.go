package srtp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is the profile, not a choice
	"encoding/binary"
	"fmt"
)

// aesCMHMACSHA1 implements the AES-128 Counter-Mode + HMAC-SHA1 profile
// (§4.4): AES-CTR for confidentiality, HMAC-SHA1 truncated to either 80 or
// 32 bits for authentication depending on which of the two CM profiles was
// selected.
type aesCMHMACSHA1 struct {
	srtpBlock  cipher.Block
	srtpSalt   []byte
	srtpAuth   []byte
	srtcpBlock cipher.Block
	srtcpSalt  []byte
	srtcpAuth  []byte
	tagLen     int
}

func newAESCMHMACSHA1(keys *SessionKeys, tagLen int) (*aesCMHMACSHA1, error) {
	srtpBlock, err := aes.NewCipher(keys.SRTPEncryption)
	if err != nil {
		return nil, err
	}
	srtcpBlock, err := aes.NewCipher(keys.SRTCPEncryption)
	if err != nil {
		return nil, err
	}

	return &aesCMHMACSHA1{
		srtpBlock:  srtpBlock,
		srtpSalt:   keys.SRTPSalt,
		srtpAuth:   keys.SRTPAuth,
		srtcpBlock: srtcpBlock,
		srtcpSalt:  keys.SRTCPSalt,
		srtcpAuth:  keys.SRTCPAuth,
		tagLen:     tagLen,
	}, nil
}

func (c *aesCMHMACSHA1) authTagRTPLen() int  { return c.tagLen }
func (c *aesCMHMACSHA1) authTagRTCPLen() int { return c.tagLen }

// generateCounter builds the 16-byte AES-CTR IV of §4.1.1 / RFC 3711
// appendix B.1: ssrc and roc occupy bytes 4-11, the sequence number
// (shifted left 16 bits, so it lands in bytes 12-13 with bytes 14-15 left
// as the intra-packet block counter) occupies bytes 12-15, and the whole
// thing is XORed with the (at most 14-byte) session salt. Bytes 14-15
// never get salted since the salt does not reach that far.
func generateCounter(ssrc, roc uint32, seq uint16, salt []byte) []byte {
	counter := make([]byte, 16)
	binary.BigEndian.PutUint32(counter[4:8], ssrc)
	binary.BigEndian.PutUint32(counter[8:12], roc)
	binary.BigEndian.PutUint32(counter[12:16], uint32(seq)<<16)

	for i := range salt {
		counter[i] ^= salt[i]
	}

	return counter
}

func (c *aesCMHMACSHA1) encryptRTP(headerBytes, payload []byte, ssrc, roc uint32, seq uint16) ([]byte, error) {
	iv := generateCounter(ssrc, roc, seq, c.srtpSalt)
	stream := cipher.NewCTR(c.srtpBlock, iv)

	ciphertext := make([]byte, len(payload))
	stream.XORKeyStream(ciphertext, payload)

	mac := hmac.New(sha1.New, c.srtpAuth)
	mac.Write(headerBytes)
	mac.Write(ciphertext)

	var rocBytes [4]byte
	binary.BigEndian.PutUint32(rocBytes[:], roc)
	mac.Write(rocBytes[:])

	tag := mac.Sum(nil)[:c.tagLen]

	return append(ciphertext, tag...), nil
}

func (c *aesCMHMACSHA1) decryptRTP(headerBytes, ciphertextAndTag []byte, ssrc, roc uint32, seq uint16) ([]byte, error) {
	if len(ciphertextAndTag) < c.tagLen {
		return nil, fmt.Errorf("%w: rtp payload shorter than auth tag", ErrMalformedPacket)
	}

	ciphertext := ciphertextAndTag[:len(ciphertextAndTag)-c.tagLen]
	tag := ciphertextAndTag[len(ciphertextAndTag)-c.tagLen:]

	mac := hmac.New(sha1.New, c.srtpAuth)
	mac.Write(headerBytes)
	mac.Write(ciphertext)
	var rocBytes [4]byte
	binary.BigEndian.PutUint32(rocBytes[:], roc)
	mac.Write(rocBytes[:])

	expected := mac.Sum(nil)[:c.tagLen]
	if !hmac.Equal(expected, tag) {
		return nil, ErrAuthenticationFailed
	}

	iv := generateCounter(ssrc, roc, seq, c.srtpSalt)
	stream := cipher.NewCTR(c.srtpBlock, iv)

	plaintext := make([]byte, len(ciphertext))
	stream.XORKeyStream(plaintext, ciphertext)

	return plaintext, nil
}

// encryptRTCP implements §4.4's SRTCP path: the 31-bit index is folded
// into the IV in place of (roc, seq), the whole packet after the 8-byte
// header is encrypted, and the trailing index word carries the E-flag
// (0x80000000) marking the payload as encrypted.
func (c *aesCMHMACSHA1) encryptRTCP(headerBytes, payload []byte, ssrc, index uint32) ([]byte, error) {
	iv := generateCounter(ssrc, index>>16, uint16(index&0xFFFF), c.srtcpSalt)
	stream := cipher.NewCTR(c.srtcpBlock, iv)

	ciphertext := make([]byte, len(payload))
	stream.XORKeyStream(ciphertext, payload)

	var indexWord [4]byte
	binary.BigEndian.PutUint32(indexWord[:], index|0x80000000)

	mac := hmac.New(sha1.New, c.srtcpAuth)
	mac.Write(headerBytes)
	mac.Write(ciphertext)
	mac.Write(indexWord[:])
	tag := mac.Sum(nil)[:c.tagLen]

	out := make([]byte, 0, len(ciphertext)+4+c.tagLen)
	out = append(out, ciphertext...)
	out = append(out, indexWord[:]...)
	out = append(out, tag...)

	return out, nil
}

func (c *aesCMHMACSHA1) decryptRTCP(headerBytes, rest []byte, ssrc uint32) ([]byte, uint32, error) {
	if len(rest) < 4+c.tagLen {
		return nil, 0, fmt.Errorf("%w: rtcp too short for index+tag", ErrMalformedPacket)
	}

	body := rest[:len(rest)-c.tagLen-4]
	indexWord := rest[len(rest)-c.tagLen-4 : len(rest)-c.tagLen]
	tag := rest[len(rest)-c.tagLen:]

	mac := hmac.New(sha1.New, c.srtcpAuth)
	mac.Write(headerBytes)
	mac.Write(body)
	mac.Write(indexWord)
	expected := mac.Sum(nil)[:c.tagLen]
	if !hmac.Equal(expected, tag) {
		return nil, 0, ErrAuthenticationFailed
	}

	indexValue := binary.BigEndian.Uint32(indexWord)
	eflag := indexValue&0x80000000 != 0
	index := indexValue &^ 0x80000000

	if !eflag {
		return append([]byte(nil), body...), index, nil
	}

	iv := generateCounter(ssrc, index>>16, uint16(index&0xFFFF), c.srtcpSalt)
	stream := cipher.NewCTR(c.srtcpBlock, iv)

	plaintext := make([]byte, len(body))
	stream.XORKeyStream(plaintext, body)

	return plaintext, index, nil
}
