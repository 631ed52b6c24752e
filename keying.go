package srtp

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"
)

// Key-derivation labels, RFC 3711 §4.3.
const (
	labelSRTPEncryption  byte = 0x00
	labelSRTPAuth        byte = 0x01
	labelSRTPSalt        byte = 0x02
	labelSRTCPEncryption byte = 0x03
	labelSRTCPAuth       byte = 0x04
	labelSRTCPSalt       byte = 0x05
)

const (
	authKeyLen       = 20 // HMAC-SHA1 key length for the CTR profiles
	kdfSaltLen       = 14 // the KDF always operates over a 14-byte salt block
	kdfBlockLen      = 16
	gcmNonceSaltLen  = 12
)

// SessionKeys holds the six values a master (key, salt) pair derives into
// per RFC 3711 §4.3 (§3 data model): three for SRTP, three for SRTCP.
type SessionKeys struct {
	SRTPEncryption  []byte
	SRTPAuth        []byte
	SRTPSalt        []byte
	SRTCPEncryption []byte
	SRTCPAuth       []byte
	SRTCPSalt       []byte
}

// deriveBlock computes one 16-byte AES-ECB output block of the RFC 3711
// PRF: x is the label XORed into the salt (padded right to 16 bytes), with
// the key-derivation index (here always zero) contributing nothing, and
// blockIndex added into the low 32 bits to produce the c-th keystream
// block, equivalent to running AES in counter mode with x as the initial
// counter and a zero-valued plaintext, which is how the teacher's
// single-block special case (blockIndex 0) already worked.
func deriveBlock(masterKey, salt14 []byte, label byte, blockIndex uint32) ([]byte, error) {
	x := make([]byte, kdfBlockLen)
	copy(x, salt14)
	x[7] ^= label

	low := binary.BigEndian.Uint32(x[12:16])
	binary.BigEndian.PutUint32(x[12:16], low+blockIndex)

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	block.Encrypt(x, x)

	return x, nil
}

// deriveKey runs the PRF for as many blocks as needed to produce outLen
// bytes and truncates to length.
func deriveKey(masterKey, salt14 []byte, label byte, outLen int) ([]byte, error) {
	out := make([]byte, 0, ((outLen+kdfBlockLen-1)/kdfBlockLen)*kdfBlockLen)

	for c := uint32(0); len(out) < outLen; c++ {
		blk, err := deriveBlock(masterKey, salt14, label, c)
		if err != nil {
			return nil, err
		}
		out = append(out, blk...)
	}

	return out[:outLen], nil
}

// padSaltTo14 right-pads a 12-byte GCM master salt to the 14 bytes the KDF
// always operates over. This is a deliberate divergence from a literal
// reading of RFC 7714, chosen to match the wire behaviour of widely
// deployed stacks (§4.3, §9): a left-padding implementation will not
// interoperate with the vectors in §8.
func padSaltTo14(salt []byte) []byte {
	if len(salt) == kdfSaltLen {
		return salt
	}

	padded := make([]byte, kdfSaltLen)
	copy(padded, salt)

	return padded
}

// DeriveSessionKeys derives the six session keys for profile from a master
// key and salt (§4.3). The master salt must be the profile's native salt
// length (14 for the CTR profiles, 12 for GCM); GCM callers receive
// 12-byte derived salts, truncated from the KDF's native 14-byte output,
// ready to XOR directly into a GCM nonce.
func DeriveSessionKeys(profile ProtectionProfile, masterKey, masterSalt []byte) (*SessionKeys, error) {
	keyLen, err := profile.keyLen()
	if err != nil {
		return nil, err
	}
	saltLen, err := profile.saltLen()
	if err != nil {
		return nil, err
	}

	if len(masterKey) != keyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidKeyingMaterial, keyLen, len(masterKey))
	}
	if len(masterSalt) != saltLen {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidKeyingMaterial, saltLen, len(masterSalt))
	}

	salt14 := padSaltTo14(masterSalt)

	keys := &SessionKeys{}
	var derr error
	derive := func(label byte, n int) []byte {
		if derr != nil {
			return nil
		}
		k, err := deriveKey(masterKey, salt14, label, n)
		if err != nil {
			derr = err
		}

		return k
	}

	keys.SRTPEncryption = derive(labelSRTPEncryption, keyLen)
	keys.SRTPAuth = derive(labelSRTPAuth, authKeyLen)
	keys.SRTPSalt = derive(labelSRTPSalt, kdfSaltLen)
	keys.SRTCPEncryption = derive(labelSRTCPEncryption, keyLen)
	keys.SRTCPAuth = derive(labelSRTCPAuth, authKeyLen)
	keys.SRTCPSalt = derive(labelSRTCPSalt, kdfSaltLen)
	if derr != nil {
		return nil, derr
	}

	if profile.isGCM() {
		keys.SRTPSalt = keys.SRTPSalt[:gcmNonceSaltLen]
		keys.SRTCPSalt = keys.SRTCPSalt[:gcmNonceSaltLen]
	}

	return keys, nil
}
