package srtp

// cipherSuite is the per-profile cryptographic variant a Session dispatches
// to: either aesCMHMACSHA1 or aeadAESGCM, chosen once at construction and
// never inspected again outside this package (§9 design note 1: the
// façade's public API stays a plain, non-polymorphic struct; the variant
// is entirely internal).
//
// Every method is handed the serialised header bytes rather than a
// higher-level struct so that whatever the sender actually authenticated
// (extensions included) is exactly what gets fed to the MAC/AEAD. The
// "extension-in-AAD" invariant of §4.1 and §4.5 depends on this.
type cipherSuite interface {
	encryptRTP(headerBytes, payload []byte, ssrc, roc uint32, seq uint16) ([]byte, error)
	decryptRTP(headerBytes, ciphertextAndTag []byte, ssrc, roc uint32, seq uint16) ([]byte, error)

	encryptRTCP(headerBytes, payload []byte, ssrc, index uint32) ([]byte, error)
	decryptRTCP(headerBytes, rest []byte, ssrc uint32) (plaintext []byte, index uint32, err error)

	authTagRTPLen() int
	authTagRTCPLen() int
}

// newCipherSuite dispatches on the protection profile to build the
// concrete cipher variant, pre-deriving session keys through the KDF.
func newCipherSuite(profile ProtectionProfile, masterKey, masterSalt []byte) (cipherSuite, error) {
	keys, err := DeriveSessionKeys(profile, masterKey, masterSalt)
	if err != nil {
		return nil, err
	}

	switch profile {
	case ProtectionProfileAes128CmHmacSha1_80:
		return newAESCMHMACSHA1(keys, 10)
	case ProtectionProfileAes128CmHmacSha1_32:
		return newAESCMHMACSHA1(keys, 4)
	case ProtectionProfileAeadAes128Gcm, ProtectionProfileAeadAes256Gcm:
		return newAEADAESGCM(keys)
	default:
		return nil, ErrInvalidConfiguration
	}
}
