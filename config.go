package srtp

import (
	"fmt"

	"github.com/pion/logging"
)

// ProtectionProfile identifies which cipher suite a session protects
// packets with (§6).
type ProtectionProfile int

// Recognised protection profiles.
const (
	ProtectionProfileAes128CmHmacSha1_80 ProtectionProfile = iota
	ProtectionProfileAes128CmHmacSha1_32
	ProtectionProfileAeadAes128Gcm
	ProtectionProfileAeadAes256Gcm
)

func (p ProtectionProfile) String() string {
	switch p {
	case ProtectionProfileAes128CmHmacSha1_80:
		return "AES128_CM_HMAC_SHA1_80"
	case ProtectionProfileAes128CmHmacSha1_32:
		return "AES128_CM_HMAC_SHA1_32"
	case ProtectionProfileAeadAes128Gcm:
		return "AEAD_AES_128_GCM"
	case ProtectionProfileAeadAes256Gcm:
		return "AEAD_AES_256_GCM"
	default:
		return "unknown"
	}
}

func (p ProtectionProfile) isGCM() bool {
	return p == ProtectionProfileAeadAes128Gcm || p == ProtectionProfileAeadAes256Gcm
}

// keyLen returns the encryption key length for the profile, in bytes.
func (p ProtectionProfile) keyLen() (int, error) {
	switch p {
	case ProtectionProfileAes128CmHmacSha1_80, ProtectionProfileAes128CmHmacSha1_32, ProtectionProfileAeadAes128Gcm:
		return 16, nil
	case ProtectionProfileAeadAes256Gcm:
		return 32, nil
	default:
		return 0, fmt.Errorf("%w: unknown profile %v", ErrInvalidConfiguration, p)
	}
}

// saltLen returns the master/session salt length for the profile, in
// bytes: 14 for the CTR profiles, 12 for GCM.
func (p ProtectionProfile) saltLen() (int, error) {
	switch p {
	case ProtectionProfileAes128CmHmacSha1_80, ProtectionProfileAes128CmHmacSha1_32:
		return 14, nil
	case ProtectionProfileAeadAes128Gcm, ProtectionProfileAeadAes256Gcm:
		return 12, nil
	default:
		return 0, fmt.Errorf("%w: unknown profile %v", ErrInvalidConfiguration, p)
	}
}

// authTagLen returns the length, in bytes, of the trailing authentication
// tag this profile appends to every protected packet.
func (p ProtectionProfile) authTagLen() (int, error) {
	switch p {
	case ProtectionProfileAes128CmHmacSha1_80:
		return 10, nil
	case ProtectionProfileAes128CmHmacSha1_32:
		return 4, nil
	case ProtectionProfileAeadAes128Gcm, ProtectionProfileAeadAes256Gcm:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: unknown profile %v", ErrInvalidConfiguration, p)
	}
}

// Role identifies which side of the DTLS handshake a session is acting as,
// which determines how exported keying material is split (§4.6, §6).
type Role int

// DTLS roles.
const (
	RoleClient Role = iota
	RoleServer
)

const (
	// DefaultReplayWindowSize is the default replay window width (§6).
	DefaultReplayWindowSize = 64
	// DefaultRetransmissionBufferSize is the default RTX store capacity
	// (§4.7, §6): roughly 0.5s of audio or video at typical rates.
	DefaultRetransmissionBufferSize = 128
	// DefaultNackIntervalMS is the default NACK retry-ticker period (§4.9).
	DefaultNackIntervalMS = 10
	// DefaultNackMaxRetries is the default number of NACK retransmission
	// attempts before a sequence is declared permanently lost (§4.9).
	DefaultNackMaxRetries = 3
)

// Keys holds the four explicit byte strings a session may be constructed
// from directly, bypassing DTLS keying-material export (§4.6).
type Keys struct {
	LocalMasterKey   []byte
	LocalMasterSalt  []byte
	RemoteMasterKey  []byte
	RemoteMasterSalt []byte
}

// Config configures a Session (§6). Either Keys or (KeyingMaterial, Role)
// must be supplied; NewSession derives Keys from KeyingMaterial when Keys
// is empty.
type Config struct {
	Profile ProtectionProfile

	// Keys supplies explicit local/remote key and salt material. Takes
	// precedence over KeyingMaterial when non-empty.
	Keys Keys

	// KeyingMaterial is the single exported byte string from the DTLS
	// handshake, laid out client-key || server-key || client-salt ||
	// server-salt; Role picks which half is "local".
	KeyingMaterial []byte
	Role           Role

	ReplayWindowSize          uint64
	RetransmissionBufferSize  int

	RTXEnabled     bool
	RTXSSRC        uint32
	RTXPayloadType uint8

	NackIntervalMS  int
	NackMaxRetries  int

	LoggerFactory logging.LoggerFactory
}

func (c *Config) withDefaults() {
	if c.ReplayWindowSize == 0 {
		c.ReplayWindowSize = DefaultReplayWindowSize
	}
	if c.RetransmissionBufferSize == 0 {
		c.RetransmissionBufferSize = DefaultRetransmissionBufferSize
	}
	if c.NackIntervalMS == 0 {
		c.NackIntervalMS = DefaultNackIntervalMS
	}
	if c.NackMaxRetries == 0 {
		c.NackMaxRetries = DefaultNackMaxRetries
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
}

// splitKeyingMaterial derives Keys from a DTLS-exported keying-material
// blob, per the fixed layout of §4.6: client-key || server-key ||
// client-salt || server-salt.
func splitKeyingMaterial(profile ProtectionProfile, material []byte, role Role) (Keys, error) {
	keyLen, err := profile.keyLen()
	if err != nil {
		return Keys{}, err
	}
	saltLen, err := profile.saltLen()
	if err != nil {
		return Keys{}, err
	}

	want := 2*keyLen + 2*saltLen
	if len(material) < want {
		return Keys{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKeyingMaterial, want, len(material))
	}

	clientKey := material[:keyLen]
	serverKey := material[keyLen : 2*keyLen]
	clientSalt := material[2*keyLen : 2*keyLen+saltLen]
	serverSalt := material[2*keyLen+saltLen : 2*keyLen+2*saltLen]

	if role == RoleClient {
		return Keys{
			LocalMasterKey: clientKey, LocalMasterSalt: clientSalt,
			RemoteMasterKey: serverKey, RemoteMasterSalt: serverSalt,
		}, nil
	}

	return Keys{
		LocalMasterKey: serverKey, LocalMasterSalt: serverSalt,
		RemoteMasterKey: clientKey, RemoteMasterSalt: clientSalt,
	}, nil
}
