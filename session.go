package srtp

import (
	"fmt"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/rtp"

	"github.com/watchtower-rtc/srtpcore/rtpbuffer"
)

// Session is the unified SRTP/SRTCP façade (§4.6): one value per DTLS
// association, holding one cipherSuite for the outbound direction and one
// for the inbound direction, plus per-SSRC streamState lazily created on
// first use. Each method holds an internal mutex while it touches
// session state, so methods may be called from several goroutines; a
// Session does not run its own goroutine.
type Session struct {
	mu sync.Mutex

	profile          ProtectionProfile
	localCipher      cipherSuite
	remoteCipher     cipherSuite
	replayWindowSize uint64

	localStreams  map[uint32]*streamState
	remoteStreams map[uint32]*streamState

	rtx *rtpbuffer.Buffer

	log logging.LeveledLogger
}

// NewSession constructs a Session from Config, deriving Keys from
// KeyingMaterial when Keys was left empty.
func NewSession(config Config) (*Session, error) {
	config.withDefaults()

	keys := config.Keys
	if len(keys.LocalMasterKey) == 0 && config.KeyingMaterial != nil {
		derived, err := splitKeyingMaterial(config.Profile, config.KeyingMaterial, config.Role)
		if err != nil {
			return nil, err
		}
		keys = derived
	}
	if len(keys.LocalMasterKey) == 0 || len(keys.RemoteMasterKey) == 0 {
		return nil, fmt.Errorf("%w: no local/remote keying material supplied", ErrInvalidKeyingMaterial)
	}

	localCipher, err := newCipherSuite(config.Profile, keys.LocalMasterKey, keys.LocalMasterSalt)
	if err != nil {
		return nil, err
	}
	remoteCipher, err := newCipherSuite(config.Profile, keys.RemoteMasterKey, keys.RemoteMasterSalt)
	if err != nil {
		return nil, err
	}

	var rtx *rtpbuffer.Buffer
	if config.RetransmissionBufferSize > 0 {
		rtx = rtpbuffer.New(config.RetransmissionBufferSize)
	}

	return &Session{
		profile:          config.Profile,
		localCipher:      localCipher,
		remoteCipher:     remoteCipher,
		replayWindowSize: config.ReplayWindowSize,
		localStreams:     map[uint32]*streamState{},
		remoteStreams:    map[uint32]*streamState{},
		rtx:              rtx,
		log:              config.LoggerFactory.NewLogger("srtp"),
	}, nil
}

func (s *Session) localStream(ssrc uint32) *streamState {
	if st, ok := s.localStreams[ssrc]; ok {
		return st
	}
	st := newStreamState(ssrc, s.replayWindowSize)
	s.localStreams[ssrc] = st

	return st
}

func (s *Session) remoteStream(ssrc uint32) *streamState {
	if st, ok := s.remoteStreams[ssrc]; ok {
		return st
	}
	st := newStreamState(ssrc, s.replayWindowSize)
	s.remoteStreams[ssrc] = st

	return st
}

// EncryptRTP protects a plaintext RTP packet, appending the result to dst.
// As one atomic unit with the encryption it advances the sender's rollover
// counter and, when a retransmission buffer is configured, caches the
// plaintext packet for later RTX lookup (§5, §4.7).
func (s *Session) EncryptRTP(dst, plaintext []byte) ([]byte, error) {
	var header rtp.Header
	headerLen, err := header.Unmarshal(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.localStream(header.SSRC)
	roc := state.updateOutboundRollover(header.SequenceNumber)

	headerBytes := plaintext[:headerLen]
	payload := plaintext[headerLen:]

	protected, err := s.localCipher.encryptRTP(headerBytes, payload, header.SSRC, roc, header.SequenceNumber)
	if err != nil {
		return nil, err
	}

	if s.rtx != nil {
		s.rtx.Store(header.SequenceNumber, plaintext)
	}

	out := append(dst, headerBytes...)

	return append(out, protected...), nil
}

// DecryptRTP unprotects an SRTP packet, appending the plaintext to dst.
// Authentication happens before the replay window or rollover state is
// touched: a packet that fails to authenticate leaves the stream's state
// exactly as it was (§5).
func (s *Session) DecryptRTP(dst, encrypted []byte) ([]byte, error) {
	var header rtp.Header
	headerLen, err := header.Unmarshal(encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.remoteStream(header.SSRC)
	roc := state.rolloverForInbound(header.SequenceNumber)

	headerBytes := encrypted[:headerLen]
	ciphertextAndTag := encrypted[headerLen:]

	plaintext, err := s.remoteCipher.decryptRTP(headerBytes, ciphertextAndTag, header.SSRC, roc, header.SequenceNumber)
	if err != nil {
		s.log.Debugf("srtp: dropping packet ssrc=%x seq=%d: %v", header.SSRC, header.SequenceNumber, err)

		return nil, &AuthenticationOrReplayError{err: err}
	}

	if !state.replay.Check(header.SequenceNumber) {
		s.log.Debugf("srtp: replay rejected ssrc=%x seq=%d", header.SSRC, header.SequenceNumber)

		return nil, &AuthenticationOrReplayError{err: ErrReplay}
	}

	state.commitInboundRollover(header.SequenceNumber, roc)

	out := append(dst, headerBytes...)

	return append(out, plaintext...), nil
}

// EncryptRTCP protects a plaintext RTCP packet (or compound packet),
// appending the result to dst. The first 8 bytes of plaintext are treated
// as the header whose SSRC picks the stream and whose bytes enter the
// MAC/AAD; everything after that is opaque ciphertext payload, including
// any further sub-packets of a compound.
func (s *Session) EncryptRTCP(dst, plaintext []byte) ([]byte, error) {
	if len(plaintext) < 8 {
		return nil, fmt.Errorf("%w: rtcp packet shorter than header", ErrMalformedPacket)
	}
	ssrc := beUint32(plaintext[4:8])

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.localStream(ssrc)
	index := state.nextOutboundSRTCPIndex()

	headerBytes := plaintext[:8]
	payload := plaintext[8:]

	protected, err := s.localCipher.encryptRTCP(headerBytes, payload, ssrc, index)
	if err != nil {
		return nil, err
	}

	out := append(dst, headerBytes...)

	return append(out, protected...), nil
}

// DecryptRTCP unprotects an SRTCP packet (or compound packet), appending
// the plaintext to dst. The decrypted payload may itself be a compound RTCP
// stream; callers that need individual sub-packets parse it further with
// the rtcp package.
func (s *Session) DecryptRTCP(dst, encrypted []byte) ([]byte, error) {
	if len(encrypted) < 8 {
		return nil, fmt.Errorf("%w: rtcp packet shorter than header", ErrMalformedPacket)
	}
	ssrc := beUint32(encrypted[4:8])

	s.mu.Lock()
	defer s.mu.Unlock()

	s.remoteStream(ssrc) // ensure the stream exists even though RTCP index carries no rollover state of its own

	headerBytes := encrypted[:8]
	rest := encrypted[8:]

	plaintext, _, err := s.remoteCipher.decryptRTCP(headerBytes, rest, ssrc)
	if err != nil {
		s.log.Debugf("srtcp: dropping packet ssrc=%x: %v", ssrc, err)

		return nil, &AuthenticationOrReplayError{err: err}
	}

	out := append(dst, headerBytes...)

	return append(out, plaintext...), nil
}

// RetrieveForRetransmission returns the cached plaintext RTP packet last
// sent with the given sequence number, for use by an RTX wrapper, or false
// if no retransmission buffer is configured or the slot has since been
// overwritten (§4.7).
func (s *Session) RetrieveForRetransmission(seq uint16) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rtx == nil {
		return nil, false
	}

	return s.rtx.Retrieve(seq)
}

// Reset clears every stream's rollover counters, replay window, and SRTCP
// index, and empties the retransmission buffer, without invalidating
// plaintext already handed back to the caller (§5).
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.localStreams {
		st.reset(s.replayWindowSize)
	}
	for _, st := range s.remoteStreams {
		st.reset(s.replayWindowSize)
	}
	if s.rtx != nil {
		s.rtx.Clear()
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// BatchWriter is the write side of the connection a Session sends
// protected packets over. It mirrors the batch-write idiom the teacher's
// SRTP session uses on its outbound path (`conn.WriteBatch`, which favours
// sendmmsg on platforms that support it): writers that can send several
// datagrams in one syscall implement it; everything else can fall back to
// one Write per buffer.
type BatchWriter interface {
	WriteBatch(bufs [][]byte) (n int, err error)
}

// EncryptAndWriteRTPBatch protects every packet in plaintexts and flushes
// them to conn with as few WriteBatch calls as a partial write forces.
// This is the path an RTX resend takes when several NACKed packets are
// retransmitted together (§4.8): encrypting first and writing as a batch
// keeps the encrypt-then-send ordering invariant (§5) without serialising
// the syscalls one packet at a time.
func (s *Session) EncryptAndWriteRTPBatch(conn BatchWriter, plaintexts [][]byte) error {
	buffers := make([][]byte, len(plaintexts))

	for i, plaintext := range plaintexts {
		protected, err := s.EncryptRTP(nil, plaintext)
		if err != nil {
			return err
		}
		buffers[i] = protected
	}

	for i := 0; i < len(buffers); {
		n, err := conn.WriteBatch(buffers[i:])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: WriteBatch made no progress", ErrInvalidConfiguration)
		}

		i += n
	}

	return nil
}
