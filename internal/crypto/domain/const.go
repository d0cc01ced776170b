package domain

// Algorithm represents the AEAD cipher used to seal a blob.
//
// Both algorithms use 256-bit keys, 12-byte nonces and 16-byte tags, so a sealed
// blob differs only in the algorithm id stored in its first byte.
type Algorithm string

const (
	// AESGCM is AES-256-GCM, the default on hardware with AES-NI.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305, preferred on platforms without AES acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the size in bytes of every DEK and root KEK.
	KeySize = 32

	// NonceSize is the nonce size shared by both supported algorithms.
	NonceSize = 12

	// TagSize is the authentication tag appended by both supported algorithms.
	TagSize = 16
)

// Wire identifiers written as the first byte of a sealed blob. They are part of
// the persisted format and must never be renumbered.
const (
	algorithmIDAESGCM   byte = 0x01
	algorithmIDChaCha20 byte = 0x02
)

// ID returns the single-byte wire identifier of the algorithm.
func (a Algorithm) ID() (byte, error) {
	switch a {
	case AESGCM:
		return algorithmIDAESGCM, nil
	case ChaCha20:
		return algorithmIDChaCha20, nil
	default:
		return 0, ErrUnsupportedAlgorithm
	}
}

// AlgorithmFromID maps a wire identifier back to its Algorithm.
func AlgorithmFromID(id byte) (Algorithm, error) {
	switch id {
	case algorithmIDAESGCM:
		return AESGCM, nil
	case algorithmIDChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// ParseAlgorithm validates a configured algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name)
	if _, err := alg.ID(); err != nil {
		return "", err
	}
	return alg, nil
}
