package domain

// SealedBlob is the persisted form of both secret ciphertexts and wrapped DEKs:
//
//	[1 byte algorithm id][12 byte nonce][ciphertext || 16 byte tag]
//
// Storing the algorithm with the blob keeps old data readable after the
// configured algorithm changes.
type SealedBlob struct {
	Algorithm  Algorithm
	Nonce      []byte
	Ciphertext []byte
}

const sealedBlobHeaderSize = 1 + NonceSize

// Marshal encodes the blob into its wire form.
func (b *SealedBlob) Marshal() ([]byte, error) {
	id, err := b.Algorithm.ID()
	if err != nil {
		return nil, err
	}
	if len(b.Nonce) != NonceSize {
		return nil, ErrMalformedBlob
	}

	out := make([]byte, 0, sealedBlobHeaderSize+len(b.Ciphertext))
	out = append(out, id)
	out = append(out, b.Nonce...)
	out = append(out, b.Ciphertext...)
	return out, nil
}

// ParseSealedBlob decodes the wire form. Truncated input and unknown algorithm ids
// are reported as ErrMalformedBlob, which is a decryption error.
func ParseSealedBlob(data []byte) (*SealedBlob, error) {
	if len(data) < sealedBlobHeaderSize+TagSize {
		return nil, ErrMalformedBlob
	}

	alg, err := AlgorithmFromID(data[0])
	if err != nil {
		return nil, ErrMalformedBlob
	}

	return &SealedBlob{
		Algorithm:  alg,
		Nonce:      data[1:sealedBlobHeaderSize],
		Ciphertext: data[sealedBlobHeaderSize:],
	}, nil
}
