package grouping

import (
	"fmt"
	"image"
	"math"

	"github.com/corona10/goimagehash"
)

// Fingerprint is a compact visual signature of a photo: a 64-bit perceptual
// hash and, when a model supplies one, an embedding vector. The zero value
// means "not computed".
type Fingerprint struct {
	Hash      uint64
	Kind      goimagehash.Kind
	Embedding []float64
}

// IsZero reports whether the fingerprint carries no signal.
func (f Fingerprint) IsZero() bool {
	return f.Kind == goimagehash.Unknown && len(f.Embedding) == 0
}

// Clone returns a copy that shares no memory with f.
func (f Fingerprint) Clone() Fingerprint {
	if f.Embedding != nil {
		f.Embedding = append([]float64(nil), f.Embedding...)
	}
	return f
}

// FingerprintImage computes the perceptual hash of img.
func FingerprintImage(img image.Image) (Fingerprint, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("perception hash: %w", err)
	}
	return Fingerprint{Hash: hash.GetHash(), Kind: hash.GetKind()}, nil
}

// Similarity returns how alike a and b are as a percentage (0-100). Embeddings
// are compared by cosine similarity when both sides have one of the same
// length, otherwise hashes of the same kind by Hamming distance. ok is false
// when the fingerprints are not comparable.
func Similarity(a, b Fingerprint) (pct float64, ok bool) {
	if len(a.Embedding) > 0 && len(a.Embedding) == len(b.Embedding) {
		if cos, ok := cosine(a.Embedding, b.Embedding); ok {
			return math.Max(0, cos) * 100, true
		}
	}

	if a.Kind == goimagehash.Unknown || a.Kind != b.Kind {
		return 0, false
	}
	dist, err := goimagehash.NewImageHash(a.Hash, a.Kind).Distance(goimagehash.NewImageHash(b.Hash, b.Kind))
	if err != nil {
		return 0, false
	}
	return 100 * (1 - float64(dist)/64), true
}

func cosine(a, b []float64) (float64, bool) {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp floating point drift
	return math.Max(-1, math.Min(1, sim)), true
}
