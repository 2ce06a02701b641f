package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/kamusis/tagsuggest/internal/search/index"
)

// DefaultHashingDim is the vector length used when none is configured.
const DefaultHashingDim = 256

type hashingProvider struct {
	dim int
}

// NewHashing returns an offline provider that hashes character trigrams of the
// padded text into dim buckets and L2-normalizes the result. Texts sharing many
// trigrams end up close, which is enough for demos and tests without a model.
func NewHashing(dim int) (Provider, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid hashing dim: %d", dim)
	}
	return &hashingProvider{dim: dim}, nil
}

func (p *hashingProvider) ModelID() string {
	return fmt.Sprintf("hashing:trigram-%d", p.dim)
}

func (p *hashingProvider) Dim() int {
	return p.dim
}

// Normalized reports that every non-empty embedding has unit length.
func (p *hashingProvider) Normalized() bool { return true }

func (p *hashingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float32, p.dim)
	h := fnv.New32a()
	var buf [3 * utf8.UTFMax]byte
	for _, word := range strings.Fields(text) {
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			n := 0
			for _, r := range padded[i : i+3] {
				n += utf8.EncodeRune(buf[n:], r)
			}
			h.Reset()
			_, _ = h.Write(buf[:n])
			sum := h.Sum32()
			bucket := int(sum % uint32(p.dim))
			// the top bit picks the sign
			if sum&(1<<31) != 0 {
				out[bucket]--
			} else {
				out[bucket]++
			}
		}
	}
	return index.NormalizeL2(out), nil
}
