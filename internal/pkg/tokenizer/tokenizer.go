// Package tokenizer wraps the tiktoken BPE encoder used for all token
// accounting: chunk sizing, question length limits and context budgets.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes text to token ids and back. Implementations must be
// safe for concurrent use and deterministic: encoding the same text
// always yields the same token sequence.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// cl100kBase is the encoding used by the embedding and chat models.
const cl100kBase = "cl100k_base"

// Tiktoken is the production Tokenizer backed by the cl100k_base BPE.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

var _ Tokenizer = (*Tiktoken)(nil)

// NewTiktoken loads the cl100k_base encoding.
func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", cl100kBase, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
