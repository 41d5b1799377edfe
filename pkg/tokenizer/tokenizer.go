// Package tokenizer counts BPE tokens for the OpenAI encodings used to size
// skill files. Encoding ranks are embedded in the binary, so counting never
// touches the network.
package tokenizer

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Supported encoding names
const (
	CL100KBase = "cl100k_base"
	O200KBase  = "o200k_base"
	P50KBase   = "p50k_base"
	R50KBase   = "r50k_base"
)

// ErrUnknownEncoding is returned for encoding names outside the supported set
var ErrUnknownEncoding = errors.New("unknown encoding")

var knownEncodings = map[string]struct{}{
	CL100KBase: {},
	O200KBase:  {},
	P50KBase:   {},
	R50KBase:   {},
}

var allowAllSpecial = []string{"all"}

var (
	mu       sync.Mutex
	encoders = make(map[string]*tiktoken.Tiktoken)
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter counts tokens of a text in a named encoding
type Counter interface {
	CountTokens(text, encoding string) (int, error)
}

// BPECounter counts tokens directly with the BPE encoder, without caching
type BPECounter struct{}

// CountTokens implements Counter
func (BPECounter) CountTokens(text, encoding string) (int, error) {
	return CountTokens(text, encoding)
}

// IsKnown reports whether name is a supported encoding
func IsKnown(name string) bool {
	_, ok := knownEncodings[name]
	return ok
}

// GetEncoding returns the encoder for name, loading it on first use
func GetEncoding(name string) (*tiktoken.Tiktoken, error) {
	if !IsKnown(name) {
		return nil, errors.Wrapf(ErrUnknownEncoding, "%q", name)
	}

	mu.Lock()
	defer mu.Unlock()

	if enc, ok := encoders[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, errors.Wrapf(err, "tokenizer error loading %s", name)
	}
	encoders[name] = enc
	return enc, nil
}

// CountTokens returns the number of tokens in text. Special tokens such as
// <|endoftext|> are encoded as single tokens rather than rejected.
func CountTokens(text, encoding string) (int, error) {
	enc, err := GetEncoding(encoding)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, allowAllSpecial, nil)), nil
}
