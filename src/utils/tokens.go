package utils

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func loadCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// EstimateTokenCount counts cl100k tokens in text, falling back to the
// 4-characters-per-token heuristic if the encoder is unavailable.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	if c := loadCodec(); c != nil {
		if ids, _, err := c.Encode(text); err == nil {
			return len(ids)
		}
	}

	return roughTokenCount(text)
}

func roughTokenCount(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
