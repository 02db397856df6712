package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// ErrPromptTooLong is returned when a prompt exceeds the configured token budget
var ErrPromptTooLong = errors.New("prompt exceeds token budget")

// tokenCounter counts prompt tokens with the tiktoken encoding of the configured model
type tokenCounter struct {
	codec tokenizer.Codec
}

func newTokenCounter(model string) (*tokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(strings.ToLower(model)))
	if err == nil {
		return &tokenCounter{codec: codec}, nil
	}

	codec, err = tokenizer.Get(encodingFor(model))
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	return &tokenCounter{codec: codec}, nil
}

// encodingFor picks an encoding for models tiktoken does not know by name
func encodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"), strings.HasPrefix(model, "gpt-5"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	default:
		return tokenizer.Cl100kBase
	}
}

// Count returns the token count of a chat exchange including per-message overhead
func (c *tokenCounter) Count(messages ...string) int {
	// 3 tokens per message plus 3 for reply priming
	total := 3
	for _, m := range messages {
		ids, _, _ := c.codec.Encode(m)
		total += len(ids) + 3
	}
	return total
}
