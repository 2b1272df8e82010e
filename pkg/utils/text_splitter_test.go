package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	chunks := SplitText("artikel 1382 BW", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "artikel 1382 BW", chunks[0])
}

func TestSplitTextOverlapPreservesBoundaries(t *testing.T) {
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	chunks := SplitText(text, 60, 20)

	require.GreaterOrEqual(t, len(chunks), 2)
	// The tail of each chunk reappears at the head of the next.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		overlap := prev[len(prev)-20:]
		assert.True(t, strings.HasPrefix(chunks[i], overlap))
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("wetboek ", 200)
	chunks := SplitText(text, 100, 25)

	reassembled := chunks[0]
	for i := 1; i < len(chunks); i++ {
		reassembled += chunks[i][25:]
	}
	assert.Equal(t, text, reassembled)
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("x", 30)
	// overlap >= chunkSize must not loop forever
	chunks := SplitText(text, 10, 10)
	assert.NotEmpty(t, chunks)
}

func TestSplitTextMultiByteRunesNotCut(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks := SplitText(text, 10, 2)
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "é"))
	}
}
