package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(0, 0)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = New(100, 100)
	assert.ErrorIs(t, err, ErrOverlapTooLarge)

	_, err = New(100, 150)
	assert.ErrorIs(t, err, ErrOverlapTooLarge)

	_, err = New(100, -1)
	assert.ErrorIs(t, err, ErrOverlapTooLarge)

	_, err = New(100, 99)
	assert.NoError(t, err)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)

	text := "a short document that fits in one chunk"
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyTextNoChunks(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)
	assert.Empty(t, s.Split(""))
}

// Stripping the overlap prefix of every chunk after the first must
// reconstruct the input exactly, regardless of where the cuts landed.
func TestSplitReconstructsInput(t *testing.T) {
	texts := []string{
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 120),
		strings.Repeat("one two three four five six seven eight nine ten ", 80),
		strings.Repeat("para one line.\n\npara two line.\n", 90),
		strings.Repeat("x", 5000), // no boundaries at all: raw cuts
	}

	for _, text := range texts {
		for _, overlap := range []int{0, 50, 200} {
			s, err := New(1000, overlap)
			require.NoError(t, err)

			chunks := s.Split(text)
			require.NotEmpty(t, chunks)

			var sb strings.Builder
			sb.WriteString(chunks[0])
			for _, c := range chunks[1:] {
				runes := []rune(c)
				require.Greater(t, len(runes), overlap)
				sb.WriteString(string(runes[overlap:]))
			}
			assert.Equal(t, text, sb.String())

			for _, c := range chunks {
				assert.LessOrEqual(t, len([]rune(c)), 1000)
				assert.NotEmpty(t, c)
			}
		}
	}
}

func TestSplitConsecutiveChunksShareExactOverlap(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)

	// 25 lines of 100 runes each: 2,500 runes total.
	line := strings.Repeat("a", 99) + "\n"
	text := strings.Repeat(line, 25)

	chunks := s.Split(text)
	require.Len(t, chunks, 3)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-200:]), string(cur[:200]),
			"chunk %d must start with the 200-rune tail of chunk %d", i, i-1)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s, err := New(300, 60)
	require.NoError(t, err)

	text := strings.Repeat("Sentences vary in length here. Some are short. Others ramble on for quite a while before ending. ", 40)
	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	s, err := New(100, 10)
	require.NoError(t, err)

	text := strings.Repeat("w", 50) + "\n\n" + strings.Repeat("v", 120)
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"),
		"first cut should land after the paragraph break, got %q", chunks[0])
}

func TestSplitFallsBackToWordBreaks(t *testing.T) {
	s, err := New(100, 10)
	require.NoError(t, err)

	text := strings.Repeat("word ", 60) // no paragraph or sentence breaks
	for _, c := range s.Split(text)[:1] {
		assert.True(t, strings.HasSuffix(c, " "),
			"cut should land after a space, got %q", c)
	}
}
