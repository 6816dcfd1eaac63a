package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPassagesKeepsShortTextWhole(t *testing.T) {
	passages := SplitPassages("A short note about office hours.", 800)
	require.Len(t, passages, 1)
	assert.Equal(t, "A short note about office hours.", passages[0])
}

func TestSplitPassagesEmptyInput(t *testing.T) {
	assert.Nil(t, SplitPassages("", 800))
	assert.Nil(t, SplitPassages("   \n\n  ", 800))
}

func TestSplitPassagesPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 30) // ~150 runes
	text := strings.TrimSpace(strings.Repeat(para+"\n\n", 10))

	passages := SplitPassages(text, 400)
	require.Greater(t, len(passages), 1)
	for i, p := range passages {
		assert.LessOrEqualf(t, len([]rune(p)), 400, "passage %d over target", i)
		assert.NotEmpty(t, strings.TrimSpace(p))
	}
}

func TestSplitPassagesNoTextDropped(t *testing.T) {
	text := "First sentence here. Second sentence follows! Third one asks?\n\n" +
		"Another paragraph with plenty of words to push past the boundary. " +
		"And one more sentence to be safe.\n\n" +
		"价格是 3.14 元。这是第二句。"

	passages := SplitPassages(text, 60)
	require.NotEmpty(t, passages)

	want := strings.Fields(text)
	got := strings.Fields(strings.Join(passages, " "))
	assert.Equal(t, want, got, "splitting must not lose or reorder words")
}

func TestSplitPassagesSentenceFallback(t *testing.T) {
	// One paragraph, far over target, well-formed sentences.
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("This sentence is repeated to build a long paragraph. ")
	}
	passages := SplitPassages(strings.TrimSpace(sb.String()), 200)
	require.Greater(t, len(passages), 1)
	for _, p := range passages {
		assert.LessOrEqual(t, len([]rune(p)), 200)
		assert.True(t, strings.HasSuffix(p, "."), "sentence fallback should cut at sentence ends: %q", p)
	}
}

func TestSplitPassagesDecimalNotASentenceEnd(t *testing.T) {
	text := "Pi is roughly 3.14159 in most calculations. Next sentence."
	sentences := splitSentences(text)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Pi is roughly 3.14159 in most calculations.", sentences[0])
}

func TestSplitPassagesHardSplitsUnbrokenRuns(t *testing.T) {
	blob := strings.Repeat("x", 1000)
	passages := SplitPassages(blob, 300)
	require.NotEmpty(t, passages)
	total := 0
	for _, p := range passages {
		assert.LessOrEqual(t, len([]rune(p)), 300)
		total += len([]rune(p))
	}
	assert.Equal(t, 1000, total)
}

func TestSplitPassagesLastMayBeShort(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 40) // ~960 runes
	passages := SplitPassages(strings.TrimSpace(text), 800)
	require.Len(t, passages, 2)
	assert.Less(t, len([]rune(passages[1])), len([]rune(passages[0])))
}
