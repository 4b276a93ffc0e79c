package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfidence(t *testing.T) {
	tests := map[string]Confidence{
		"high":      ConfidenceHigh,
		" HIGH ":    ConfidenceHigh,
		"confident": ConfidenceHigh,
		"medium":    ConfidenceMedium,
		"low":       ConfidenceLow,
		"unsure":    ConfidenceUnsure,
		"":          ConfidenceUnsure,
		"banana":    ConfidenceUnsure,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseConfidence(in), "input %q", in)
	}
}

func TestConfidenceFactor(t *testing.T) {
	assert.Equal(t, 1.0, ConfidenceHigh.Factor())
	assert.Equal(t, 0.75, ConfidenceMedium.Factor())
	assert.Equal(t, 0.5, ConfidenceLow.Factor())
	assert.Equal(t, 0.0, ConfidenceUnsure.Factor())
	assert.Equal(t, 0.5, Result{Score: 1, Confidence: ConfidenceLow}.Weighted())
}

func TestContextKey(t *testing.T) {
	a := Context{AppName: "Code", WindowTitle: "main.go", Text: "func main"}
	b := Context{AppName: " code ", WindowTitle: "MAIN.GO", Text: "func main  "}
	c := Context{AppName: "Code", WindowTitle: "main.go", Text: "func other"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Len(t, a.Key(), 64)
}

func TestContextKey_TruncatesText(t *testing.T) {
	prefix := strings.Repeat("a", maxContextText)
	a := Context{Text: prefix + "tail one"}
	b := Context{Text: prefix + "tail two"}
	assert.Equal(t, a.Key(), b.Key())
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := "ab" + "é" + "cd"
	assert.Equal(t, "ab", truncate(s, 3), "cut falls inside é")
	assert.Equal(t, "abé", truncate(s, 4))
	assert.Equal(t, s, truncate(s, 10))
}

func TestParseReply_ProseReasoningIsValidUTF8(t *testing.T) {
	r := parseReply(strings.Repeat("é", 150))
	assert.True(t, utf8.ValidString(r.Reasoning))
	assert.LessOrEqual(t, len(r.Reasoning), 200)
}

func TestContextEmpty(t *testing.T) {
	assert.True(t, Context{Text: "   "}.Empty())
	assert.False(t, Context{AppName: "x"}.Empty())
}

func TestParseReply_JSON(t *testing.T) {
	r := parseReply("```json\n{\"is_productive\": true, \"score\": 0.9, \"confidence\": \"medium\", \"reasoning\": \"code editor\"}\n```")
	assert.Equal(t, 0.9, r.Score)
	assert.Equal(t, ConfidenceMedium, r.Confidence)
	assert.Equal(t, "code editor", r.Reasoning)
}

func TestParseReply_JSONWithoutScore(t *testing.T) {
	r := parseReply(`{"is_productive": true, "confidence": "high"}`)
	assert.Equal(t, 1.0, r.Score)
	assert.Equal(t, ConfidenceHigh, r.Confidence)

	r = parseReply(`{"is_productive": false, "confidence": "high", "reasoning": "a game"}`)
	assert.Equal(t, 0.0, r.Score)
}

func TestParseReply_ClampsScore(t *testing.T) {
	assert.Equal(t, 1.0, parseReply(`{"score": 7, "confidence": "high"}`).Score)
	assert.Equal(t, 0.0, parseReply(`{"score": -2, "confidence": "high"}`).Score)
}

func TestParseReply_Prose(t *testing.T) {
	r := parseReply("I am confident this is productive work.")
	assert.Equal(t, 1.0, r.Score)
	assert.Equal(t, ConfidenceHigh, r.Confidence)

	r = parseReply("This is not productive at all.")
	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, ConfidenceUnsure, r.Confidence)

	r = parseReply("Looks like a cat video.")
	assert.Equal(t, 0.0, r.Score)
}

type countingClassifier struct {
	calls  int
	result Result
	err    error
}

func (c *countingClassifier) Classify(context.Context, Context) (Result, error) {
	c.calls++
	return c.result, c.err
}

type memStore struct {
	data map[string]Result
	puts int
}

func (m *memStore) GetClassification(key string) (Result, bool, error) {
	r, ok := m.data[key]
	return r, ok, nil
}

func (m *memStore) PutClassification(key string, r Result) error {
	m.puts++
	m.data[key] = r
	return nil
}

func TestCache_MemoizesByKey(t *testing.T) {
	inner := &countingClassifier{result: Result{Score: 0.8, Confidence: ConfidenceHigh}}
	c := NewCache(inner, nil)
	in := Context{AppName: "Word", Text: "essay"}

	r1, err := c.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, r1.Cached)

	r2, err := c.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, r2.Cached)
	assert.Equal(t, 0.8, r2.Score)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, CacheStats{Hits: 1, Misses: 1}, c.Stats())
	assert.Equal(t, 1, c.Len())
}

func TestCache_DoesNotCacheErrors(t *testing.T) {
	inner := &countingClassifier{err: errors.New("boom")}
	c := NewCache(inner, nil)
	in := Context{AppName: "x"}

	_, err := c.Classify(context.Background(), in)
	require.Error(t, err)
	_, err = c.Classify(context.Background(), in)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, c.Stats().Errors)
	assert.Zero(t, c.Len())
}

func TestCache_WritesThroughToStore(t *testing.T) {
	store := &memStore{data: map[string]Result{}}
	inner := &countingClassifier{result: Result{Score: 0.6, Confidence: ConfidenceLow}}
	in := Context{WindowTitle: "Lecture 4"}

	_, err := NewCache(inner, store).Classify(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, store.puts)

	// A fresh cache over the same store does not call the model again.
	r, err := NewCache(inner, store).Classify(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, r.Cached)
	assert.Equal(t, 1, inner.calls)
}
