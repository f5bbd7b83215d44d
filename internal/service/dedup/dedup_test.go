package dedup

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// ========== Similarity ==========

func TestSimilarity_Properties(t *testing.T) {
	texts := []string{
		"다음 중 소수가 아닌 것은?",
		"What is the capital city of France?",
		"함수 f(x) = 2x + 3 의 기울기를 구하시오.",
		"?",
		"가",
		"조선 후기 실학의 등장 배경을 서술하시오.",
	}

	for _, a := range texts {
		assert.Equal(t, 1.0, Similarity(a, a), "self similarity of %q", a)
		for _, b := range texts {
			sab, sba := Similarity(a, b), Similarity(b, a)
			assert.Equal(t, sab, sba, "symmetry of %q / %q", a, b)
			assert.GreaterOrEqual(t, sab, 0.0)
			assert.LessOrEqual(t, sab, 1.0)
		}
	}
}

func TestSimilarity_Blank(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("   ", "   "))
	assert.Equal(t, 0.0, Similarity("?", "!"))
}

func TestSimilarity_WhitespaceAndPunctuation(t *testing.T) {
	a := "다음 중 소수가 아닌 것은? ① 2 ② 3 ③ 4 ④ 5"
	b := "다음 중, 소수가   아닌 것은 ?\n① 2  ② 3 ③ 4 ④ 5"

	assert.GreaterOrEqual(t, Similarity(a, b), 0.9)
}

func TestTokens(t *testing.T) {
	tokens := Tokens("The CAT, the cat! a 고양이")

	assert.Len(t, tokens, 3)
	assert.Contains(t, tokens, "the")
	assert.Contains(t, tokens, "cat")
	assert.Contains(t, tokens, "고양이")
}

// ========== Detector ==========

func TestFindDuplicates(t *testing.T) {
	corpus := []Entry{
		{ID: "b", Content: "다음 중 소수가 아닌 것은? ① 2 ② 3 ③ 4 ④ 5"},
		{ID: "a", Content: "다음 중, 소수가 아닌 것은 ① 2 ② 3 ③ 4 ④ 5"},
		{ID: "c", Content: "조선 후기 실학의 등장 배경을 서술하시오."},
		{ID: "self", Content: "다음 중 소수가 아닌 것은? ① 2 ② 3 ③ 4 ④ 5"},
	}

	matches, err := New(DefaultConfig()).FindDuplicates(context.Background(), corpus[0].Content, "self", corpus)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID, "equal similarity sorts by id")
	assert.Equal(t, "b", matches[1].ID)
	assert.Equal(t, 1.0, matches[0].Similarity)
}

func TestFindDuplicates_SortedDescending(t *testing.T) {
	candidate := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	corpus := []Entry{
		{ID: "eight", Content: "alpha beta gamma delta epsilon zeta eta theta"},
		{ID: "ten", Content: candidate},
		{ID: "nine", Content: "alpha beta gamma delta epsilon zeta eta theta iota"},
	}

	matches, err := New(DefaultConfig()).FindDuplicates(context.Background(), candidate, "", corpus)

	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"ten", "nine", "eight"}, []string{matches[0].ID, matches[1].ID, matches[2].ID})
	assert.Equal(t, 0.9, matches[1].Similarity)
	assert.Equal(t, 0.8, matches[2].Similarity)
}

func TestFindDuplicates_PreviewTruncated(t *testing.T) {
	long := strings.Repeat("반복되는 문장 ", 50)
	matches, err := New(DefaultConfig()).FindDuplicates(context.Background(), long, "", []Entry{{ID: "x", Content: long}})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 100, len([]rune(matches[0].Preview)))
}

func TestFindDuplicates_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultConfig()).FindDuplicates(ctx, "some text here", "", []Entry{{ID: "x", Content: "some text here"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeMatches(t *testing.T) {
	merged := MergeMatches(
		[]Match{{ID: "b", Similarity: 0.8}, {ID: "a", Similarity: 0.9}},
		[]Match{{ID: "c", Similarity: 0.8}, {ID: "a", Similarity: 0.9}},
		nil,
	)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})

	assert.Empty(t, MergeMatches())
}

func TestNew_InvalidThresholdFallsBack(t *testing.T) {
	assert.Equal(t, 0.7, New(Config{Threshold: 0}).Threshold())
	assert.Equal(t, 0.7, New(Config{Threshold: 1.5}).Threshold())
	assert.Equal(t, 0.9, New(Config{Threshold: 0.9}).Threshold())
}

// ========== Corpus providers ==========

type fakeFinder struct {
	batches [][]*model.Problem
}

func (f *fakeFinder) FindInBatches(ctx context.Context, _ int, fn func([]*model.Problem) error) error {
	for _, b := range f.batches {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

func TestScan_ScanCorpus(t *testing.T) {
	finder := &fakeFinder{batches: [][]*model.Problem{
		{{ID: "p1", Content: "물의 화학식을 쓰시오"}, {ID: "p2", Content: "전혀 다른 문제입니다"}},
		{{ID: "p3", Content: "물의 화학식을 쓰시오."}},
	}}

	matches, err := New(DefaultConfig()).Scan(context.Background(), "물의 화학식을 쓰시오", "p1", NewScanCorpus(finder, 2))

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p3", matches[0].ID)
}

func TestScan_SliceCorpus(t *testing.T) {
	matches, err := New(DefaultConfig()).Scan(context.Background(), "hello world again", "", SliceCorpus{
		{ID: "1", Content: "Hello, world again!"},
	})

	require.NoError(t, err)
	require.Len(t, matches, 1)
}
