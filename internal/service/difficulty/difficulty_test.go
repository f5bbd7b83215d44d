package difficulty

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashwinyue/next-qbank/internal/model"
)

func TestEstimate_Bounded(t *testing.T) {
	inputs := []Input{
		{},
		{Content: "1+1=?"},
		{Content: strings.Repeat("매우 긴 문장이 끝없이 이어지고 그러나 따라서 만약 ", 80), GradeLevel: 12},
		{Content: "$\\int_{0}^{1} x^{2} dx$ 적분 미분 극한 행렬 벡터 로그 ∑ √", Options: []string{"1", "2", "3", "4", "5", "6", "7"}},
		{Content: "가설을 추론하고 분석하여 종합적으로 평가하라.", GradeLevel: 99},
	}

	e := New(DefaultConfig())
	for i, in := range inputs {
		r := e.Estimate(in)
		for _, v := range append(r.Factors.values(), r.Score, r.RawScore) {
			assert.GreaterOrEqual(t, v, 0.0, "input %d", i)
			assert.LessOrEqual(t, v, 100.0, "input %d", i)
		}
		assert.GreaterOrEqual(t, r.Confidence, 0.3, "input %d", i)
		assert.LessOrEqual(t, r.Confidence, 1.0, "input %d", i)
		assert.NotNil(t, r.Suggestions)
	}
}

func TestEstimate_MathComplexity(t *testing.T) {
	r := New(DefaultConfig()).Estimate(Input{Content: "$x^{2}$ 의 적분 과 미분 ∫"})

	// 关键词 2 个 ×10，运算符 +20，LaTeX +30
	assert.Equal(t, 70.0, r.Factors.MathComplexity)
}

func TestEstimate_StructureComplexity(t *testing.T) {
	r := New(DefaultConfig()).Estimate(Input{
		Content: "다음 중 옳은 것은? ① 가 ② 나 ③ 다",
	})
	assert.Equal(t, 20.0, r.Factors.StructureComplexity)

	r = New(DefaultConfig()).Estimate(Input{
		Content: "그러나 따라서 다음 중 옳은 것은?",
		Options: []string{"a", "b", "c", "d", "e", "f"},
	})
	// 两个连接词 ×15，选项多于 4 个 +20，多于 5 个 +10
	assert.Equal(t, 60.0, r.Factors.StructureComplexity)
}

func TestEstimate_GradeMultiplier(t *testing.T) {
	in := Input{Content: "함수 f(x) = 2x + 3 의 기울기를 구하고 그 이유를 추론하여 설명하시오. 따라서 답은 무엇인가?"}
	e := New(DefaultConfig())

	low := e.Estimate(Input{Content: in.Content, GradeLevel: 1})
	high := e.Estimate(Input{Content: in.Content, GradeLevel: 12})
	unknown := e.Estimate(Input{Content: in.Content, GradeLevel: 0})

	assert.Equal(t, low.RawScore, high.RawScore)
	assert.Equal(t, low.Level, high.Level)
	assert.Less(t, low.Score, high.Score)
	assert.InDelta(t, unknown.RawScore, unknown.Score, 0.05)
	assert.InDelta(t, low.RawScore*0.5, low.Score, 0.1)
}

func TestEstimate_EmptyInput(t *testing.T) {
	r := New(DefaultConfig()).Estimate(Input{})

	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, LevelEasy, r.Level)
	assert.Equal(t, 1.0, r.Confidence)
	assert.Len(t, r.Suggestions, 1)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		raw  float64
		want Level
	}{
		{0, LevelEasy},
		{29.9, LevelEasy},
		{30, LevelMedium},
		{54.9, LevelMedium},
		{55, LevelHard},
		{74.9, LevelHard},
		{75, LevelVeryHard},
		{100, LevelVeryHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.raw), "raw=%v", tt.raw)
	}
}

func TestLevelTier(t *testing.T) {
	assert.Equal(t, model.DifficultyLow, LevelEasy.Tier())
	assert.Equal(t, model.DifficultyMedium, LevelMedium.Tier())
	assert.Equal(t, model.DifficultyHigh, LevelHard.Tier())
	assert.Equal(t, model.DifficultyHigh, LevelVeryHard.Tier())
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 1.0, confidence([]float64{50, 50, 50, 50, 50}))
	// 方差远大于 1000 时取下限 0.3
	assert.Equal(t, 0.3, confidence([]float64{0, 100, 0, 100, 80}))
}

func TestDefaultConfig_GradeTable(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.GradeMultipliers, 12)
	assert.Equal(t, 0.5, cfg.GradeMultipliers[1])
	assert.Equal(t, 1.05, cfg.GradeMultipliers[12])
}
