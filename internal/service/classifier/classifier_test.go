package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		subject string
	}{
		{"math", "다음 이차방정식의 해를 구하고 함수의 기울기를 구하시오.", "math"},
		{"science", "식물의 광합성 과정에서 발생하는 산소와 에너지의 관계를 설명하시오.", "science"},
		{"social", "조선 후기의 정치와 경제 변화에 대해 서술하시오.", "social"},
		{"english", "Choose the word that best completes the sentence in the passage.", "english"},
		{"korean", "윗글의 화자가 사용한 표현법과 비유의 효과로 알맞은 것은?", "korean"},
	}

	c := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.text)
			assert.Equal(t, tt.subject, result.Subject)
			assert.Greater(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
			assert.NotEmpty(t, result.Keywords)
		})
	}
}

func TestClassify_NoMatch(t *testing.T) {
	result := New(DefaultConfig()).Classify("아무 관련 없는 문장")

	assert.Empty(t, result.Subject)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Keywords)
}

func TestClassify_TieGoesToFirstSubject(t *testing.T) {
	cfg := Config{Subjects: []SubjectKeywords{
		{Subject: "alpha", Keywords: []string{"apple"}},
		{Subject: "beta", Keywords: []string{"banana"}},
	}}

	result := New(cfg).Classify("apple and banana")
	assert.Equal(t, "alpha", result.Subject)
	assert.Equal(t, map[string]int{"alpha": 1, "beta": 1}, result.Scores)

	cfg.Subjects[0], cfg.Subjects[1] = cfg.Subjects[1], cfg.Subjects[0]
	result = New(cfg).Classify("apple and banana")
	assert.Equal(t, "beta", result.Subject)
}

func TestClassify_ConfidenceSaturates(t *testing.T) {
	text := "방정식 함수 미분 적분 확률 통계 삼각형"
	result := New(DefaultConfig()).Classify(text)

	assert.Equal(t, "math", result.Subject)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassify_KeywordsDeduplicated(t *testing.T) {
	cfg := Config{Subjects: []SubjectKeywords{
		{Subject: "a", Keywords: []string{"energy"}},
		{Subject: "b", Keywords: []string{"energy", "cell"}},
	}}

	result := New(cfg).Classify("Energy inside the CELL")
	assert.Equal(t, "b", result.Subject)
	assert.Equal(t, []string{"energy", "cell"}, result.Keywords)
	assert.InDelta(t, 0.4, result.Confidence, 1e-9)
}
