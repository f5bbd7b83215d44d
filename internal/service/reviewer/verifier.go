package reviewer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// VerificationResult 答案校验结果
type VerificationResult struct {
	IsCorrect  bool    `json:"is_correct"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Verifier 答案校验接口
// 实现必须是确定性的，并保持相同的输出结构
type Verifier interface {
	Verify(ctx context.Context, in *Input) VerificationResult
}

// FormatVerifier 只检查答案格式的确定性校验器
type FormatVerifier struct {
	MinExplanationRunes int
}

// NewFormatVerifier 创建格式校验器
func NewFormatVerifier() *FormatVerifier {
	return &FormatVerifier{MinExplanationRunes: 10}
}

var trueFalseAnswers = map[string]struct{}{
	"o": {}, "x": {}, "○": {}, "×": {}, "참": {}, "거짓": {}, "true": {}, "false": {}, "t": {}, "f": {},
}

// Verify 实现 Verifier
func (v *FormatVerifier) Verify(_ context.Context, in *Input) VerificationResult {
	answer := strings.TrimSpace(in.Answer)
	if answer == "" {
		return VerificationResult{Reasoning: "정답이 입력되지 않았습니다."}
	}

	switch in.Type {
	case model.ProblemTypeMultipleChoice:
		indexes, ok := answerIndexes(answer, in.Options)
		if !ok {
			return VerificationResult{Confidence: 0.3, Reasoning: fmt.Sprintf("정답 %q 이(가) 선택지 표기와 일치하지 않습니다.", answer)}
		}
		for _, idx := range indexes {
			if idx >= len(in.Options) {
				return VerificationResult{Confidence: 0.3, Reasoning: fmt.Sprintf("정답 %q 이(가) 선택지 개수(%d)를 벗어납니다.", answer, len(in.Options))}
			}
		}
		return VerificationResult{IsCorrect: true, Confidence: 0.8, Reasoning: "정답이 유효한 선택지를 가리킵니다."}

	case model.ProblemTypeTrueFalse:
		if _, ok := trueFalseAnswers[strings.ToLower(answer)]; ok {
			return VerificationResult{IsCorrect: true, Confidence: 0.8, Reasoning: "참/거짓 형식의 정답입니다."}
		}
		return VerificationResult{Confidence: 0.3, Reasoning: "참/거짓 문제의 정답 형식이 아닙니다."}

	default:
		confidence := 0.6
		if utf8.RuneCountInString(strings.TrimSpace(in.Explanation)) >= v.MinExplanationRunes {
			confidence = 0.7
		}
		return VerificationResult{IsCorrect: true, Confidence: confidence, Reasoning: "서술형 정답은 형식만 확인했습니다."}
	}
}

var (
	answerSeparator = regexp.MustCompile(`[,\s/]+`)
	circledNumbers  = []rune("①②③④⑤⑥⑦⑧⑨⑩")
	hangulMarkers   = []rune("가나다라마")
)

// answerIndexes 把答案记号解析为选项下标（从 0 开始）
// 支持 ①-⑩、1-10、A-E、가-마，以及与选项文本完全相同的答案；多个答案用逗号分隔
func answerIndexes(answer string, options []string) ([]int, bool) {
	for i, opt := range options {
		if strings.TrimSpace(opt) == answer {
			return []int{i}, true
		}
	}

	var indexes []int
	for _, token := range answerSeparator.Split(answer, -1) {
		if token == "" {
			continue
		}
		idx, ok := markerIndex(token)
		if !ok {
			return nil, false
		}
		indexes = append(indexes, idx)
	}
	return indexes, len(indexes) > 0
}

func markerIndex(token string) (int, bool) {
	token = strings.TrimSuffix(token, "번")
	token = strings.TrimRight(token, ".)")
	token = strings.TrimPrefix(token, "(")
	if token == "" {
		return 0, false
	}

	runes := []rune(token)
	if len(runes) == 1 {
		r := runes[0]
		for i, c := range circledNumbers {
			if r == c {
				return i, true
			}
		}
		for i, c := range hangulMarkers {
			if r == c {
				return i, true
			}
		}
		switch {
		case r >= 'A' && r <= 'E':
			return int(r - 'A'), true
		case r >= 'a' && r <= 'e':
			return int(r - 'a'), true
		}
	}

	n := 0
	for _, r := range runes {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 10 {
			return 0, false
		}
	}
	if n < 1 {
		return 0, false
	}
	return n - 1, true
}
