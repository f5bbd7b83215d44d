// Package difficulty 根据文本结构估算题目难度
package difficulty

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// Level 难度等级
type Level string

const (
	LevelEasy     Level = "EASY"
	LevelMedium   Level = "MEDIUM"
	LevelHard     Level = "HARD"
	LevelVeryHard Level = "VERY_HARD"
)

// Tier 映射到题目的难度档位
func (l Level) Tier() model.DifficultyTier {
	switch l {
	case LevelEasy:
		return model.DifficultyLow
	case LevelMedium:
		return model.DifficultyMedium
	default:
		return model.DifficultyHigh
	}
}

// Factors 五个复杂度因子（0-100）
type Factors struct {
	TextComplexity      float64 `json:"text_complexity"`
	ConceptLevel        float64 `json:"concept_level"`
	MathComplexity      float64 `json:"math_complexity"`
	VocabularyLevel     float64 `json:"vocabulary_level"`
	StructureComplexity float64 `json:"structure_complexity"`
}

func (f Factors) values() []float64 {
	return []float64{f.TextComplexity, f.ConceptLevel, f.MathComplexity, f.VocabularyLevel, f.StructureComplexity}
}

// Weights 因子权重
type Weights struct {
	TextComplexity      float64
	ConceptLevel        float64
	MathComplexity      float64
	VocabularyLevel     float64
	StructureComplexity float64
}

// Config 估算器配置
type Config struct {
	Weights Weights
	// GradeMultipliers 年级系数，未列出的年级按 1.0 处理
	GradeMultipliers map[int]float64
	// AdvancedVocabulary 高阶概念词
	AdvancedVocabulary []string
	// MathKeywords 数学关键词，按出现次数计分
	MathKeywords []string
	// OperatorGlyphs 任一字符出现即视为含有方程式
	OperatorGlyphs string
	// SuggestionThreshold 因子超过该值时给出建议
	SuggestionThreshold float64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	grades := make(map[int]float64, 12)
	for g := 1; g <= 12; g++ {
		grades[g] = math.Round((0.5+0.05*float64(g-1))*100) / 100
	}
	return Config{
		Weights: Weights{
			TextComplexity:      0.25,
			ConceptLevel:        0.3,
			MathComplexity:      0.2,
			VocabularyLevel:     0.15,
			StructureComplexity: 0.1,
		},
		GradeMultipliers: grades,
		AdvancedVocabulary: []string{
			"추론", "분석", "종합", "평가", "비판", "함의", "개념", "원리", "상관관계", "인과",
			"가설", "변인", "귀납", "연역", "명제", "증명", "추상", "메커니즘",
			"hypothesis", "analyze", "infer", "derive", "evaluate", "theorem", "proof", "abstract",
		},
		MathKeywords: []string{
			"방정식", "함수", "미분", "적분", "극한", "수열", "행렬", "벡터", "로그", "삼각함수", "확률",
			"sin", "cos", "tan", "log", "lim", "equation", "integral", "derivative",
		},
		OperatorGlyphs:      "=≠≤≥±×÷√∑∫π",
		SuggestionThreshold: 70,
	}
}

// Input 估算输入
type Input struct {
	Content    string
	Options    []string
	GradeLevel int
}

// Result 估算结果
type Result struct {
	Score       float64  `json:"score"`
	RawScore    float64  `json:"raw_score"`
	Level       Level    `json:"level"`
	Confidence  float64  `json:"confidence"`
	Factors     Factors  `json:"factors"`
	Suggestions []string `json:"suggestions"`
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?。]`)
	latexMarkup   = regexp.MustCompile(`\\[a-zA-Z]+|\$[^$]+\$|\^\{|_\{`)
	complexClause = regexp.MustCompile(`(?i)그러나|하지만|따라서|그러므로|만약|때문에|반면|뿐만 아니라|에도 불구하고|however|therefore|although|whereas|unless|\bif\b`)
	circledGlyph  = regexp.MustCompile(`[①②③④⑤⑥⑦⑧⑨⑩]`)
)

// Estimator 难度估算器
type Estimator struct {
	cfg Config
}

// New 创建估算器
func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate 计算难度
func (e *Estimator) Estimate(in Input) *Result {
	text := in.Content
	if len(in.Options) > 0 {
		text += " " + strings.Join(in.Options, " ")
	}
	lower := strings.ToLower(text)
	words := strings.Fields(text)

	f := Factors{
		TextComplexity:      e.textComplexity(text),
		ConceptLevel:        e.conceptLevel(words),
		MathComplexity:      e.mathComplexity(text, lower),
		VocabularyLevel:     vocabularyLevel(words),
		StructureComplexity: structureComplexity(text, len(in.Options)),
	}

	w := e.cfg.Weights
	raw := f.TextComplexity*w.TextComplexity +
		f.ConceptLevel*w.ConceptLevel +
		f.MathComplexity*w.MathComplexity +
		f.VocabularyLevel*w.VocabularyLevel +
		f.StructureComplexity*w.StructureComplexity

	multiplier, ok := e.cfg.GradeMultipliers[in.GradeLevel]
	if !ok {
		multiplier = 1.0
	}
	score := clamp(raw*multiplier, 0, 100)

	result := &Result{
		Score:      round(score, 1),
		RawScore:   round(raw, 1),
		Level:      levelFor(raw),
		Confidence: round(confidence(f.values()), 2),
		Factors: Factors{
			TextComplexity:      round(f.TextComplexity, 1),
			ConceptLevel:        round(f.ConceptLevel, 1),
			MathComplexity:      round(f.MathComplexity, 1),
			VocabularyLevel:     round(f.VocabularyLevel, 1),
			StructureComplexity: round(f.StructureComplexity, 1),
		},
	}
	result.Suggestions = e.suggestions(f, score)
	return result
}

func (e *Estimator) textComplexity(text string) float64 {
	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	avg := float64(utf8.RuneCountInString(strings.TrimSpace(text))) / float64(sentences)
	return math.Min(avg*1.5, 100)
}

func (e *Estimator) conceptLevel(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, word := range words {
		lw := strings.ToLower(word)
		for _, term := range e.cfg.AdvancedVocabulary {
			if strings.Contains(lw, term) {
				hits++
				break
			}
		}
	}
	return math.Min(float64(hits)/float64(len(words))*500, 100)
}

func (e *Estimator) mathComplexity(text, lower string) float64 {
	score := 0.0
	for _, kw := range e.cfg.MathKeywords {
		score += float64(strings.Count(lower, kw)) * 10
	}
	if strings.ContainsAny(text, e.cfg.OperatorGlyphs) {
		score += 20
	}
	if latexMarkup.MatchString(text) {
		score += 30
	}
	return math.Min(score, 100)
}

func vocabularyLevel(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, word := range words {
		total += utf8.RuneCountInString(word)
	}
	return math.Min(float64(total)/float64(len(words))*15, 100)
}

func structureComplexity(text string, optionCount int) float64 {
	score := float64(len(complexClause.FindAllStringIndex(text, -1))) * 15
	if len(circledGlyph.FindAllStringIndex(text, -1)) >= 3 || optionCount > 4 {
		score += 20
	}
	if optionCount > 5 {
		score += 10
	}
	return math.Min(score, 100)
}

func (e *Estimator) suggestions(f Factors, score float64) []string {
	limit := e.cfg.SuggestionThreshold
	out := make([]string, 0)
	if f.TextComplexity > limit {
		out = append(out, "문장이 깁니다. 짧은 문장으로 나누어 제시하세요.")
	}
	if f.ConceptLevel > limit {
		out = append(out, "고난도 개념어가 많습니다. 용어 설명을 덧붙이세요.")
	}
	if f.MathComplexity > limit {
		out = append(out, "수식이 복잡합니다. 풀이 단계를 나누어 제시하세요.")
	}
	if f.VocabularyLevel > limit {
		out = append(out, "어휘 수준이 높습니다. 쉬운 표현으로 바꾸는 것을 고려하세요.")
	}
	if f.StructureComplexity > limit {
		out = append(out, "문장 구조가 복잡합니다. 조건을 목록으로 정리하세요.")
	}
	if score < 20 {
		out = append(out, "난이도가 매우 낮습니다. 응용 요소를 추가하는 것을 고려하세요.")
	}
	return out
}

func levelFor(raw float64) Level {
	switch {
	case raw < 30:
		return LevelEasy
	case raw < 55:
		return LevelMedium
	case raw < 75:
		return LevelHard
	default:
		return LevelVeryHard
	}
}

// confidence 因子越一致置信度越高
func confidence(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return clamp(math.Max(0.3, 1-variance/1000), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
