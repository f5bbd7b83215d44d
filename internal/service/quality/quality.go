// Package quality 计算题目的综合质量分
package quality

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// Weights 五个分量的权重
type Weights struct {
	Accuracy      float64
	Clarity       float64
	DifficultyFit float64
	Trust         float64
	Usage         float64
}

// Range 闭区间
type Range struct {
	Min float64
	Max float64
}

// Contains 是否落在区间内
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// UsageStep 使用次数阶梯
type UsageStep struct {
	MaxCount int
	Score    float64
}

// Config 评分配置
type Config struct {
	Weights             Weights
	GradeTrust          map[model.SourceGrade]float64
	DefaultTrust        float64
	MinExplanationRunes int
	// HealthyCorrectRate 正确率落在该区间时准确度加分
	HealthyCorrectRate Range
	// TierCorrectRate 各难度档位期望的正确率区间
	TierCorrectRate map[model.DifficultyTier]Range
	// UsageSteps 按 MaxCount 升序，超出最后一档时得 UsageCap
	UsageSteps    []UsageStep
	UsageCap      float64
	FormulaGlyphs []string
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Accuracy:      0.3,
			Clarity:       0.2,
			DifficultyFit: 0.15,
			Trust:         0.2,
			Usage:         0.15,
		},
		GradeTrust: map[model.SourceGrade]float64{
			model.SourceGradeA: 100,
			model.SourceGradeB: 80,
			model.SourceGradeC: 60,
			model.SourceGradeD: 40,
			model.SourceGradeE: 20,
		},
		DefaultTrust:        40,
		MinExplanationRunes: 10,
		HealthyCorrectRate:  Range{Min: 0.2, Max: 0.8},
		TierCorrectRate: map[model.DifficultyTier]Range{
			model.DifficultyLow:    {Min: 0.6, Max: 1.0},
			model.DifficultyMedium: {Min: 0.3, Max: 0.7},
			model.DifficultyHigh:   {Min: 0, Max: 0.4},
		},
		UsageSteps: []UsageStep{
			{MaxCount: 0, Score: 30},
			{MaxCount: 10, Score: 50},
			{MaxCount: 50, Score: 70},
			{MaxCount: 100, Score: 85},
		},
		UsageCap:      100,
		FormulaGlyphs: []string{"∫", "∑", "√", "π", "≤", "≥", "≠", "=", "^", "\\frac", "\\sqrt", "$"},
	}
}

// Input 评分输入
type Input struct {
	Content     string
	Type        model.ProblemType
	Options     []string
	Answer      string
	Explanation string
	Difficulty  model.DifficultyTier
	UsageCount  int
	CorrectRate *float64
	Source      *model.Source
}

// InputFromProblem 由题目和来源构造评分输入，选项 JSON 错误时视为无选项
func InputFromProblem(p *model.Problem, src *model.Source) *Input {
	options, err := p.GetOptions()
	if err != nil {
		options = nil
	}
	return &Input{
		Content:     p.Content,
		Type:        p.Type,
		Options:     options,
		Answer:      p.Answer,
		Explanation: p.Explanation,
		Difficulty:  p.Difficulty,
		UsageCount:  p.UsageCount,
		CorrectRate: p.CorrectRate,
		Source:      src,
	}
}

// Scorer 质量评分器，无状态
type Scorer struct {
	cfg Config
}

// New 创建评分器
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score 计算五个分量和综合分
func (s *Scorer) Score(in *Input) model.QualityScores {
	scores := model.QualityScores{
		AccuracyScore: round1(s.Accuracy(in)),
		ClarityScore:  round1(s.Clarity(in.Content)),
		DifficultyFit: round1(s.DifficultyFit(in)),
		TrustScore:    round1(s.Trust(in.Source)),
		UsageScore:    round1(s.Usage(in.UsageCount)),
	}
	scores.OverallScore = s.Overall(scores)
	return scores
}

// Overall 按固定权重求和，保留一位小数
func (s *Scorer) Overall(q model.QualityScores) float64 {
	w := s.cfg.Weights
	sum := q.AccuracyScore*w.Accuracy +
		q.ClarityScore*w.Clarity +
		q.DifficultyFit*w.DifficultyFit +
		q.TrustScore*w.Trust +
		q.UsageScore*w.Usage
	return round1(clamp(sum))
}

// Accuracy 准确度
func (s *Scorer) Accuracy(in *Input) float64 {
	score := 60.0
	if strings.TrimSpace(in.Answer) != "" {
		score += 15
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Explanation)) >= s.cfg.MinExplanationRunes {
		score += 15
	}
	if in.Type == model.ProblemTypeMultipleChoice && validOptions(in.Options) >= 2 {
		score += 10
	}
	if in.CorrectRate != nil && s.cfg.HealthyCorrectRate.Contains(*in.CorrectRate) {
		score += 10
	}
	return clamp(score)
}

// Clarity 表述清晰度
func (s *Scorer) Clarity(content string) float64 {
	content = strings.TrimSpace(content)
	score := 50.0

	switch n := utf8.RuneCountInString(content); {
	case n >= 20 && n <= 500:
		score += 20
	case n >= 10 && n <= 1000:
		score += 10
	}
	if strings.ContainsAny(content, ".!?。") {
		score += 10
	}
	if strings.ContainsAny(content, "?？") {
		score += 10
	}
	if content != "" && specialRatio(content) < 0.1 {
		score += 10
	}
	return clamp(score)
}

// DifficultyFit 声明难度与内容特征、正确率的一致程度
func (s *Scorer) DifficultyFit(in *Input) float64 {
	score := 70.0
	words := len(strings.Fields(in.Content))
	formula := s.hasFormula(in.Content)

	switch in.Difficulty {
	case model.DifficultyLow:
		switch {
		case words > 150:
			score -= 20
		case words <= 50:
			score += 10
		}
		if formula {
			score -= 10
		}
	case model.DifficultyMedium:
		if words >= 30 && words <= 200 {
			score += 10
		} else {
			score -= 10
		}
	case model.DifficultyHigh:
		switch {
		case words >= 50 || formula:
			score += 10
		case words < 20:
			score -= 20
		}
	}

	if in.CorrectRate != nil {
		if expected, ok := s.cfg.TierCorrectRate[in.Difficulty]; ok {
			if expected.Contains(*in.CorrectRate) {
				score += 10
			} else {
				score -= 10
			}
		}
	}
	return clamp(score)
}

// Trust 来源可信度：显式覆盖 > 等级映射 > 默认值
func (s *Scorer) Trust(src *model.Source) float64 {
	if src == nil {
		return s.cfg.DefaultTrust
	}
	if src.TrustScore != nil {
		return clamp(*src.TrustScore)
	}
	if v, ok := s.cfg.GradeTrust[src.Grade]; ok {
		return v
	}
	return s.cfg.DefaultTrust
}

// Usage 使用热度
func (s *Scorer) Usage(count int) float64 {
	for _, step := range s.cfg.UsageSteps {
		if count <= step.MaxCount {
			return step.Score
		}
	}
	return s.cfg.UsageCap
}

func (s *Scorer) hasFormula(content string) bool {
	for _, g := range s.cfg.FormulaGlyphs {
		if strings.Contains(content, g) {
			return true
		}
	}
	return false
}

func validOptions(options []string) int {
	n := 0
	for _, opt := range options {
		if strings.TrimSpace(opt) != "" {
			n++
		}
	}
	return n
}

// specialRatio 既非字母数字、也非空白和常用标点的字符占比
func specialRatio(content string) float64 {
	total, special := 0, 0
	for _, r := range content {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		if strings.ContainsRune(".,!?;:'\"()[]-~。？", r) {
			continue
		}
		special++
	}
	return float64(special) / float64(total)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
