package segmenter

import "regexp"

// OptionStrategy 一种选项标记风格
// 有捕获组时以第一个捕获组的起点作为标记位置，否则取整个匹配的起点
type OptionStrategy struct {
	Name   string
	Marker *regexp.Regexp
}

// LabelPattern 一种标签匹配规则（정답:、해설: 等）
type LabelPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// Config 切分器配置
type Config struct {
	// ProblemStart 题目起始标记，按行首匹配
	ProblemStart *regexp.Regexp
	// LeadingMarker 从片段开头剥离题号
	LeadingMarker *regexp.Regexp
	// MinFragmentRunes 片段最短字符数
	MinFragmentRunes int
	// OptionStrategies 选项提取策略，按顺序尝试，首个命中的生效
	OptionStrategies []OptionStrategy
	// AnswerPatterns 答案标签，首个命中的生效
	AnswerPatterns []LabelPattern
	// ExplanationPatterns 解析标签，首个命中的生效
	ExplanationPatterns []LabelPattern
	// TrueFalseCues 判断题提示词（小写比较）
	TrueFalseCues []string
	// EssayCues 论述题提示词
	EssayCues []string
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		ProblemStart:     regexp.MustCompile(`(?m)^[ ]*(?:문제|문)?[ ]*(?:\d{1,3}[.)]|\[\d{1,3}\]|\(\d{1,3}\))(?:[^\d.]|$)`),
		LeadingMarker:    regexp.MustCompile(`^[ ]*(?:문제|문)?[ ]*(?:\d{1,3}[.)]|\[\d{1,3}\]|\(\d{1,3}\))[ ]*`),
		MinFragmentRunes: 10,
		OptionStrategies: []OptionStrategy{
			{Name: "circled", Marker: regexp.MustCompile(`[①②③④⑤⑥⑦⑧⑨⑩]`)},
			{Name: "latin", Marker: regexp.MustCompile(`(?:^|\s)([A-E])[.)][ ]`)},
			{Name: "hangul", Marker: regexp.MustCompile(`(?:^|\s)([가나다라마])[.)][ ]`)},
		},
		AnswerPatterns: []LabelPattern{
			{Name: "jeongdap", Pattern: regexp.MustCompile(`정답\s*[:：]`)},
			{Name: "dap", Pattern: regexp.MustCompile(`답\s*[:：]`)},
			{Name: "answer", Pattern: regexp.MustCompile(`(?i)answer\s*[:：]`)},
		},
		ExplanationPatterns: []LabelPattern{
			{Name: "haeseol", Pattern: regexp.MustCompile(`해설\s*[:：]`)},
			{Name: "puri", Pattern: regexp.MustCompile(`풀이\s*[:：]`)},
			{Name: "explanation", Pattern: regexp.MustCompile(`(?i)explanation\s*[:：]`)},
		},
		TrueFalseCues: []string{
			"o/x", "(o, x)", "o, x로", "○/×", "○, ×", "참/거짓", "참 또는 거짓", "true or false", "true/false",
		},
		EssayCues: []string{
			"서술하시오", "논술하시오", "설명하시오", "논하시오", "서술하라", "논술하라",
		},
	}
}
