// Package segmenter 将原始文档文本切分为候选题目
package segmenter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// CandidateProblem 解析出的候选题目（未持久化）
type CandidateProblem struct {
	Index       int               `json:"index"`
	Raw         string            `json:"raw"`
	Content     string            `json:"content"`
	Options     []string          `json:"options,omitempty"`
	Answer      string            `json:"answer,omitempty"`
	HasAnswer   bool              `json:"has_answer"`
	Explanation string            `json:"explanation,omitempty"`
	Type        model.ProblemType `json:"type"`
}

// ParseResult 解析结果
type ParseResult struct {
	Success  bool                `json:"success"`
	Problems []*CandidateProblem `json:"problems"`
	RawText  string              `json:"raw_text"`
	Errors   []string            `json:"errors"`
}

// Segmenter 题目切分器
type Segmenter struct {
	cfg Config
}

// New 创建切分器
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

var (
	blankRun  = regexp.MustCompile(`[ ]{2,}`)
	lineBreak = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ", "\u00a0", " ")
)

// Normalize 统一换行、制表符并做 NFC 规范化
func Normalize(text string) string {
	return norm.NFC.String(lineBreak.Replace(text))
}

// Parse 解析文档文本
// 任何输入都返回结果；单个片段的异常只记录在 Errors 中
func (s *Segmenter) Parse(text string) *ParseResult {
	normalized := Normalize(text)
	result := &ParseResult{
		RawText:  normalized,
		Problems: make([]*CandidateProblem, 0),
		Errors:   make([]string, 0),
	}

	for i, fragment := range s.split(normalized) {
		candidate, err := s.parseFragmentSafe(fragment)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("fragment %d: %v", i+1, err))
			continue
		}
		if candidate == nil {
			continue
		}
		candidate.Index = len(result.Problems)
		result.Problems = append(result.Problems, candidate)
	}

	result.Success = len(result.Problems) > 0
	if !result.Success && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "no problem content found")
	}
	return result
}

// split 按题号切分；文本中没有题号时整体作为一个片段
// 第一个题号之前的内容视为文档标题，不参与解析
func (s *Segmenter) split(text string) []string {
	locs := s.cfg.ProblemStart.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	fragments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fragments = append(fragments, text[loc[0]:end])
	}
	return fragments
}

func (s *Segmenter) parseFragmentSafe(fragment string) (candidate *CandidateProblem, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidate = nil
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return s.parseFragment(fragment)
}

// span 需要从正文中剥离的区间
type span struct{ start, end int }

func (s *Segmenter) parseFragment(fragment string) (*CandidateProblem, error) {
	raw := strings.TrimSpace(fragment)
	if raw == "" {
		return nil, nil
	}
	if n := utf8.RuneCountInString(raw); n < s.cfg.MinFragmentRunes {
		return nil, fmt.Errorf("too short (%d chars)", n)
	}

	body := s.cfg.LeadingMarker.ReplaceAllString(raw, "")

	// 选项只在第一个答案/解析标签之前查找
	cut := len(body)
	for _, p := range s.cfg.AnswerPatterns {
		if loc := p.Pattern.FindStringIndex(body); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	for _, p := range s.cfg.ExplanationPatterns {
		if loc := p.Pattern.FindStringIndex(body); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	head, tail := body[:cut], body[cut:]

	var strip []span
	options, optSpan, ok := s.extractOptions(head)
	if ok {
		strip = append(strip, optSpan)
	}

	answer, answerSpan, hasAnswerLabel := s.extractAnswer(tail)
	explanation, explSpan, hasExplanation := s.extractExplanation(tail, answerSpan, hasAnswerLabel)

	content := cleanText(head, strip)
	var tailStrip []span
	if hasAnswerLabel {
		tailStrip = append(tailStrip, answerSpan)
	}
	if hasExplanation {
		tailStrip = append(tailStrip, explSpan)
	}
	if rest := cleanText(tail, tailStrip); rest != "" {
		content = strings.TrimSpace(content + "\n" + rest)
	}
	if content == "" {
		return nil, fmt.Errorf("no question text after extraction")
	}

	candidate := &CandidateProblem{
		Raw:         raw,
		Content:     content,
		Options:     options,
		Answer:      answer,
		HasAnswer:   answer != "",
		Explanation: explanation,
	}
	candidate.Type = s.detectType(content, options)
	return candidate, nil
}

// firstMatch 依次尝试策略，返回第一个成功的结果
func firstMatch[S any, R any](strategies []S, try func(S) (R, bool)) (R, bool) {
	for _, strategy := range strategies {
		if r, ok := try(strategy); ok {
			return r, true
		}
	}
	var zero R
	return zero, false
}

type optionMatch struct {
	options []string
	area    span
}

func (s *Segmenter) extractOptions(head string) ([]string, span, bool) {
	m, ok := firstMatch(s.cfg.OptionStrategies, func(st OptionStrategy) (optionMatch, bool) {
		return matchOptions(st.Marker, head)
	})
	if !ok {
		return nil, span{}, false
	}
	return m.options, m.area, true
}

// matchOptions 以标记位置切分选项，每个选项止于下一个标记或换行
func matchOptions(marker *regexp.Regexp, text string) (optionMatch, bool) {
	locs := marker.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return optionMatch{}, false
	}

	starts := make([]int, len(locs))
	for i, loc := range locs {
		starts[i] = loc[0]
		if len(loc) >= 4 && loc[2] >= 0 {
			starts[i] = loc[2]
		}
	}

	var options []string
	end := starts[0]
	for i, loc := range locs {
		limit := len(text)
		if i+1 < len(locs) {
			limit = starts[i+1]
		}
		segment := text[loc[1]:limit]
		if nl := strings.IndexByte(segment, '\n'); nl >= 0 {
			segment = segment[:nl]
		}
		end = loc[1] + len(segment)
		if opt := collapseSpaces(segment); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) == 0 {
		return optionMatch{}, false
	}
	return optionMatch{options: options, area: span{start: starts[0], end: end}}, true
}

type labelMatch struct {
	value string
	area  span
}

func (s *Segmenter) extractAnswer(tail string) (string, span, bool) {
	m, ok := firstMatch(s.cfg.AnswerPatterns, func(p LabelPattern) (labelMatch, bool) {
		loc := p.Pattern.FindStringIndex(tail)
		if loc == nil {
			return labelMatch{}, false
		}
		line := tail[loc[1]:]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		// 同一行里出现解析标签时答案到此为止
		for _, ep := range s.cfg.ExplanationPatterns {
			if el := ep.Pattern.FindStringIndex(line); el != nil {
				line = line[:el[0]]
			}
		}
		return labelMatch{
			value: collapseSpaces(line),
			area:  span{start: loc[0], end: loc[1] + len(line)},
		}, true
	})
	if !ok {
		return "", span{}, false
	}
	return m.value, m.area, true
}

// extractExplanation 解析从标签一直到片段末尾；答案行位于解析之后时在答案处截断
func (s *Segmenter) extractExplanation(tail string, answer span, hasAnswer bool) (string, span, bool) {
	m, ok := firstMatch(s.cfg.ExplanationPatterns, func(p LabelPattern) (labelMatch, bool) {
		loc := p.Pattern.FindStringIndex(tail)
		if loc == nil {
			return labelMatch{}, false
		}
		end := len(tail)
		if hasAnswer && answer.start > loc[0] && answer.start < end {
			end = answer.start
		}
		start := loc[1]
		if start > end {
			start = end
		}
		return labelMatch{
			value: tidyLines(tail[start:end]),
			area:  span{start: loc[0], end: end},
		}, true
	})
	if !ok {
		return "", span{}, false
	}
	return m.value, m.area, true
}

func (s *Segmenter) detectType(content string, options []string) model.ProblemType {
	lower := strings.ToLower(content)
	for _, cue := range s.cfg.TrueFalseCues {
		if strings.Contains(lower, cue) {
			return model.ProblemTypeTrueFalse
		}
	}
	for _, cue := range s.cfg.EssayCues {
		if strings.Contains(content, cue) {
			return model.ProblemTypeEssay
		}
	}
	if len(options) >= 2 {
		return model.ProblemTypeMultipleChoice
	}
	return model.ProblemTypeShortAnswer
}

// cleanText 去掉给定区间后整理空白
func cleanText(text string, spans []span) string {
	if len(spans) == 0 {
		return tidyLines(text)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		if sp.start < pos {
			sp.start = pos
		}
		if sp.end < sp.start {
			continue
		}
		b.WriteString(text[pos:sp.start])
		b.WriteByte(' ')
		pos = sp.end
	}
	if pos < len(text) {
		b.WriteString(text[pos:])
	}
	return tidyLines(b.String())
}

// tidyLines 逐行去除首尾空白、合并连续空格并丢弃空行
func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, " "))
}
