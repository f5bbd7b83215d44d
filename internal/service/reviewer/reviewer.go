// Package reviewer 对题目执行启发式质量审核并给出处理建议
package reviewer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// Action 建议的处理动作
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionRevise  Action = "REVISE"
	ActionReject  Action = "REJECT"
)

// Severity 动作的严重程度，数值越大越严格
func (a Action) Severity() int {
	switch a {
	case ActionApprove:
		return 0
	case ActionRevise:
		return 1
	default:
		return 2
	}
}

// Outcome 映射为审核记录的结论
func (a Action) Outcome() model.ReviewOutcome {
	switch a {
	case ActionApprove:
		return model.ReviewOutcomeApproved
	case ActionRevise:
		return model.ReviewOutcomeNeedsRevision
	default:
		return model.ReviewOutcomeRejected
	}
}

// Input 审核输入
type Input struct {
	Content     string            `json:"content"`
	Type        model.ProblemType `json:"type"`
	Options     []string          `json:"options"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation"`
	// OptionsError 选项 JSON 解析失败时的错误
	OptionsError error `json:"-"`
}

// InputFromProblem 由持久化题目构造审核输入
// 选项 JSON 格式错误时按无选项处理，并记录错误
func InputFromProblem(p *model.Problem) *Input {
	options, err := p.GetOptions()
	return &Input{
		Content:      p.Content,
		Type:         p.Type,
		Options:      options,
		Answer:       p.Answer,
		Explanation:  p.Explanation,
		OptionsError: err,
	}
}

// QualityChecks 五项质量检查
type QualityChecks struct {
	HasAnswer         bool `json:"has_answer"`
	HasOptions        bool `json:"has_options"`
	HasExplanation    bool `json:"has_explanation"`
	AppropriateLength bool `json:"appropriate_length"`
	NoTypos           bool `json:"no_typos"`
}

// Passed 通过的检查项数
func (c QualityChecks) Passed() int {
	n := 0
	for _, ok := range []bool{c.HasAnswer, c.HasOptions, c.HasExplanation, c.AppropriateLength, c.NoTypos} {
		if ok {
			n++
		}
	}
	return n
}

const totalChecks = 5

// Result 审核结果
type Result struct {
	AnswerVerification   VerificationResult `json:"answer_verification"`
	GeneratedExplanation string             `json:"generated_explanation,omitempty"`
	DetectedIssues       []string           `json:"detected_issues"`
	ReviewWarnings       []string           `json:"review_warnings"`
	QualityChecks        QualityChecks      `json:"quality_checks"`
	RecommendedAction    Action             `json:"recommended_action"`
	OverallConfidence    float64            `json:"overall_confidence"`
}

// Config 审核配置
type Config struct {
	MinContentRunes     int
	MaxContentRunes     int
	MinExplanationRunes int
	MaxOptions          int
	ShortContentWarn    int
	LongContentWarn     int
	ApproveConfidence   float64
	QuestionCues        []string
	CopyrightCues       []string
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		MinContentRunes:     20,
		MaxContentRunes:     2000,
		MinExplanationRunes: 10,
		MaxOptions:          6,
		ShortContentWarn:    50,
		LongContentWarn:     1000,
		ApproveConfidence:   0.6,
		QuestionCues: []string{
			"?", "？", "무엇", "고르시오", "구하시오", "쓰시오", "하시오", "것은", "옳은", "맞는", "인가",
			"which", "what", "choose", "find", "select", "how", "why",
		},
		CopyrightCues: []string{
			"©", "copyright", "저작권", "무단 전재", "무단 복제", "all rights reserved",
		},
	}
}

// Reviewer 启发式审核器
type Reviewer struct {
	cfg      Config
	verifier Verifier
}

// New 创建审核器，verifier 为 nil 时使用 FormatVerifier
func New(cfg Config, verifier Verifier) *Reviewer {
	if verifier == nil {
		fv := NewFormatVerifier()
		fv.MinExplanationRunes = cfg.MinExplanationRunes
		verifier = fv
	}
	return &Reviewer{cfg: cfg, verifier: verifier}
}

// Review 执行审核
func (r *Reviewer) Review(ctx context.Context, in *Input) *Result {
	if in.OptionsError != nil {
		in = withoutOptions(in)
	}

	checks := r.checks(in)
	issues := r.issues(in)
	warnings := r.warnings(in)
	verification := r.verifier.Verify(ctx, in)

	result := &Result{
		AnswerVerification: verification,
		DetectedIssues:     issues,
		ReviewWarnings:     warnings,
		QualityChecks:      checks,
		RecommendedAction:  Decide(len(issues), checks, verification, r.cfg.ApproveConfidence),
		OverallConfidence:  OverallConfidence(verification.Confidence, checks.Passed(), len(issues)),
	}
	if !checks.HasExplanation {
		result.GeneratedExplanation = generateExplanation(in)
	}
	return result
}

// Decide 决策规则
// 问题数 ≥3 或缺少答案时拒绝；有问题、校验失败、解析或错别字检查不通过时要求修改；
// 否则校验置信度达到阈值才通过
func Decide(issueCount int, checks QualityChecks, v VerificationResult, approveConfidence float64) Action {
	if issueCount >= 3 || !checks.HasAnswer {
		return ActionReject
	}
	if issueCount > 0 || !v.IsCorrect || !checks.HasExplanation || !checks.NoTypos {
		return ActionRevise
	}
	if v.Confidence >= approveConfidence {
		return ActionApprove
	}
	return ActionRevise
}

// OverallConfidence 综合置信度
func OverallConfidence(verificationConfidence float64, passed, issueCount int) float64 {
	penalty := math.Min(0.1*float64(issueCount), 0.3)
	v := 0.5*verificationConfidence + 0.5*(float64(passed)/totalChecks) - penalty
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*100) / 100
}

func (r *Reviewer) checks(in *Input) QualityChecks {
	length := utf8.RuneCountInString(strings.TrimSpace(in.Content))
	return QualityChecks{
		HasAnswer:         strings.TrimSpace(in.Answer) != "",
		HasOptions:        in.Type != model.ProblemTypeMultipleChoice || len(in.Options) >= 2,
		HasExplanation:    utf8.RuneCountInString(strings.TrimSpace(in.Explanation)) >= r.cfg.MinExplanationRunes,
		AppropriateLength: length >= r.cfg.MinContentRunes && length <= r.cfg.MaxContentRunes,
		NoTypos:           !HasTypos(in.Content),
	}
}

func (r *Reviewer) issues(in *Input) []string {
	issues := make([]string, 0)
	content := strings.TrimSpace(in.Content)

	if in.OptionsError != nil {
		issues = append(issues, "선택지 데이터 형식이 올바르지 않습니다.")
	}
	if utf8.RuneCountInString(content) < r.cfg.MinContentRunes {
		issues = append(issues, fmt.Sprintf("문제 본문이 너무 짧습니다(%d자 미만).", r.cfg.MinContentRunes))
	}
	if !r.hasQuestionCue(content) {
		issues = append(issues, "질문 형식의 표현이 없습니다.")
	}
	if strings.TrimSpace(in.Answer) == "" {
		issues = append(issues, "정답이 비어 있습니다.")
	}

	if in.Type == model.ProblemTypeMultipleChoice {
		switch n := len(in.Options); {
		case n == 0:
			issues = append(issues, "선택지가 없습니다.")
		case n < 2:
			issues = append(issues, "선택지가 너무 적습니다.")
		case n > r.cfg.MaxOptions:
			issues = append(issues, fmt.Sprintf("선택지가 너무 많습니다(%d개 초과).", r.cfg.MaxOptions))
		}
		if hasDuplicateOptions(in.Options) {
			issues = append(issues, "중복된 선택지가 있습니다.")
		}
		if answer := strings.TrimSpace(in.Answer); answer != "" {
			if _, ok := answerIndexes(answer, in.Options); !ok {
				issues = append(issues, "정답이 선택지 표기와 일치하지 않습니다.")
			}
		}
	}
	return issues
}

func (r *Reviewer) warnings(in *Input) []string {
	warnings := make([]string, 0)
	explanation := utf8.RuneCountInString(strings.TrimSpace(in.Explanation))
	switch {
	case explanation == 0:
		warnings = append(warnings, "해설이 없습니다.")
	case explanation < r.cfg.MinExplanationRunes:
		warnings = append(warnings, "해설이 너무 짧습니다.")
	}

	length := utf8.RuneCountInString(strings.TrimSpace(in.Content))
	switch {
	case length < r.cfg.ShortContentWarn:
		warnings = append(warnings, "문제 본문이 짧아 의도가 불분명할 수 있습니다.")
	case length > r.cfg.LongContentWarn:
		warnings = append(warnings, "문제 본문이 길어 가독성이 떨어질 수 있습니다.")
	}

	lower := strings.ToLower(in.Content + "\n" + in.Explanation)
	for _, cue := range r.cfg.CopyrightCues {
		if strings.Contains(lower, cue) {
			warnings = append(warnings, "저작권 관련 표시가 포함되어 있습니다.")
			break
		}
	}
	return warnings
}

func (r *Reviewer) hasQuestionCue(content string) bool {
	lower := strings.ToLower(content)
	for _, cue := range r.cfg.QuestionCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

var gluedParenthesis = regexp.MustCompile(`\)[0-9A-Za-z]{2,}`)

// HasTypos 检查常见排版错误：重复标点、连续空格、括号后缺少空格
// 三个及以上的连续句点视为省略号
func HasTypos(text string) bool {
	if strings.Contains(strings.TrimSpace(text), "  ") {
		return true
	}
	if gluedParenthesis.MatchString(text) {
		return true
	}

	var prev rune
	run := 0
	for _, r := range text + "\x00" {
		if r == prev && strings.ContainsRune(",.!?;:", r) {
			run++
			continue
		}
		if run == 2 || (run > 2 && prev != '.') {
			return true
		}
		prev, run = r, 1
	}
	return false
}

func hasDuplicateOptions(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		key := strings.ToLower(strings.Join(strings.Fields(opt), " "))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// generateExplanation 缺少解析时生成确定性的解析草稿
func generateExplanation(in *Input) string {
	answer := strings.TrimSpace(in.Answer)
	if answer == "" {
		return ""
	}
	if in.Type == model.ProblemTypeMultipleChoice {
		if idx, ok := answerIndexes(answer, in.Options); ok && len(idx) == 1 && idx[0] < len(in.Options) {
			return fmt.Sprintf("정답은 %s(%s)입니다. 나머지 선택지가 조건에 맞지 않는 이유를 하나씩 확인해 보세요.", answer, in.Options[idx[0]])
		}
	}
	return fmt.Sprintf("정답은 %s입니다. 문제의 조건을 차례로 정리하여 답을 확인해 보세요.", answer)
}

func withoutOptions(in *Input) *Input {
	cp := *in
	cp.Options = nil
	return &cp
}
