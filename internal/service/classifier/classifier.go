// Package classifier 基于关键词表推断题目学科
package classifier

import (
	"math"
	"strings"
)

// SubjectKeywords 学科及其关键词
type SubjectKeywords struct {
	Subject  string
	Keywords []string
}

// Config 分类器配置
// Subjects 的顺序即平局时的优先顺序
type Config struct {
	Subjects []SubjectKeywords
	// SaturationCount 命中多少个关键词时置信度达到 1
	SaturationCount int
}

// DefaultConfig 默认关键词表
func DefaultConfig() Config {
	return Config{
		SaturationCount: 5,
		Subjects: []SubjectKeywords{
			{Subject: "math", Keywords: []string{
				"방정식", "함수", "미분", "적분", "확률", "통계", "삼각형", "다항식", "인수분해", "좌표",
				"기울기", "넓이", "부피", "소수", "약수", "배수", "분수", "수열", "행렬", "로그",
				"equation", "function", "derivative", "integral", "probability", "triangle", "polynomial",
			}},
			{Subject: "korean", Keywords: []string{
				"문학", "시조", "소설", "수필", "화자", "주제", "비유", "문법", "맞춤법", "띄어쓰기",
				"품사", "어휘", "문단", "글쓴이", "갈래", "표현법", "음운", "형태소",
			}},
			{Subject: "english", Keywords: []string{
				"영어", "빈칸", "어법", "밑줄 친", "grammar", "vocabulary", "passage", "sentence",
				"paragraph", "the following", "synonym", "tense", "verb", "noun",
			}},
			{Subject: "science", Keywords: []string{
				"원자", "분자", "화학", "물리", "생물", "지구과학", "세포", "유전", "에너지", "전류",
				"전압", "속력", "가속도", "광합성", "산소", "화합물", "원소", "중력",
				"atom", "molecule", "cell", "energy", "velocity", "photosynthesis",
			}},
			{Subject: "social", Keywords: []string{
				"역사", "조선", "고려", "삼국", "정치", "경제", "사회", "지리", "헌법", "민주주의",
				"시장", "수요", "공급", "문화", "인구", "국회", "선거", "산업혁명",
				"history", "economy", "government", "democracy",
			}},
		},
	}
}

// Result 分类结果
type Result struct {
	Subject    string         `json:"subject"`
	Confidence float64        `json:"confidence"`
	Keywords   []string       `json:"keywords"`
	Scores     map[string]int `json:"scores"`
}

// Classifier 学科分类器
type Classifier struct {
	cfg Config
}

// New 创建分类器
func New(cfg Config) *Classifier {
	if cfg.SaturationCount <= 0 {
		cfg.SaturationCount = 5
	}
	return &Classifier{cfg: cfg}
}

// Classify 对文本进行学科分类
// 每个学科得分为文本中出现的关键词个数；最高分相同时取配置中靠前的学科
func (c *Classifier) Classify(text string) *Result {
	lower := strings.ToLower(text)
	result := &Result{
		Keywords: make([]string, 0),
		Scores:   make(map[string]int, len(c.cfg.Subjects)),
	}

	seen := make(map[string]struct{})
	best := 0
	for _, subject := range c.cfg.Subjects {
		score := 0
		for _, kw := range subject.Keywords {
			if kw == "" || !strings.Contains(lower, strings.ToLower(kw)) {
				continue
			}
			score++
			if _, ok := seen[kw]; !ok {
				seen[kw] = struct{}{}
				result.Keywords = append(result.Keywords, kw)
			}
		}
		result.Scores[subject.Subject] = score
		if score > best {
			best = score
			result.Subject = subject.Subject
		}
	}

	result.Confidence = math.Min(float64(best)/float64(c.cfg.SaturationCount), 1)
	return result
}
