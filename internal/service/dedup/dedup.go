// Package dedup 基于 Jaccard 相似度检测重复题目
package dedup

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Entry 语料条目
type Entry struct {
	ID      string
	Content string
}

// Match 命中的重复项
type Match struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
	Preview    string  `json:"preview"`
}

// Config 检测器配置
type Config struct {
	// Threshold 相似度达到该值即判为重复
	Threshold float64
	// PreviewRunes 预览截取长度
	PreviewRunes int
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{Threshold: 0.7, PreviewRunes: 100}
}

var stripPattern = regexp.MustCompile(`[^\p{Hangul}\w\s]+`)

// Tokens 归一化后的词集合，丢弃单字符词
func Tokens(text string) map[string]struct{} {
	cleaned := stripPattern.ReplaceAllString(strings.ToLower(norm.NFC.String(text)), "")
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) <= 1 {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// Similarity 两段文本的 Jaccard 相似度
func Similarity(a, b string) float64 {
	return jaccard(Tokens(a), Tokens(b), a, b)
}

func jaccard(ta, tb map[string]struct{}, a, b string) float64 {
	if len(ta) == 0 && len(tb) == 0 {
		// 没有可比较的词时只认定完全相同的非空文本
		if a == b && strings.TrimSpace(a) != "" {
			return 1
		}
		return 0
	}
	small, large := ta, tb
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// Detector 重复检测器
type Detector struct {
	cfg Config
}

// New 创建检测器
func New(cfg Config) *Detector {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.7
	}
	if cfg.PreviewRunes <= 0 {
		cfg.PreviewRunes = 100
	}
	return &Detector{cfg: cfg}
}

// Threshold 当前阈值
func (d *Detector) Threshold() float64 {
	return d.cfg.Threshold
}

// FindDuplicates 在给定语料中查找重复项，excludeID 用于排除候选自身
func (d *Detector) FindDuplicates(ctx context.Context, candidate, excludeID string, corpus []Entry) ([]Match, error) {
	s := d.newScan(candidate, excludeID)
	if err := s.add(ctx, corpus); err != nil {
		return nil, err
	}
	return s.result(), nil
}

// Scan 遍历语料提供者返回的全部批次
func (d *Detector) Scan(ctx context.Context, candidate, excludeID string, corpus CorpusProvider) ([]Match, error) {
	s := d.newScan(candidate, excludeID)
	err := corpus.Candidates(ctx, candidate, func(batch []Entry) error {
		return s.add(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return s.result(), nil
}

type scan struct {
	d         *Detector
	candidate string
	tokens    map[string]struct{}
	excludeID string
	matches   []Match
}

func (d *Detector) newScan(candidate, excludeID string) *scan {
	return &scan{
		d:         d,
		candidate: candidate,
		tokens:    Tokens(candidate),
		excludeID: excludeID,
		matches:   make([]Match, 0),
	}
}

func (s *scan) add(ctx context.Context, batch []Entry) error {
	for i, entry := range batch {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if entry.ID != "" && entry.ID == s.excludeID {
			continue
		}
		sim := jaccard(s.tokens, Tokens(entry.Content), s.candidate, entry.Content)
		if sim < s.d.cfg.Threshold {
			continue
		}
		s.matches = append(s.matches, Match{
			ID:         entry.ID,
			Similarity: math.Round(sim*100) / 100,
			Preview:    preview(entry.Content, s.d.cfg.PreviewRunes),
		})
	}
	return nil
}

func (s *scan) result() []Match {
	sortMatches(s.matches)
	return s.matches
}

// MergeMatches 合并多个语料的命中结果，按 ID 去重后重新排序
func MergeMatches(lists ...[]Match) []Match {
	seen := make(map[string]struct{})
	merged := make([]Match, 0)
	for _, list := range lists {
		for _, m := range list {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	sortMatches(merged)
	return merged
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
}

func preview(content string, limit int) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit])
}
