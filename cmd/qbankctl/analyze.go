package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/next-qbank/internal/service/classifier"
	"github.com/ashwinyue/next-qbank/internal/service/dedup"
	"github.com/ashwinyue/next-qbank/internal/service/difficulty"
	"github.com/ashwinyue/next-qbank/internal/service/reviewer"
	"github.com/ashwinyue/next-qbank/internal/service/segmenter"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Split raw text into candidate problems",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig(cmd)
		if err != nil {
			return err
		}
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return printJSON(cmd, segmenter.New(cfg.Segmenter).Parse(text))
	},
}

// AnalyzedProblem 单题分析结果
type AnalyzedProblem struct {
	Index      int                `json:"index"`
	Content    string             `json:"content"`
	Subject    *classifier.Result `json:"subject"`
	Difficulty *difficulty.Result `json:"difficulty"`
	Duplicates []dedup.Match      `json:"duplicates"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Classify subject, estimate difficulty and find duplicates within the file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig(cmd)
		if err != nil {
			return err
		}
		grade, _ := cmd.Flags().GetInt("grade")
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		parsed := segmenter.New(cfg.Segmenter).Parse(text)
		cls := classifier.New(cfg.Classifier)
		est := difficulty.New(cfg.Difficulty)
		detector := dedup.New(cfg.Dedup)

		corpus := make([]dedup.Entry, len(parsed.Problems))
		for i, p := range parsed.Problems {
			corpus[i] = dedup.Entry{ID: strconv.Itoa(p.Index), Content: p.Content}
		}

		results := make([]AnalyzedProblem, 0, len(parsed.Problems))
		for _, p := range parsed.Problems {
			matches, err := detector.FindDuplicates(cmd.Context(), p.Content, strconv.Itoa(p.Index), corpus)
			if err != nil {
				return fmt.Errorf("problem %d: %w", p.Index, err)
			}
			results = append(results, AnalyzedProblem{
				Index:      p.Index,
				Content:    p.Content,
				Subject:    cls.Classify(p.Content),
				Difficulty: est.Estimate(difficulty.Input{Content: p.Content, Options: p.Options, GradeLevel: grade}),
				Duplicates: matches,
			})
		}
		return printJSON(cmd, results)
	},
}

// ReviewedProblem 单题审核结果
type ReviewedProblem struct {
	Index  int              `json:"index"`
	Review *reviewer.Result `json:"review"`
}

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Run the heuristic reviewer on every parsed problem",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig(cmd)
		if err != nil {
			return err
		}
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		parsed := segmenter.New(cfg.Segmenter).Parse(text)
		rv := reviewer.New(cfg.Reviewer, reviewer.NewFormatVerifier())

		results := make([]ReviewedProblem, 0, len(parsed.Problems))
		for _, p := range parsed.Problems {
			results = append(results, ReviewedProblem{
				Index: p.Index,
				Review: rv.Review(cmd.Context(), &reviewer.Input{
					Content:     p.Content,
					Type:        p.Type,
					Options:     p.Options,
					Answer:      p.Answer,
					Explanation: p.Explanation,
				}),
			})
		}
		return printJSON(cmd, results)
	},
}

func init() {
	analyzeCmd.Flags().Int("grade", 0, "Grade level used for difficulty calibration")
}
