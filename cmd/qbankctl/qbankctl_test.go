package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-qbank/internal/service/auth"
)

const sample = "1. 다음 중 소수가 아닌 것을 고르시오.\n① 2 ② 3 ③ 4 ④ 5\n정답: ③\n\n" +
	"2. 다음 중 소수가 아닌 것을 고르시오.\n① 2 ② 3 ③ 4 ④ 5\n정답: ③\n"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, sample, "parse")
	require.NoError(t, err)

	var result struct {
		Problems []json.RawMessage `json:"problems"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Problems, 2)
}

func TestAnalyzeCommand_FindsDuplicatesInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	out, err := run(t, "", "analyze", "--grade", "7", path)
	require.NoError(t, err)

	var results []AnalyzedProblem
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "math", r.Subject.Subject)
		require.Len(t, r.Duplicates, 1)
		assert.Equal(t, 1.0, r.Duplicates[0].Similarity)
	}
}

func TestReviewCommand(t *testing.T) {
	out, err := run(t, sample, "review", "-")
	require.NoError(t, err)

	var results []ReviewedProblem
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Review.RecommendedAction)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("NEXT_QBANK_AUTH_JWTSECRET", "cli-secret")

	out, err := run(t, "", "token", "reviewer-1")
	require.NoError(t, err)

	svc, err := auth.NewService("cli-secret")
	require.NoError(t, err)
	reviewerID, err := svc.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "reviewer-1", reviewerID)
}

func TestTokenCommand_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("NEXT_QBANK_AUTH_JWTSECRET", "cli-secret")

	for _, ttl := range []string{"0s", "-1h"} {
		t.Run(ttl, func(t *testing.T) {
			_, err := run(t, "", "token", "--ttl="+ttl, "reviewer-1")
			assert.ErrorContains(t, err, "--ttl must be positive")
		})
	}

	// 恢复默认值，避免影响后续用例
	require.NoError(t, tokenCmd.Flags().Set("ttl", auth.DefaultTokenTTL.String()))
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("NEXT_QBANK_AUTH_JWTSECRET", "")

	_, err := run(t, "", "token", "reviewer-1")
	assert.Error(t, err)
}
