package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
)

var rootCmd = &cobra.Command{
	Use:          "qbankctl",
	Short:        "Offline tools for the problem bank pipeline",
	Long:         "qbankctl runs the parse, analyze and review stages on a local text file without a database.",
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (defaults are used when empty)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig 读取 --config 指定的配置，未指定时只使用默认值和环境变量
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// pipelineConfig 分析器配置
func pipelineConfig(cmd *cobra.Command) (pipeline.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.ConfigFrom(&cfg.Pipeline), nil
}

// readInput 读取文件参数，"-" 或缺省时读标准输入
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
