// Command prompttest runs the analyze and SOAP note pipelines against a live
// provider from the command line and prints the result.
//
// Usage:
//
//	prompttest analyze --assessment assessment.json [--pillar-names names.json]
//	prompttest soap --shorthand "pt c/o fatigue, 6/10 pain" [--context ctx.json]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ot-backend/internal/assessments"
	"ot-backend/internal/bootstrap"
	"ot-backend/internal/shared/config"
	"ot-backend/internal/soapnotes"
)

var (
	provider string
	model    string
	outPath  string

	assessmentPath  string
	pillarNamesPath string

	shorthand   string
	contextPath string
)

// buildApp is swapped in tests.
var buildApp = bootstrap.Build

var rootCmd = &cobra.Command{
	Use:           "prompttest",
	Short:         "Run OT prompts against the configured provider",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an assessment file",
	Long: `Sends the overview, pillar insights and intervention plan prompts for one
assessment and prints the merged result.`,
	RunE: runAnalyze,
}

var soapCmd = &cobra.Command{
	Use:   "soap",
	Short: "Generate a SOAP note from shorthand",
	RunE:  runSoap,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider (openai or gemini); defaults to LLM_PROVIDER")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model override; defaults to LLM_MODEL")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "write JSON output to this file instead of stdout")

	analyzeCmd.Flags().StringVar(&assessmentPath, "assessment", "", "path to an assessment JSON document")
	analyzeCmd.Flags().StringVar(&pillarNamesPath, "pillar-names", "", "path to a pillar name map JSON object")
	_ = analyzeCmd.MarkFlagRequired("assessment")

	soapCmd.Flags().StringVar(&shorthand, "shorthand", "", "therapist shorthand")
	soapCmd.Flags().StringVar(&contextPath, "context", "", "path to a client context JSON document")
	_ = soapCmd.MarkFlagRequired("shorthand")

	rootCmd.AddCommand(analyzeCmd, soapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadApp() (*bootstrap.App, error) {
	cfg := config.Load()
	if p := strings.TrimSpace(provider); p != "" {
		cfg.LLMProvider = config.NormalizeProvider(p)
		if model == "" {
			cfg.LLMModel = config.DefaultModel(cfg.LLMProvider)
		}
	}
	if m := strings.TrimSpace(model); m != "" {
		cfg.LLMModel = m
	}
	return buildApp(cfg)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var assessment assessments.Assessment
	if err := readJSON(assessmentPath, &assessment); err != nil {
		return fmt.Errorf("read assessment: %w", err)
	}
	in := assessments.AnalyzeInput{Assessment: &assessment}
	if pillarNamesPath != "" {
		var names assessments.Object[string]
		if err := readJSON(pillarNamesPath, &names); err != nil {
			return fmt.Errorf("read pillar names: %w", err)
		}
		in.PillarNameMap = &names
	}

	app, err := loadApp()
	if err != nil {
		return err
	}
	result, err := app.Analyzer.Analyze(commandContext(cmd), in)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func runSoap(cmd *cobra.Command, args []string) error {
	req := soapnotes.Request{Shorthand: shorthand}
	if contextPath != "" {
		raw, err := os.ReadFile(contextPath)
		if err != nil {
			return fmt.Errorf("read context: %w", err)
		}
		if !json.Valid(raw) {
			return fmt.Errorf("context %s is not valid JSON", contextPath)
		}
		req.ClientContext = bytes.TrimSpace(raw)
	}

	app, err := loadApp()
	if err != nil {
		return err
	}
	note, err := app.SoapNotes.Generate(commandContext(cmd), req)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), note)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func writeJSON(stdout io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if outPath != "" {
		return os.WriteFile(outPath, out, 0o644)
	}
	_, err = stdout.Write(out)
	return err
}
