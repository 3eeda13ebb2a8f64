package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type scoreCase struct {
	Name          string          `json:"name"`
	Input         json.RawMessage `json:"input"`
	ExpectSuccess bool            `json:"expect_success"`
	ExpectScore   *float64        `json:"expect_final_score"`
	ExpectPassed  *bool           `json:"expect_passed"`
	Critical      bool            `json:"critical"`
}

type config struct {
	Cases []scoreCase `json:"cases"`
}

type calculated struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	FinalScore *float64 `json:"final_score"`
	Passed     *bool    `json:"passed"`
}

type outcome struct {
	Case     scoreCase
	Status   int
	Got      calculated
	Mismatch []string
	Error    error
	Duration time.Duration
}

func main() {
	var (
		baseURL   string
		casesPath string
		timeout   time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "Score API base URL")
	flag.StringVar(&casesPath, "cases", filepath.Join("scripts", "score_check", "cases.json"), "Path to JSON cases file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	cases, err := loadCases(casesPath)
	if err != nil {
		log.Fatalf("failed to load cases: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		outcomes []outcome
		breaking int
		optional int
	)

	for _, sc := range cases {
		res := runCase(client, baseURL, sc)
		if res.Error != nil || len(res.Mismatch) > 0 {
			if sc.Critical {
				breaking++
			} else {
				optional++
			}
		}
		outcomes = append(outcomes, res)
	}

	printReport(outcomes)

	fmt.Printf("Breaking mismatches: %d, Optional mismatches: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadCases(path string) ([]scoreCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Cases) == 0 {
		return nil, fmt.Errorf("no cases defined in %s", path)
	}
	return cfg.Cases, nil
}

func runCase(client *http.Client, base string, sc scoreCase) outcome {
	res := outcome{Case: sc}
	if client == nil {
		res.Error = errors.New("nil client")
		return res
	}

	url := strings.TrimRight(base, "/") + "/scores/calculate"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(sc.Input))
	if err != nil {
		res.Error = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = fmt.Errorf("request failed: %w", err)
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}
	var envelope struct {
		Data calculated `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		res.Error = fmt.Errorf("decode body: %w", err)
		return res
	}
	res.Got = envelope.Data
	res.Mismatch = compare(sc, res.Got)
	return res
}

// compare lists every expectation the calculated result misses. Scores match to two decimals.
func compare(sc scoreCase, got calculated) []string {
	var diffs []string
	if got.Success != sc.ExpectSuccess {
		diffs = append(diffs, fmt.Sprintf("success: want %t, got %t (%s)", sc.ExpectSuccess, got.Success, got.Error))
	}
	switch {
	case sc.ExpectScore == nil && got.FinalScore != nil:
		diffs = append(diffs, fmt.Sprintf("final_score: want absent, got %.2f", *got.FinalScore))
	case sc.ExpectScore != nil && got.FinalScore == nil:
		diffs = append(diffs, fmt.Sprintf("final_score: want %.2f, got absent", *sc.ExpectScore))
	case sc.ExpectScore != nil && math.Abs(*sc.ExpectScore-*got.FinalScore) > 0.005:
		diffs = append(diffs, fmt.Sprintf("final_score: want %.2f, got %.2f", *sc.ExpectScore, *got.FinalScore))
	}
	if sc.ExpectPassed != nil && (got.Passed == nil || *got.Passed != *sc.ExpectPassed) {
		diffs = append(diffs, fmt.Sprintf("passed: want %t, got %v", *sc.ExpectPassed, formatBool(got.Passed)))
	}
	return diffs
}

func formatBool(b *bool) string {
	if b == nil {
		return "absent"
	}
	return fmt.Sprintf("%t", *b)
}

func printReport(results []outcome) {
	fmt.Println("Score Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if len(res.Mismatch) > 0 {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s (%d, %s)\n", status, res.Case.Name, res.Status, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
		for _, diff := range res.Mismatch {
			fmt.Printf("  %s\n", diff)
		}
	}
}
