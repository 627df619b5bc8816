// ABOUTME: Evaluation runner answering every case and aggregating scores
// ABOUTME: Reports gate accuracy alongside faithfulness and context recall
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// PassThreshold is the minimum faithfulness and recall for an answered case to pass
const PassThreshold = 0.9

// Answerer answers one question
type Answerer interface {
	Answer(ctx context.Context, question string) models.Answer
}

// Result is the outcome of one case
type Result struct {
	CaseID             string              `json:"case_id"`
	CaseName           string              `json:"case_name"`
	ExpectStatus       models.AnswerStatus `json:"expect_status"`
	AnswerStatus       models.AnswerStatus `json:"answer_status"`
	GateCorrect        bool                `json:"gate_correct"`
	FaithfulnessScore  float64             `json:"faithfulness"`
	ContextRecallScore float64             `json:"context_recall"`
	OverallScore       float64             `json:"overall"`
	Status             string              `json:"status"` // "PASS" or "FAIL"
	Details            map[string]any      `json:"details,omitempty"`
	Duration           time.Duration       `json:"duration"`
}

// Report aggregates a whole run
type Report struct {
	Timestamp    time.Time `json:"timestamp"`
	Total        int       `json:"total_cases"`
	Passed       int       `json:"passed"`
	Failed       int       `json:"failed"`
	GateAccuracy float64   `json:"gate_accuracy"`
	Results      []Result  `json:"results"`
}

// Runner executes evaluation cases
type Runner struct {
	answerer Answerer
	metrics  *MetricsCalculator
	logger   *slog.Logger
}

// NewRunner creates a Runner
func NewRunner(answerer Answerer, logger *slog.Logger) *Runner {
	return &Runner{
		answerer: answerer,
		metrics:  NewMetricsCalculator(),
		logger:   logging.OrDefault(logger),
	}
}

// RunCase answers one case and scores it
func (r *Runner) RunCase(ctx context.Context, c Case) Result {
	start := time.Now()
	ans := r.answerer.Answer(ctx, c.Question)

	result := Result{
		CaseID:       c.ID,
		CaseName:     c.Name,
		ExpectStatus: c.ExpectStatus,
		AnswerStatus: ans.Status,
		GateCorrect:  ans.Status == c.ExpectStatus,
		Duration:     time.Since(start),
		Details: map[string]any{
			"answer":        preview(ans.Text, 200),
			"context_items": len(ans.Sources),
		},
	}
	if ans.Reason != "" {
		result.Details["reason"] = ans.Reason
	}

	if c.ExpectStatus == models.StatusAnswered && ans.Status == models.StatusAnswered {
		contexts := make([]string, 0, len(ans.Sources))
		for _, s := range ans.Sources {
			contexts = append(contexts, s.Text)
		}
		var detail string
		result.FaithfulnessScore, detail = r.metrics.CalculateFaithfulness(ans.Text, c.ExpectedInAnswer, c.ForbiddenInAnswer)
		result.Details["faithfulness_detail"] = detail
		result.ContextRecallScore, detail = r.metrics.CalculateContextRecall(contexts, c.ExpectedInContext)
		result.Details["recall_detail"] = detail
	} else if result.GateCorrect {
		// a correct refusal has nothing to be unfaithful to
		result.FaithfulnessScore = 1.0
		result.ContextRecallScore = 1.0
	}
	result.OverallScore = (result.FaithfulnessScore + result.ContextRecallScore) / 2.0

	result.Status = "FAIL"
	if result.GateCorrect && result.FaithfulnessScore >= PassThreshold && result.ContextRecallScore >= PassThreshold {
		result.Status = "PASS"
	}

	r.logger.Debug("evaluated case",
		"case", c.ID,
		"status", result.Status,
		"answer_status", ans.Status,
		"faithfulness", result.FaithfulnessScore,
		"recall", result.ContextRecallScore)
	return result
}

// RunAll evaluates every case in order
func (r *Runner) RunAll(ctx context.Context, cases []Case) (Report, error) {
	report := Report{
		Timestamp: time.Now(),
		Results:   make([]Result, 0, len(cases)),
	}

	gateCorrect := 0
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result := r.RunCase(ctx, c)
		report.Results = append(report.Results, result)
		if result.GateCorrect {
			gateCorrect++
		}
		if result.Status == "PASS" {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	report.Total = len(report.Results)
	if report.Total > 0 {
		report.GateAccuracy = float64(gateCorrect) / float64(report.Total)
	}
	return report, nil
}

// WriteJSON writes the report as indented JSON
func (rep Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteTable writes a human-readable summary
func (rep Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tEXPECTED\tGOT\tFAITHFUL\tRECALL\tSTATUS")
	for _, r := range rep.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
			r.CaseID, r.ExpectStatus, r.AnswerStatus, r.FaithfulnessScore, r.ContextRecallScore, r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d  Passed: %d  Failed: %d  Gate accuracy: %.0f%%\n",
		rep.Total, rep.Passed, rep.Failed, rep.GateAccuracy*100)
	return err
}

// ExportResults writes the report to a JSON file
func ExportResults(rep Report, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	if err := rep.WriteJSON(f); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
