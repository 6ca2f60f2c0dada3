package rebalance

import (
	"fmt"
	"strings"
	"time"

	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// Summarize folds the per-order results into the batch report. Pure:
// it only reads the results, and it is the single place the batch
// outcome is classified for the caller.
func Summarize(results []models.OrderResult, mode models.SubmitMode, investableCash decimal.Decimal) *models.BatchReport {
	report := &models.BatchReport{
		Timestamp:      time.Now(),
		Mode:           mode,
		InvestableCash: investableCash,
		Results:        results,
		TotalSpent:     decimal.Zero,
	}

	for _, r := range results {
		switch r.Outcome {
		case models.OutcomeSuccess:
			report.SuccessCount++
			report.TotalSpent = report.TotalSpent.Add(r.Notional)
		case models.OutcomeRejected:
			report.RejectedCount++
		case models.OutcomeFailed:
			report.FailedCount++
		}
	}
	return report
}

// Render formats the report for the log and the notification channel.
func Render(report *models.BatchReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*REBALANCE REPORT* [%s]\n", strings.ToUpper(string(report.Mode))))
	sb.WriteString(fmt.Sprintf("Investable cash: $%s\n\n", report.InvestableCash.StringFixed(2)))

	if len(report.Results) == 0 {
		sb.WriteString("Portfolio already at target. No orders generated.\n")
		return sb.String()
	}

	for _, r := range report.Results {
		switch r.Outcome {
		case models.OutcomeSuccess:
			sb.WriteString(fmt.Sprintf("✅ %s: %s @ $%s (total $%s)\n",
				r.Symbol, r.Quantity, r.Price, r.Notional.StringFixed(2)))
		case models.OutcomeRejected:
			sb.WriteString(fmt.Sprintf("⚠️ %s: rejected: %s\n", r.Symbol, r.Reason))
		case models.OutcomeFailed:
			sb.WriteString(fmt.Sprintf("❌ %s: failed: %s\n", r.Symbol, r.Reason))
		}
	}

	sb.WriteString(fmt.Sprintf("\nOrders: %d placed, %d rejected, %d failed\n",
		report.SuccessCount, report.RejectedCount, report.FailedCount))
	sb.WriteString(fmt.Sprintf("Cash spent: $%s\n", report.TotalSpent.StringFixed(2)))
	return sb.String()
}
