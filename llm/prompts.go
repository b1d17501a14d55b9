package llm

import (
	"fmt"
	"strings"

	"ai-market-coach/analytics"
	"ai-market-coach/market"
)

const maxPromptWords = 180

// FormatCoachingPrompt builds the user prompt describing one analysis
func FormatCoachingPrompt(ticker, level string, m *analytics.MetricsReport, company *market.CompanySnapshot) string {
	var sb strings.Builder

	name := ticker
	if company != nil {
		name = company.DisplayName()
	}

	sb.WriteString(fmt.Sprintf("Explain the recent behaviour of **%s** (%s) to a %s investor.\n\n", name, ticker, strings.ToLower(level)))
	sb.WriteString("Metrics:\n")
	sb.WriteString(fmt.Sprintf("- Period: %s to %s (%d observations)\n",
		m.StartDate.Format("2006-01-02"), m.EndDate.Format("2006-01-02"), m.Observations))
	sb.WriteString(fmt.Sprintf("- Period return: %.2f%%\n", m.PeriodReturnPct))
	sb.WriteString(fmt.Sprintf("- Annualized volatility: %.2f%% (%s)\n", m.AnnualizedVolatilityPct, m.RiskLevel))
	sb.WriteString(fmt.Sprintf("- Maximum drawdown: %.2f%%\n", m.MaxDrawdownPct))
	sb.WriteString(fmt.Sprintf("- Price range: %.2f to %.2f\n", m.MinPrice, m.MaxPrice))

	if company != nil && company.TrailingPE != nil {
		sb.WriteString(fmt.Sprintf("- Trailing P/E: %.2f\n", *company.TrailingPE))
	}

	switch level {
	case "Advanced":
		sb.WriteString("\nYou may use technical terms such as log returns and annualization.")
	case "Intermediate":
		sb.WriteString("\nDefine any technical term the first time you use it.")
	default:
		sb.WriteString("\nAvoid jargon; use everyday comparisons.")
	}
	sb.WriteString(fmt.Sprintf(" Maximum %d words.", maxPromptWords))

	return sb.String()
}
