package learning

import (
	"fmt"
	"strings"

	"ai-market-coach/helpers"
	"ai-market-coach/market"
)

// Disclaimer is attached to every generated report and API response
const Disclaimer = "This content is for educational purposes only and is not financial advice."

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v) }

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func optNumber(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}

// RenderReport builds the offline markdown learning report. It uses only the
// computed metrics and company snapshot; no external calls.
func RenderReport(in Input) string {
	m := in.Metrics
	if m == nil {
		return ""
	}
	company := in.Company
	if company == nil {
		company = &market.CompanySnapshot{Ticker: in.Ticker}
	}
	currency := orNA(in.Currency)
	level := in.Level
	if level == "" {
		level = LevelBeginner
	}

	marketCap := "N/A"
	if company.MarketCap != nil {
		marketCap = helpers.FormatLargeNumber(*company.MarketCap)
	}

	var b strings.Builder

	b.WriteString("# 1. Company Snapshot\n\n")
	fmt.Fprintf(&b, "- **Ticker**: `%s`\n", in.Ticker)
	fmt.Fprintf(&b, "- **Name**: %s\n", company.DisplayName())
	fmt.Fprintf(&b, "- **Exchange**: %s\n", orNA(company.Exchange))
	fmt.Fprintf(&b, "- **Trading Currency**: %s\n\n", currency)
	b.WriteString("This section tells you *what* you are studying before looking at any numbers.\n\n---\n\n")

	b.WriteString("# 2. Price & Volatility Overview\n\n")
	fmt.Fprintf(&b, "We looked at **%s** over a **%s** period, using a **%s** interval (%d observations).\n\n",
		in.Ticker, in.Period, in.Interval, m.Observations)
	fmt.Fprintf(&b, "- **Start price**: %s (beginning of period)\n", helpers.FormatMoney(m.StartPrice, in.Currency))
	fmt.Fprintf(&b, "- **Last price**: %s (most recent)\n", helpers.FormatMoney(m.LastPrice, in.Currency))
	fmt.Fprintf(&b, "- **Total price change over the period**: %s (%s)\n", pct(m.PeriodReturnPct), m.Direction())
	fmt.Fprintf(&b, "- **Volatility per period** (typical move between bars): %s\n", pct(m.DailyVolatilityPct))
	fmt.Fprintf(&b, "- **Annualized volatility**: %s, interpreted as **%s volatility**\n", pct(m.AnnualizedVolatilityPct), m.RiskLevel)
	fmt.Fprintf(&b, "- **Maximum drawdown** (worst peak-to-trough drop): %s\n", pct(m.MaxDrawdownPct))
	fmt.Fprintf(&b, "- **Average return per period**: %s\n", pct(m.MeanDailyReturnPct))
	fmt.Fprintf(&b, "- **Price range** during period: %s to %s\n\n",
		helpers.FormatMoney(m.MinPrice, in.Currency), helpers.FormatMoney(m.MaxPrice, in.Currency))
	b.WriteString("These numbers describe both **performance** (returns) and **risk** (volatility and drawdown).\n\n---\n\n")

	b.WriteString("# 3. Fundamentals Overview (High Level)\n\n")
	fmt.Fprintf(&b, "- **Market capitalization**: %s\n", marketCap)
	fmt.Fprintf(&b, "- **Trailing P/E ratio**: %s\n", optNumber(company.TrailingPE, "%.2f"))
	fmt.Fprintf(&b, "- **Forward P/E ratio**: %s\n", optNumber(company.ForwardPE, "%.2f"))
	fmt.Fprintf(&b, "- **Dividend yield**: %s\n\n", optNumber(company.DividendYield, "%.4f"))
	b.WriteString("P/E ratios describe how expensive the stock is relative to earnings; dividend yield shows whether it returns cash to shareholders.\n\n---\n\n")

	b.WriteString("# 4. Key Learning Points for This Stock\n\n")
	fmt.Fprintf(&b, "1. **Direction of performance**: over the selected period the price has **%s** by %s. "+
		"This says what happened historically, not what will happen next.\n", m.Direction(), pct(m.PeriodReturnPct))
	fmt.Fprintf(&b, "2. **Risk & volatility**: an annualized volatility of %s suggests **%s** price fluctuations.\n",
		pct(m.AnnualizedVolatilityPct), m.RiskLevel)
	fmt.Fprintf(&b, "3. **Drawdowns matter**: the maximum drawdown of %s shows how far the stock fell from a previous peak.\n",
		pct(m.MaxDrawdownPct))
	fmt.Fprintf(&b, "4. **Average returns**: an average of %s per period only makes sense next to volatility and drawdown.\n\n---\n\n",
		pct(m.MeanDailyReturnPct))

	fmt.Fprintf(&b, "# 5. Glossary of Terms (Level: %s)\n\n", level)
	b.WriteString("- **Volatility**: how much the price moves around. Higher volatility means larger, more frequent swings.\n")
	b.WriteString("- **Annualized volatility**: per-period volatility scaled to a year, so different stocks can be compared.\n")
	b.WriteString("- **Drawdown**: the percentage drop from a previous high to a later low.\n")
	b.WriteString("- **Market capitalization**: share price times number of shares.\n")
	b.WriteString("- **P/E ratio**: stock price divided by earnings per share.\n")
	b.WriteString("- **Dividend yield**: annual dividends per share divided by price.\n")
	if level == LevelAdvanced {
		b.WriteString("- **Log return**: ln(P_t / P_t-1); volatility here is the sample standard deviation of log returns.\n")
	}
	b.WriteString("\n---\n\n")

	fmt.Fprintf(&b, "**%s**\n", Disclaimer)
	return b.String()
}
