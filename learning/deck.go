// Package learning turns computed metrics into study material: an offline
// markdown report, multiple-choice quiz questions and flashcards.
package learning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"ai-market-coach/analytics"
	"ai-market-coach/apperrors"
	"ai-market-coach/market"
)

// Learner levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Levels lists accepted learner levels
var Levels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

// QuizQuestion is a multiple-choice question with exactly one correct option
type QuizQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	Explanation        string   `json:"explanation"`
}

// Flashcard is a front/back study card
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Deck is the set of quiz questions and flashcards generated for one analysis
type Deck struct {
	Quiz       []QuizQuestion `json:"quiz"`
	Flashcards []Flashcard    `json:"flashcards"`
}

// Input carries everything the generators read
type Input struct {
	Ticker   string
	Period   string
	Interval string
	Level    string
	Metrics  *analytics.MetricsReport
	Company  *market.CompanySnapshot
	Currency string
}

// NormalizeLevel accepts any casing of a known level; empty means Beginner
func NormalizeLevel(level string) (string, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return LevelBeginner, nil
	}
	for _, l := range Levels {
		if strings.EqualFold(l, level) {
			return l, nil
		}
	}
	return "", apperrors.NewValidationErrorWithValue("user_level", "must be one of Beginner, Intermediate, Advanced", level)
}

// QuestionCount returns how many quiz questions a level gets
func QuestionCount(level string) int {
	switch level {
	case LevelAdvanced:
		return 5
	case LevelIntermediate:
		return 4
	default:
		return 3
	}
}

// StableSeed derives a deterministic seed from the request so the same inputs
// always yield the same deck and different inputs vary it.
func StableSeed(ticker, period, interval, level string) int64 {
	key := strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(ticker)),
		strings.TrimSpace(period),
		strings.TrimSpace(interval),
		strings.TrimSpace(level),
	}, "|")
	digest := sha256.Sum256([]byte(key))
	seed, _ := strconv.ParseInt(hex.EncodeToString(digest[:])[:8], 16, 64)
	return seed
}

// BuildDeck generates the quiz and flashcards for in. Option order is shuffled
// with a RNG seeded by seed; CorrectOptionIndex follows the shuffle.
func BuildDeck(in Input, seed int64) (*Deck, error) {
	if in.Metrics == nil {
		return nil, apperrors.NewValidationError("metrics", "required to build a learning deck")
	}
	level, err := NormalizeLevel(in.Level)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))

	questions := allQuestions(in)
	if n := QuestionCount(level); n < len(questions) {
		questions = questions[:n]
	}
	for i := range questions {
		shuffleOptions(rng, &questions[i])
	}

	return &Deck{
		Quiz:       questions,
		Flashcards: flashcards(in, level),
	}, nil
}

// allQuestions builds the full question bank in teaching order. The first
// option of each question is the correct one before shuffling.
func allQuestions(in Input) []QuizQuestion {
	m := in.Metrics

	directionCorrect, directionWrong := "Increased in value", "Decreased in value"
	if m.Direction() == "decreased" {
		directionCorrect, directionWrong = directionWrong, directionCorrect
	}

	riskOptions := []string{m.RiskLevel}
	for _, r := range []string{"low", "moderate", "high"} {
		if r != m.RiskLevel {
			riskOptions = append(riskOptions, r)
		}
	}
	riskOptions = append(riskOptions, "It cannot be judged from volatility")

	annualized := m.DailyVolatilityPct * math.Sqrt(market.PeriodsPerYear(in.Interval))
	periods := int(market.PeriodsPerYear(in.Interval))

	return []QuizQuestion{
		{
			Question: fmt.Sprintf("Over the selected period, the price of %s has:", in.Ticker),
			Options: []string{
				directionCorrect,
				directionWrong,
				"Stayed exactly the same",
				"We do not know from the data",
			},
			Explanation: fmt.Sprintf(
				"The total period return is %.2f%%. A positive value means the price increased; a negative value means it decreased.",
				m.PeriodReturnPct),
		},
		{
			Question: fmt.Sprintf("What does an annualized volatility of about %.1f%% mean?", m.AnnualizedVolatilityPct),
			Options: []string{
				"The price tends to move around; larger swings are common.",
				"The price moves very little from day to day.",
				"The company is guaranteed to earn that much each year.",
				"The stock will never lose more than that percentage.",
			},
			Explanation: "Volatility measures how much the price moves around. Higher volatility means bigger and more frequent price swings, not guaranteed profits or losses.",
		},
		{
			Question: fmt.Sprintf("If the maximum drawdown is about %.1f%%, what does that describe?", m.MaxDrawdownPct),
			Options: []string{
				"The worst peak-to-trough price drop over the period.",
				"The average daily price movement.",
				"The annual return expected every year.",
				"The dividend yield paid each year.",
			},
			Explanation: "Drawdown is the percentage fall from a previous high to a later low. It helps you understand how painful a bad period could feel.",
		},
		{
			Question: fmt.Sprintf("With annualized volatility of %.1f%%, which risk bucket does %s fall into (low below 15%%, moderate below 30%%)?",
				m.AnnualizedVolatilityPct, in.Ticker),
			Options:     riskOptions,
			Explanation: fmt.Sprintf("%.1f%% sits in the %s bucket. Buckets are a rough teaching aid, not a rating.", m.AnnualizedVolatilityPct, m.RiskLevel),
		},
		{
			Question: fmt.Sprintf("A per-period volatility of %.2f%% is annualized by multiplying by the square root of %d. The result is closest to:",
				m.DailyVolatilityPct, periods),
			Options: []string{
				fmt.Sprintf("%.1f%%", annualized),
				fmt.Sprintf("%.1f%%", m.DailyVolatilityPct*float64(periods)),
				fmt.Sprintf("%.1f%%", m.DailyVolatilityPct),
				fmt.Sprintf("%.1f%%", annualized/2),
			},
			Explanation: "Volatility scales with the square root of time when returns are independent, so one year is sqrt(periods per year) times one period.",
		},
	}
}

var fallbackOptions = []string{
	"None of the above",
	"It cannot be computed from prices alone",
	"Exactly 100%",
}

// dedupeOptions replaces repeated distractors so the correct option stays unique
func dedupeOptions(opts []string) []string {
	seen := make(map[string]bool, len(opts))
	next := 0
	for i, opt := range opts {
		for seen[opt] && next < len(fallbackOptions) {
			opt = fallbackOptions[next]
			next++
		}
		opts[i] = opt
		seen[opt] = true
	}
	return opts
}

func shuffleOptions(rng *rand.Rand, q *QuizQuestion) {
	q.Options = dedupeOptions(q.Options)
	correct := q.Options[0]
	rng.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
	for i, opt := range q.Options {
		if opt == correct {
			q.CorrectOptionIndex = i
			return
		}
	}
}

func flashcards(in Input, level string) []Flashcard {
	name := in.Ticker
	if in.Company != nil {
		name = in.Company.DisplayName()
	}

	cards := []Flashcard{
		{
			Front: "What is volatility?",
			Back:  "A measure of how much a stock's price moves around. Higher volatility means larger, more frequent price swings.",
		},
		{
			Front: "What is maximum drawdown?",
			Back:  "The biggest drop from a previous peak to a later low over a period. It shows how severe a downturn could have been.",
		},
		{
			Front: "What does a positive period return mean?",
			Back: fmt.Sprintf("For %s, a positive period return means the price increased over the chosen time window. A negative return means it decreased.",
				name),
		},
		{
			Front: "What is the P/E ratio (Price/Earnings)?",
			Back:  "The stock price divided by earnings per share. It is one way of describing how highly the market values the company's earnings.",
		},
		{
			Front: "What is dividend yield?",
			Back:  "Annual dividends per share divided by the stock price. It indicates how much cash return you receive as dividends relative to the price.",
		},
	}

	if level == LevelAdvanced {
		cards = append(cards,
			Flashcard{
				Front: "Why use log returns for volatility?",
				Back:  "Log returns add up across periods and treat gains and losses symmetrically, which makes their standard deviation a cleaner measure of dispersion.",
			},
			Flashcard{
				Front: "How is volatility annualized?",
				Back:  "Multiply the per-period standard deviation by the square root of the number of periods in a year: 252 trading days, 52 weeks or 12 months.",
			},
		)
	}
	return cards
}
