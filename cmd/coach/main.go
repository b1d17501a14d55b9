// Command coach is a terminal client for the market coach API.
//
//	coach analyze -ticker AAPL -period 1y -interval 1d -level Beginner -chart aapl.png
//	coach sessions -ticker AAPL -limit 10
//	coach session <id>
//	coach watch
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"ai-market-coach/client"
	"ai-market-coach/coach"
	"ai-market-coach/helpers"
	"ai-market-coach/learning"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
	muted   = color.New(color.Faint)
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(os.Getenv("COACH_API_URL"))

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, c, os.Args[2:])
	case "sessions":
		err = runSessions(ctx, c, os.Args[2:])
	case "session":
		err = runSession(ctx, c, os.Args[2:])
	case "watch":
		err = runWatch(ctx, c)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		bad.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: coach <analyze|sessions|session|watch> [flags]")
	fmt.Fprintln(os.Stderr, "the API root is read from COACH_API_URL (default "+client.DefaultBaseURL+")")
}

func runAnalyze(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	ticker := fs.String("ticker", "", "ticker symbol, e.g. AAPL or BBCA.JK")
	period := fs.String("period", "1y", "6mo, 1y, 2y or 5y")
	interval := fs.String("interval", "1d", "1d, 1wk or 1mo")
	level := fs.String("level", learning.LevelBeginner, "Beginner, Intermediate or Advanced")
	chartPath := fs.String("chart", "", "save the price chart PNG to this path")
	interactive := fs.Bool("quiz", false, "answer the quiz interactively")
	_ = fs.Parse(args)

	if *ticker == "" && fs.NArg() > 0 {
		*ticker = fs.Arg(0)
	}
	if *ticker == "" {
		return fmt.Errorf("a ticker is required")
	}

	req := coach.Request{Ticker: *ticker, Period: *period, Interval: *interval, UserLevel: *level}
	muted.Printf("Analyzing %s via %s ...\n\n", strings.ToUpper(*ticker), c.BaseURL())

	result, err := c.Analyze(ctx, req)
	if err != nil {
		return err
	}

	out := color.Output
	printReport(out, result.ReportMarkdown)
	printMetrics(out, result)

	if result.Commentary != "" {
		heading.Fprintln(out, "Coach commentary")
		fmt.Fprintln(out, result.Commentary)
		fmt.Fprintln(out)
	}

	if *interactive {
		if err := askQuiz(out, os.Stdin, result.Quiz); err != nil {
			return err
		}
	} else {
		printQuiz(out, result.Quiz)
	}
	printFlashcards(out, result.Flashcards)

	if *chartPath != "" {
		png, err := c.Chart(ctx, req)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*chartPath, png, 0o644); err != nil {
			return fmt.Errorf("save chart: %w", err)
		}
		good.Fprintf(out, "Chart saved to %s\n", *chartPath)
	}

	muted.Fprintf(out, "\nsession %s\n", result.SessionID)
	return nil
}

func runSessions(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	ticker := fs.String("ticker", "", "filter by ticker")
	limit := fs.Int("limit", 20, "maximum sessions to list")
	offset := fs.Int("offset", 0, "sessions to skip")
	_ = fs.Parse(args)

	list, err := c.Sessions(ctx, *ticker, *limit, *offset)
	if err != nil {
		return err
	}
	if list.Count == 0 {
		muted.Println("no sessions yet")
		return nil
	}

	w := tabwriter.NewWriter(color.Output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTICKER\tPERIOD\tINTERVAL\tLEVEL\tCREATED")
	for _, s := range list.Sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Ticker, s.Period, s.Interval, s.UserLevel, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runSession(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: coach session <id>")
	}
	s, err := c.Session(ctx, args[0])
	if err != nil {
		return err
	}

	out := color.Output
	heading.Fprintf(out, "%s  %s / %s  (%s)\n", s.Ticker, s.Period, s.Interval, s.UserLevel)
	fmt.Fprintf(out, "%s to %s\n\n", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
	fmt.Fprintln(out, string(s.Metrics))
	if s.Commentary != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.Commentary)
	}
	return nil
}

func runWatch(ctx context.Context, c *client.Client) error {
	muted.Println("watching for new sessions, Ctrl+C to stop")
	return c.Watch(ctx, func(e client.Envelope) {
		created, err := e.SessionCreated()
		if err != nil {
			muted.Printf("%s\n", e.Type)
			return
		}
		ret := good
		if created.PeriodReturnPct < 0 {
			ret = bad
		}
		fmt.Fprintf(color.Output, "%s  %-10s %-4s %-4s %-12s ",
			created.CreatedAt.Local().Format("15:04:05"), created.Ticker, created.Period, created.Interval, created.UserLevel)
		ret.Fprintf(color.Output, "%8s", helpers.FormatPercent(created.PeriodReturnPct))
		fmt.Fprintf(color.Output, "  risk %s\n", created.RiskLevel)
	})
}

func printReport(w io.Writer, markdown string) {
	for _, line := range strings.Split(markdown, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			heading.Fprintln(w, strings.TrimPrefix(line, "# "))
		case line == "---":
			muted.Fprintln(w, strings.Repeat("─", 40))
		default:
			fmt.Fprintln(w, line)
		}
	}
}

func printMetrics(w io.Writer, r *coach.Result) {
	m := r.Analysis.PriceMetrics
	if m == nil {
		return
	}
	currency := ""
	if r.Analysis.Company != nil {
		currency = r.Analysis.Company.Currency
	}

	heading.Fprintln(w, "Metrics")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Period return", helpers.FormatPercent(m.PeriodReturnPct)},
		{"Volatility per period", fmt.Sprintf("%.2f%%", m.DailyVolatilityPct)},
		{"Annualized volatility", fmt.Sprintf("%.2f%% (%s)", m.AnnualizedVolatilityPct, m.RiskLevel)},
		{"Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdownPct)},
		{"Start / last price", helpers.FormatMoney(m.StartPrice, currency) + " / " + helpers.FormatMoney(m.LastPrice, currency)},
		{"Observations", strconv.Itoa(m.Observations)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

func printQuiz(w io.Writer, quiz []learning.QuizQuestion) {
	heading.Fprintln(w, "Quiz")
	for i, q := range quiz {
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(w, "   %c) %s\n", 'a'+j, opt)
		}
		muted.Fprintf(w, "   answer: %c. %s\n\n", 'a'+q.CorrectOptionIndex, q.Explanation)
	}
}

// askQuiz reads one letter per question from in and reports the score
func askQuiz(w io.Writer, in io.Reader, quiz []learning.QuizQuestion) error {
	heading.Fprintln(w, "Quiz")
	reader := bufio.NewReader(in)
	score := 0

	for i, q := range quiz {
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(w, "   %c) %s\n", 'a'+j, opt)
		}
		fmt.Fprint(w, "   your answer: ")

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if len(answer) == 1 && int(answer[0]-'a') == q.CorrectOptionIndex {
			score++
			good.Fprintln(w, "   correct!")
		} else {
			bad.Fprintf(w, "   the answer is %c\n", 'a'+q.CorrectOptionIndex)
		}
		muted.Fprintf(w, "   %s\n\n", q.Explanation)
		if err == io.EOF {
			break
		}
	}

	heading.Fprintf(w, "Score: %d/%d\n\n", score, len(quiz))
	return nil
}

func printFlashcards(w io.Writer, cards []learning.Flashcard) {
	heading.Fprintln(w, "Flashcards")
	for _, card := range cards {
		fmt.Fprintf(w, "  Q: %s\n", card.Front)
		muted.Fprintf(w, "  A: %s\n\n", card.Back)
	}
}
