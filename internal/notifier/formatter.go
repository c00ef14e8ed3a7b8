package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockSeer/internal/model"
	"StockSeer/internal/pipeline"
	"StockSeer/internal/recorder"
)

// FormatForecast formats a pipeline result into a Telegram message.
func FormatForecast(res *pipeline.Result) string {
	var b strings.Builder
	s := res.Summary

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %d-month forecast\n\n", html.EscapeString(res.Params.Ticker), res.Params.Months))
	b.WriteString(fmt.Sprintf("Last close: %.2f (%+.2f%%)\n", s.LastClose, s.ChangePct))
	b.WriteString(fmt.Sprintf("52w range: %.2f – %.2f (position %.0f%%)\n", s.Low52w, s.High52w, s.Position52w*100))
	b.WriteString(fmt.Sprintf("SMA50: %.2f | SMA200: %.2f | RSI14: %.0f\n\n", s.SMA50, s.SMA200, s.RSI14))

	if s.HorizonDate != "" {
		b.WriteString(fmt.Sprintf("🔮 <b>%s</b>: %.2f (%+.1f%%)\n", s.HorizonDate, s.HorizonValue, s.ExpectedMove))
		b.WriteString(fmt.Sprintf("   %.0f%% interval: %.2f – %.2f\n",
			res.Forecast.Model.IntervalWidth*100, s.HorizonLower, s.HorizonUpper))
	}

	b.WriteString("\n<pre>")
	b.WriteString(fmt.Sprintf("%-10s %9s %9s %9s\n", "date", "yhat", "lower", "upper"))
	for _, p := range res.ForecastTail(pipeline.DefaultTail) {
		b.WriteString(fmt.Sprintf("%-10s %9.2f %9.2f %9.2f\n", p.Date.Format("2006-01-02"), p.Predicted, p.Lower, p.Upper))
	}
	b.WriteString("</pre>")
	b.WriteString(fmt.Sprintf("\n%d observations from %s", res.Series.Len(), res.Series.Source))
	return b.String()
}

// FormatError formats a failed request.
func FormatError(ticker string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b> %s: %s", html.EscapeString(ticker), model.Kind(err), html.EscapeString(err.Error()))
}

// DigestLine is one ticker in the daily digest.
type DigestLine struct {
	Ticker string
	Result *pipeline.Result
	Err    error
}

// FormatDigest formats the scheduled watch-list digest.
func FormatDigest(lines []DigestLine, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>StockSeer digest</b> | %s\n\n", at.Format("2006-01-02")))
	for _, l := range lines {
		if l.Err != nil {
			b.WriteString(fmt.Sprintf("• %s: %s\n", html.EscapeString(l.Ticker), model.Kind(l.Err)))
			continue
		}
		s := l.Result.Summary
		b.WriteString(fmt.Sprintf("• <b>%s</b> %.2f → %.2f by %s (%+.1f%%)\n",
			html.EscapeString(l.Ticker), s.LastClose, s.HorizonValue, s.HorizonDate, s.ExpectedMove))
	}
	return b.String()
}

// FormatRuns formats recent recorded runs.
func FormatRuns(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s %dm %s (%v)\n",
			r.Time.Format("01-02 15:04"), html.EscapeString(r.Ticker), r.Months, r.Status, r.Duration.Round(time.Millisecond)))
	}
	return b.String()
}

// FormatTickers lists the default tickers.
func FormatTickers(tickers []string) string {
	return "Default tickers: " + strings.Join(tickers, ", ")
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /forecast TICKER [MONTHS] (months 1-24, default 1)\n" +
		"• /tickers\n" +
		"• /runs\n" +
		"• /help"
}
