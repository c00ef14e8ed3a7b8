package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"StockSeer/internal/app"
	"StockSeer/internal/chart"
	"StockSeer/internal/model"
	"StockSeer/internal/pipeline"
)

var (
	header = color.New(color.FgCyan, color.Bold)
	up     = color.New(color.FgGreen)
	down   = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ticker := flag.String("ticker", "PEP", "ticker symbol")
	months := flag.Int("months", 1, "forecast horizon in months (1-24)")
	tail := flag.Int("tail", pipeline.DefaultTail, "rows of each table to print")
	htmlOut := flag.String("html", "", "write an HTML page with the charts to this file")
	cfgPath := flag.String("config", "configs/config.yaml", "config file")
	flag.Parse()

	cfg, err := app.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	a, err := app.Build(cfg, false)
	if err != nil {
		log.Fatalf("[FATAL] build: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Loading data...")
	res, err := a.Pipeline.Run(ctx, pipeline.Params{Ticker: *ticker, Months: *months})
	if err != nil {
		down.Fprintf(os.Stderr, "%s: %v\n", model.Kind(err), err)
		os.Exit(1)
	}
	fmt.Println("Loading data... completed")

	printHistory(res, *tail)
	printForecast(res, *tail)
	printSummary(res)

	if *htmlOut != "" {
		f, err := os.Create(*htmlOut)
		if err != nil {
			log.Fatalf("[FATAL] create %s: %v", *htmlOut, err)
		}
		defer f.Close()
		if err := chart.RenderPage(f, res.Series, res.Forecast); err != nil {
			log.Fatalf("[FATAL] render charts: %v", err)
		}
		fmt.Printf("charts written to %s\n", *htmlOut)
	}
}

func printHistory(res *pipeline.Result, n int) {
	header.Printf("\nRaw data: %s (%s)\n", res.Params.Ticker, res.Series.Source)
	fmt.Printf("%-12s %10s %10s %10s %10s %12s\n", "Date", "Open", "High", "Low", "Close", "Volume")
	rows := res.HistoryTail(n)
	for i, o := range rows {
		c := faint
		if i > 0 {
			if o.Close.GreaterThanOrEqual(rows[i-1].Close) {
				c = up
			} else {
				c = down
			}
		}
		fmt.Printf("%-12s %10s %10s %10s ", o.Date.Format("2006-01-02"),
			o.Open.StringFixed(2), o.High.StringFixed(2), o.Low.StringFixed(2))
		c.Printf("%10s", o.Close.StringFixed(2))
		fmt.Printf(" %12d\n", o.Volume)
	}
}

func printForecast(res *pipeline.Result, n int) {
	header.Printf("\nForecast data: %d days\n", res.Forecast.HorizonDays)
	fmt.Printf("%-12s %10s %10s %10s %10s\n", "Date", "Predicted", "Lower", "Upper", "Trend")
	for _, p := range res.ForecastTail(n) {
		fmt.Printf("%-12s ", p.Date.Format("2006-01-02"))
		up.Printf("%10.2f", p.Predicted)
		fmt.Printf(" %10.2f %10.2f %10.2f\n", p.Lower, p.Upper, p.Trend)
	}
}

func printSummary(res *pipeline.Result) {
	s := res.Summary
	header.Println("\nSummary")
	fmt.Printf("Last close   %.2f\n", s.LastClose)
	fmt.Printf("52w range    %.2f – %.2f (%.0f%%)\n", s.Low52w, s.High52w, s.Position52w*100)
	fmt.Printf("SMA50/200    %.2f / %.2f\n", s.SMA50, s.SMA200)
	fmt.Printf("RSI14        %.1f\n", s.RSI14)
	move := up
	if s.ExpectedMove < 0 {
		move = down
	}
	fmt.Printf("%s  ", s.HorizonDate)
	move.Printf("%.2f (%+.2f%%)", s.HorizonValue, s.ExpectedMove)
	fmt.Printf("  [%.2f, %.2f]\n", s.HorizonLower, s.HorizonUpper)
	faint.Printf("run %s in %v\n", res.RunID, res.Duration)
}
