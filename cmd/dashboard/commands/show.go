package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wonny/overseas-dashboard/internal/dashboard"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "보유 종목 및 요약 조회",
	Long: `해외주식 잔고를 조회해 요약, 보유 종목, 섹터 비중을 출력합니다.

적정가/목표가는 현재가의 고정 배수(기본 1.1×/1.2×)로 계산된 참고값이며
--fair/--target 으로 이번 실행에 한해 덮어쓸 수 있습니다 (저장되지 않음).

Example:
  go run ./cmd/dashboard show
  go run ./cmd/dashboard show --currency KRW
  go run ./cmd/dashboard show --target TSLA=300 --fair TSLA=260
  go run ./cmd/dashboard show --json`,
	RunE: runShow,
}

var (
	showCurrency string
	showTargets  map[string]string
	showFairs    map[string]string
	showJSON     bool
	showRaw      bool
)

func init() {
	rootCmd.AddCommand(showCmd)

	// Flags
	showCmd.Flags().StringVar(&showCurrency, "currency", "", "표시 통화 (USD|KRW, 기본값 DISPLAY_CURRENCY)")
	showCmd.Flags().StringToStringVar(&showTargets, "target", nil, "목표가 (USD), 예: TSLA=300")
	showCmd.Flags().StringToStringVar(&showFairs, "fair", nil, "적정가 (USD), 예: TSLA=260")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "JSON 출력")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "업무 오류 시 원본 응답 출력")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, err := showOptions()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	view, err := a.dashboard.Render(ctx, opts)
	if err != nil {
		return err
	}

	if showJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	if view.Failure != nil {
		printFailure(view.Failure, showRaw)
		return nil
	}

	printPortfolio(view)
	return nil
}

func showOptions() (portfolio.Options, error) {
	opts := portfolio.Options{}

	if showCurrency != "" {
		c, ok := portfolio.ParseCurrency(showCurrency)
		if !ok {
			return opts, fmt.Errorf("invalid --currency %q (valid: USD, KRW)", showCurrency)
		}
		opts.Currency = c
	}

	var err error
	if opts.TargetOverrides, err = parseOverrides("target", showTargets); err != nil {
		return opts, err
	}
	if opts.FairOverrides, err = parseOverrides("fair", showFairs); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseOverrides(flag string, raw map[string]string) (map[string]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]decimal.Decimal, len(raw))
	for ticker, value := range raw {
		price, err := decimal.NewFromString(value)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("invalid --%s %s=%s", flag, ticker, value)
		}
		out[strings.ToUpper(ticker)] = price
	}
	return out, nil
}

func printFailure(f *dashboard.Failure, raw bool) {
	PrintWarning(fmt.Sprintf("데이터를 불러올 수 없습니다: %s (rt_cd=%s, msg_cd=%s)", f.Message, f.Code, f.MsgCode))

	if raw && len(f.Raw) > 0 {
		PrintSeparator()
		fmt.Println(string(f.Raw))
	}
}

func printPortfolio(view *dashboard.View) {
	p := view.Portfolio
	cur := p.Currency
	s := p.Summary

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  🚀 미국 주식 포트폴리오  (%s)\n", p.GeneratedAt.Format("2006-01-02 15:04:05"))
	PrintSeparator()

	rateNote := view.Rate.Source
	if view.Rate.Fallback {
		rateNote = "기본값"
	}
	PrintKeyValue("환율", fmt.Sprintf("%s (%s)", FormatMoney(p.ExchangeRate, portfolio.KRW), rateNote), 14)
	PrintKeyValue("총 자산 (USD)", FormatMoney(s.TotalValuationUSD, portfolio.USD), 14)
	PrintKeyValue("총 자산 (KRW)", FormatMoney(s.TotalValuationKRW, portfolio.KRW), 14)
	PrintKeyValue("총 손익", fmt.Sprintf("%s (%s)", FormatMoney(s.TotalProfitLoss, cur), portfolio.FormatPct(s.ProfitPct)), 14)
	PrintSeparator()

	if len(p.Positions) == 0 {
		PrintInfo("보유 종목이 없습니다")
		return
	}

	fmt.Println()
	widths := []int{8, 18, 8, 14, 14, 16, 9, 7}
	PrintTableHeader([]string{"Ticker", "Name", "Qty", "Avg", "Current", "Value", "P/L", "Alloc"}, widths)
	for _, pos := range p.Positions {
		PrintTableRow([]string{
			pos.Ticker,
			truncateName(pos.DisplayName, 18),
			pos.Quantity.String(),
			FormatMoney(pos.AvgCost, cur),
			FormatMoney(pos.CurrentPrice, cur),
			FormatMoney(pos.Valuation, cur),
			portfolio.FormatPct(pos.ProfitLossPct),
			pos.AllocationPct.StringFixed(1) + "%",
		}, widths)
	}

	fmt.Println()
	fmt.Println("  섹터 비중")
	items := make([]string, 0, len(p.Allocation))
	for _, g := range p.Allocation {
		items = append(items, fmt.Sprintf("%-24s %5s%%", g.Sector, g.Pct.StringFixed(1)))
	}
	PrintList(items)

	fmt.Println()
	fmt.Println("  참고 가격 (적정가/목표가는 투자 판단 근거가 아닌 예시값)")
	for _, pos := range p.Positions {
		ref := pos.Reference
		line := fmt.Sprintf("%-6s 적정가 %s (차이 %s)  목표가 %s",
			pos.Ticker, FormatMoney(ref.FairPrice, cur), FormatMoney(ref.FairPriceGap, cur), FormatMoney(ref.TargetPrice, cur))
		if ref.TargetReached {
			line += "  🎯 목표가 도달"
		}
		PrintList([]string{line})
	}

	if p.Truncated {
		PrintWarning("보유 종목이 한 페이지를 넘습니다. 첫 페이지만 표시됩니다.")
	}
	PrintDoubleSeparator()
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
