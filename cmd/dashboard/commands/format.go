package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/overseas-dashboard/internal/dashboard"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/pkg/config"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// FormatMoney renders an amount as "$2,500.00" or "₩3,375,000"
func FormatMoney(d decimal.Decimal, cur portfolio.Currency) string {
	symbol, places := "$", int32(2)
	if cur == portfolio.KRW {
		symbol, places = "₩", 0
	}

	sign := ""
	if d.Round(places).IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	return sign + symbol + groupThousands(d.StringFixed(places))
}

// groupThousands inserts commas into the integer part of "1234567.89"
func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// describeError turns a pipeline error into an operator-facing message
func describeError(err error) string {
	switch dashboard.Classify(err) {
	case dashboard.KindConfig:
		var lines []string
		lines = append(lines, "설정 오류: "+err.Error())
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) && len(cfgErr.Missing) > 0 {
			lines = append(lines, "   .env 파일 또는 환경변수에 "+strings.Join(cfgErr.Missing, ", ")+" 값을 설정하세요")
		}
		return strings.Join(lines, "\n")
	case dashboard.KindAuth:
		return "토큰 발급 실패 (APP_KEY/APP_SECRET 확인): " + err.Error()
	case dashboard.KindTransport:
		return "증권사 서버 통신 실패: " + err.Error()
	case dashboard.KindData:
		return "잔고 응답 형식 오류: " + err.Error()
	}
	return err.Error()
}
