package naver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Name identifies the source in logs and responses
func (c *Client) Name() string {
	return "naver"
}

// FetchUSDKRW scrapes the USD/KRW quote from the market index page
func (c *Client) FetchUSDKRW(ctx context.Context) (float64, error) {
	body, err := c.fetchHTML(ctx)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return 0, fmt.Errorf("parse HTML failed: %w", err)
	}

	text := strings.TrimSpace(doc.Find("#exchangeList a.head.usd span.value").First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find(`a[href*="FX_USDKRW"] span.value`).First().Text())
	}
	if text == "" {
		return 0, fmt.Errorf("USD/KRW quote not found on page")
	}

	rate, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse quote %q: %w", text, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("invalid USD/KRW quote %v", rate)
	}

	c.logger.WithField("rate", rate).Debug("Scraped USD/KRW")
	return rate, nil
}
