package scraper

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoProductData is returned when a fetched page has no recognizable
// product markup, usually a redirect to a login or error page.
var ErrNoProductData = errors.New("no product data found on page")

// The marketplace renders product pages server-side with stable class
// names. The extraction is anchored on those classes rather than on the
// surrounding document structure, which changes more often.
var (
	reTitle = regexp.MustCompile(
		`(?s)<h1[^>]*class="[^"]*product-detail__title[^"]*"[^>]*>(.*?)</h1>`)
	reImage = regexp.MustCompile(
		`(?s)<div[^>]*class="[^"]*product-detail__image[^"]*"[^>]*>.*?<img[^>]*src="([^"]+)"`)
	reSizeItem = regexp.MustCompile(
		`(?s)<li[^>]*>.*?class="[^"]*product-detail__size-item[^"]*"[^>]*>(.*?)</[^>]+>` +
			`.*?class="[^"]*product-detail__price[^"]*"[^>]*>(.*?)</[^>]+>.*?</li>`)
	rePrice = regexp.MustCompile(`¥\s*([\d,]+)`)
	reTags  = regexp.MustCompile(`<[^>]*>`)
)

// parseProductPage extracts the product name, image, and size prices from
// a product page document.
func parseProductPage(doc string) (*ProductInfo, error) {
	title := reTitle.FindStringSubmatch(doc)
	if title == nil {
		return nil, ErrNoProductData
	}

	info := &ProductInfo{
		Name: cleanText(title[1]),
	}

	if img := reImage.FindStringSubmatch(doc); img != nil {
		info.ImageURL = html.UnescapeString(img[1])
	}

	for _, m := range reSizeItem.FindAllStringSubmatch(doc, -1) {
		label := cleanText(m[1])
		price, err := parsePrice(m[2])
		if err != nil {
			// Sold-out sizes render without a price; skip them.
			continue
		}
		info.Sizes = append(info.Sizes, SizePrice{Label: label, Price: price})
	}

	if len(info.Sizes) == 0 {
		return nil, fmt.Errorf("product %q: no sizes with prices", info.Name)
	}

	return info, nil
}

// parsePrice extracts an integer yen amount from text like "¥12,800".
func parsePrice(s string) (int, error) {
	m := rePrice.FindStringSubmatch(cleanText(s))
	if m == nil {
		return 0, fmt.Errorf("no price in %q", strings.TrimSpace(s))
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", m[1], err)
	}
	return n, nil
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(reTags.ReplaceAllString(s, "")))
}
