package notify

import (
	"fmt"
	"strings"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// RenderPriceChange renders the price change message sent to every channel.
// The format is fixed; downstream chat rooms and automations key off it.
func RenderPriceChange(product *domain.Product, sizeLabel string, oldPrice, newPrice int) string {
	diff := newPrice - oldPrice
	direction := "値上がり"
	if diff < 0 {
		direction = "値下がり"
		diff = -diff
	}

	var b strings.Builder
	fmt.Fprintf(&b, "価格変動通知: %s\n", product.Name)
	fmt.Fprintf(&b, "サイズ: %s\n", sizeLabel)
	fmt.Fprintf(&b, "旧価格: ¥%s\n", formatYen(oldPrice))
	fmt.Fprintf(&b, "新価格: ¥%s\n", formatYen(newPrice))
	fmt.Fprintf(&b, "差額: ¥%s %s\n", formatYen(diff), direction)
	fmt.Fprintf(&b, "商品URL: %s", product.URL)
	return b.String()
}

// formatYen renders an integer yen amount with thousands separators.
func formatYen(n int) string {
	if n < 0 {
		return "-" + formatYen(-n)
	}

	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
