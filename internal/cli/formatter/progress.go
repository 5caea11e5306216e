package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderUsage renders a quota meter like [████░░░░] 4/10. The bar fills as
// usage grows and turns yellow past two thirds and red when exhausted.
func RenderUsage(used, limit, width int) string {
	if width < 2 {
		width = 2
	}
	if limit <= 0 {
		return fmt.Sprintf("[%s] %d/%d", StyleRed.Render(strings.Repeat(emptyBlock, width)), used, limit)
	}
	pct := float64(used) / float64(limit)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case used >= limit:
		style = StyleRed
	case pct >= 0.66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %d/%d", style.Render(bar), used, limit)
}
