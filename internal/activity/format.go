package activity

import (
	"fmt"
	"strconv"
)

// FormatTokens 将令牌数格式化为 1.2K / 3.40M 形式。
func FormatTokens(tokens int64) string {
	switch {
	case tokens >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(tokens)/1_000_000)
	case tokens >= 1_000:
		return fmt.Sprintf("%.1fK", float64(tokens)/1_000)
	default:
		return strconv.FormatInt(tokens, 10)
	}
}
