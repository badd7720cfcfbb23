package tui

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		if max < 0 {
			return ""
		}
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// clamp keeps i within [0, n-1], or 0 when n is 0
func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
