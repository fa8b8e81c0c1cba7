package event

// DetailBudget is the byte budget for a sanitized detail string,
// including the reserved terminator byte. Collectors size their parse
// buffers against it; do not raise it without coordinating.
const DetailBudget = 256

// pathBudget bounds the path portion of composite details (chmod,
// chown) so the appended suffix still fits DetailBudget.
const pathBudget = 200

// Sanitize reduces s to bytes safe to splice into a JSON string:
// `"` and `\` are backslash-escaped, LF and CR become \n and \r, every
// other byte outside printable ASCII 32..126 is dropped. Output is
// bounded by the standard detail budget.
func Sanitize(s string) string {
	return SanitizeBudget(s, DetailBudget)
}

// SanitizePath is Sanitize with the tighter budget used when a suffix
// follows the path in the same detail.
func SanitizePath(s string) string {
	return SanitizeBudget(s, pathBudget)
}

// SanitizeBudget is Sanitize with a caller-chosen buffer budget. The
// budget counts a reserved terminator byte, so output length never
// exceeds budget-2. Truncation is per input byte: a plain byte is kept
// only while written < budget-2, a two-byte escape only while
// written < budget-3. An escape refused at the boundary does not stop
// the scan; a later plain byte may still fit.
func SanitizeBudget(s string, budget int) string {
	if budget < 3 {
		return ""
	}
	out := make([]byte, 0, min(len(s), budget))
	for i := 0; i < len(s) && len(out) < budget-2; i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			if len(out) < budget-3 {
				out = append(out, '\\', c)
			}
		case c == '\n':
			if len(out) < budget-3 {
				out = append(out, '\\', 'n')
			}
		case c == '\r':
			if len(out) < budget-3 {
				out = append(out, '\\', 'r')
			}
		case c >= 32 && c < 127:
			out = append(out, c)
		}
	}
	return string(out)
}
