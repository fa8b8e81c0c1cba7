package event

import (
	"strings"
	"testing"
)

func BenchmarkAppendLine(b *testing.B) {
	ev := New(CategoryFile, "open", "/etc/crontab")
	buf := make([]byte, 0, LineBudget)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, _ = AppendLine(buf[:0], ev)
	}
}

func BenchmarkSanitize_Clean(b *testing.B) {
	s := "/usr/local/bin/payload --connect 10.0.0.1:4444"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sanitize(s)
	}
}

func BenchmarkSanitize_Escaped(b *testing.B) {
	s := strings.Repeat(`a"b\c`+"\n", 40)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sanitize(s)
	}
}
