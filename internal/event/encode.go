package event

import (
	"errors"
	"strconv"
)

// LineBudget is the byte budget for one encoded line including its
// trailing newline. An event whose encoding reaches the budget is
// dropped, never truncated: a partial JSON line would poison the
// collector's stream.
const LineBudget = 1024

// ErrLineTooLong reports an event whose encoded line reached LineBudget.
var ErrLineTooLong = errors.New("event: encoded line exceeds budget")

// AppendLine appends ev to dst as one newline-terminated JSON line with
// fixed key order:
//
//	{"type":"exec","module":"libc","function":"execve","cmd":"/bin/true","filename":"","lineno":0}
//
// String fields must already be sanitized (see Sanitize); AppendLine
// splices them in verbatim. On ErrLineTooLong dst is returned unchanged.
func AppendLine(dst []byte, ev Event) ([]byte, error) {
	start := len(dst)
	dst = append(dst, `{"type":"`...)
	dst = append(dst, ev.Type...)
	dst = append(dst, `","module":"`...)
	dst = append(dst, ev.Module...)
	dst = append(dst, `","function":"`...)
	dst = append(dst, ev.Function...)
	dst = append(dst, `","cmd":"`...)
	dst = append(dst, ev.Cmd...)
	dst = append(dst, `","filename":"`...)
	dst = append(dst, ev.Filename...)
	dst = append(dst, `","lineno":`...)
	dst = strconv.AppendInt(dst, int64(ev.Lineno), 10)
	dst = append(dst, '}', '\n')
	if len(dst)-start >= LineBudget {
		return dst[:start], ErrLineTooLong
	}
	return dst, nil
}

// Line encodes ev into a fresh buffer.
func Line(ev Event) ([]byte, error) {
	return AppendLine(nil, ev)
}
