package validate

import (
	"fmt"
	"strings"
)

// RenderContext formats the source lines around a violation with a caret
// run under the offending value, for human-readable diagnostics. src is the
// raw temporary-access document the grants were parsed from.
func RenderContext(src []byte, v Violation, contextLines int) string {
	lines := strings.Split(strings.TrimSuffix(string(src), "\n"), "\n")
	if v.Line < 1 || v.Line > len(lines) {
		// No usable position; report the value on its own.
		return fmt.Sprintf("%s: %s %s\n", v.Description, v.Value, note(v.Kind))
	}

	start := v.Line - contextLines
	if start < 1 {
		start = 1
	}
	end := v.Line + contextLines
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		prefix := fmt.Sprintf("%d: ", i)
		b.WriteString(prefix)
		b.WriteString(lines[i-1])
		b.WriteByte('\n')
		if i == v.Line {
			column := v.Column
			if column < 1 {
				column = 1
			}
			b.WriteString(strings.Repeat(" ", len(prefix)+column-1))
			b.WriteString(strings.Repeat("^", max(len(v.Value), 1)))
			b.WriteByte(' ')
			b.WriteString(note(v.Kind))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func note(k Kind) string {
	switch k {
	case MalformedDate:
		return "- expiration_date is not a valid YYYY-MM-DD date"
	default:
		return fmt.Sprintf("- date must not be more than %d days into the future", MaxLeadDays)
	}
}
