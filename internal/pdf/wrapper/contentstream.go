package wrapper

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// TextFromContentStream recovers the shown text of a decoded page content
// stream. Each text object (BT) starts a new line, T* and the quote operators
// break lines, and positioning operators insert a single space. String bytes
// are decoded as Windows-1252, the encoding simple fonts use in practice.
func TextFromContentStream(content []byte) string {
	var sb strings.Builder
	var operands []string

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		if s := sb.String(); s != "" && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			sb.WriteByte(' ')
		}
	}
	show := func() {
		for _, op := range operands {
			sb.WriteString(op)
		}
	}

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case isWhitespace(c):
			i++
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteralString(content, i)
			operands = append(operands, decodeWinAnsi(s))
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i += 2
		case c == '<':
			s, next := readHexString(content, i)
			operands = append(operands, decodeWinAnsi(s))
			i = next
		case c == '>' || c == '[' || c == ']' || c == '{' || c == '}' || c == ')':
			i++
		case c == '/':
			// names are operands we never need
			i++
			for i < len(content) && !isWhitespace(content[i]) && !isDelimiter(content[i]) {
				i++
			}
		default:
			start := i
			for i < len(content) && !isWhitespace(content[i]) && !isDelimiter(content[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			switch tok := string(content[start:i]); tok {
			case "BT":
				newline()
				operands = operands[:0]
			case "T*":
				newline()
				operands = operands[:0]
			case "'", "\"":
				newline()
				show()
				operands = operands[:0]
			case "Tj", "TJ":
				show()
				operands = operands[:0]
			case "Td", "TD", "Tm":
				space()
				operands = operands[:0]
			default:
				if isOperator(tok) {
					operands = operands[:0]
				}
			}
		}
	}

	return strings.TrimSpace(sb.String())
}

// readLiteralString reads a balanced (...) string starting at content[start]
// and returns its unescaped bytes and the index after the closing paren.
func readLiteralString(content []byte, start int) ([]byte, int) {
	var out []byte
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return out, i
			}
			out = append(out, c)
		case '\\':
			i++
			if i >= len(content) {
				return out, i
			}
			e := content[i]
			switch e {
			case 'n':
				out = append(out, '\n')
				i++
			case 'r':
				out = append(out, '\r')
				i++
			case 't':
				out = append(out, '\t')
				i++
			case 'b':
				out = append(out, '\b')
				i++
			case 'f':
				out = append(out, '\f')
				i++
			case '\r':
				// line continuation
				i++
				if i < len(content) && content[i] == '\n' {
					i++
				}
			case '\n':
				i++
			default:
				if e >= '0' && e <= '7' {
					val := 0
					for n := 0; n < 3 && i < len(content) && content[i] >= '0' && content[i] <= '7'; n++ {
						val = val*8 + int(content[i]-'0')
						i++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
					i++
				}
			}
		default:
			out = append(out, c)
			i++
		}
	}
	return out, i
}

// readHexString reads a <...> string starting at content[start]
func readHexString(content []byte, start int) ([]byte, int) {
	var out []byte
	var hi byte
	haveHi := false
	i := start + 1
	for ; i < len(content) && content[i] != '>'; i++ {
		v, ok := hexValue(content[i])
		if !ok {
			continue
		}
		if haveHi {
			out = append(out, hi<<4|v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	if haveHi {
		out = append(out, hi<<4)
	}
	return out, i + 1
}

func decodeWinAnsi(b []byte) string {
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// isOperator reports whether tok looks like a content stream operator rather
// than a numeric operand.
func isOperator(tok string) bool {
	c := tok[0]
	return c != '+' && c != '-' && c != '.' && (c < '0' || c > '9')
}
