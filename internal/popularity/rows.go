package popularity

import (
	"bufio"
	"io"
	"strings"
)

// rowReader splits tab-separated rows. A backslash escapes the next byte,
// including tabs and newlines, and double-quoted fields may contain either.
type rowReader struct {
	r    *bufio.Reader
	pos  int // current line number
	line int // line the last returned row started on
}

func newRowReader(r io.Reader) *rowReader {
	return &rowReader{r: bufio.NewReader(r), pos: 1}
}

// next returns the fields of the next row, or io.EOF when the input is exhausted.
func (rr *rowReader) next() ([]string, error) {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		quoted   bool
		sawByte  bool
	)
	rr.line = rr.pos
	for {
		b, err := rr.r.ReadByte()
		if err == io.EOF {
			if !sawByte {
				return nil, io.EOF
			}
			return append(fields, strings.TrimSuffix(field.String(), "\r")), nil
		}
		if err != nil {
			return nil, err
		}
		sawByte = true

		switch {
		case b == '\\':
			nb, err := rr.r.ReadByte()
			if err == io.EOF {
				field.WriteByte(b)
				continue
			}
			if err != nil {
				return nil, err
			}
			if nb == '\n' {
				rr.pos++
			}
			field.WriteByte(nb)
		case inQuotes:
			if b != '"' {
				if b == '\n' {
					rr.pos++
				}
				field.WriteByte(b)
				continue
			}
			if pk, err := rr.r.Peek(1); err == nil && pk[0] == '"' {
				_, _ = rr.r.ReadByte()
				field.WriteByte('"')
				continue
			}
			inQuotes = false
		case b == '"' && field.Len() == 0 && !quoted:
			inQuotes, quoted = true, true
		case b == '\t':
			fields = append(fields, field.String())
			field.Reset()
			quoted = false
		case b == '\n':
			rr.pos++
			return append(fields, strings.TrimSuffix(field.String(), "\r")), nil
		default:
			field.WriteByte(b)
		}
	}
}
