package generator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// parsePermissive parses a JSON-like literal the way a lenient reader
// would: single- or double-quoted strings, trailing commas, and the
// Python spellings True/False/None. Numbers come back as json.Number,
// matching the strict path.
func parsePermissive(s string) (any, error) {
	p := &permissiveParser{s: s}
	p.ws()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.ws()
	if p.i != len(p.s) {
		return nil, fmt.Errorf("trailing data at offset %d", p.i)
	}
	return v, nil
}

type permissiveParser struct {
	s string
	i int
}

func (p *permissiveParser) ws() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *permissiveParser) errf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.i, fmt.Sprintf(format, args...))
}

func (p *permissiveParser) value() (any, error) {
	if p.i >= len(p.s) {
		return nil, p.errf("unexpected end of input")
	}
	switch c := p.s[p.i]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'':
		return p.string()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.word()
	}
}

func (p *permissiveParser) object() (map[string]any, error) {
	p.i++ // consume '{'
	out := map[string]any{}
	for {
		p.ws()
		if p.i < len(p.s) && p.s[p.i] == '}' {
			p.i++
			return out, nil
		}
		key, err := p.string()
		if err != nil {
			return nil, err
		}
		p.ws()
		if p.i >= len(p.s) || p.s[p.i] != ':' {
			return nil, p.errf("expected ':' after object key %q", key)
		}
		p.i++
		p.ws()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
		p.ws()
		if p.i < len(p.s) && p.s[p.i] == ',' {
			p.i++
			continue
		}
		if p.i < len(p.s) && p.s[p.i] == '}' {
			p.i++
			return out, nil
		}
		return nil, p.errf("expected ',' or '}' in object")
	}
}

func (p *permissiveParser) array() ([]any, error) {
	p.i++ // consume '['
	out := []any{}
	for {
		p.ws()
		if p.i < len(p.s) && p.s[p.i] == ']' {
			p.i++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.ws()
		if p.i < len(p.s) && p.s[p.i] == ',' {
			p.i++
			continue
		}
		if p.i < len(p.s) && p.s[p.i] == ']' {
			p.i++
			return out, nil
		}
		return nil, p.errf("expected ',' or ']' in array")
	}
}

func (p *permissiveParser) string() (string, error) {
	if p.i >= len(p.s) || (p.s[p.i] != '"' && p.s[p.i] != '\'') {
		return "", p.errf("expected string")
	}
	quote := p.s[p.i]
	p.i++
	var b strings.Builder
	for p.i < len(p.s) {
		c := p.s[p.i]
		switch c {
		case quote:
			p.i++
			return b.String(), nil
		case '\\':
			p.i++
			if p.i >= len(p.s) {
				return "", p.errf("unterminated escape")
			}
			switch e := p.s[p.i]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'u':
				r, err := p.hex4(p.i + 1)
				if err != nil {
					return "", err
				}
				p.i += 4
				// A high surrogate followed by \u-escaped low surrogate
				// is one code point, not two.
				if utf16.IsSurrogate(r) && p.i+6 < len(p.s) && p.s[p.i+1] == '\\' && p.s[p.i+2] == 'u' {
					if r2, err := p.hex4(p.i + 3); err == nil {
						if paired := utf16.DecodeRune(r, r2); paired != utf8.RuneError {
							r = paired
							p.i += 6
						}
					}
				}
				b.WriteRune(r)
			default:
				b.WriteByte(e)
			}
			p.i++
		default:
			r, size := utf8.DecodeRuneInString(p.s[p.i:])
			b.WriteRune(r)
			p.i += size
		}
	}
	return "", p.errf("unterminated string")
}

func (p *permissiveParser) hex4(start int) (rune, error) {
	if start+4 > len(p.s) {
		return 0, p.errf("truncated unicode escape")
	}
	n, err := strconv.ParseUint(p.s[start:start+4], 16, 32)
	if err != nil {
		return 0, p.errf("bad unicode escape: %v", err)
	}
	return rune(n), nil
}

func (p *permissiveParser) number() (json.Number, error) {
	start := p.i
	if p.s[p.i] == '-' || p.s[p.i] == '+' {
		p.i++
	}
	for p.i < len(p.s) {
		c := p.s[p.i]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+' {
			p.i++
			continue
		}
		break
	}
	lit := p.s[start:p.i]
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		return "", p.errf("bad number %q", lit)
	}
	return json.Number(lit), nil
}

func (p *permissiveParser) word() (any, error) {
	start := p.i
	for p.i < len(p.s) {
		c := p.s[p.i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.i++
			continue
		}
		break
	}
	switch p.s[start:p.i] {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "null", "None":
		return nil, nil
	}
	p.i = start
	return nil, p.errf("unexpected token")
}
