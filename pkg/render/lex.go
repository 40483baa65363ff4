package render

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokDot
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokPipe
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

//nolint:gochecknoglobals // punctuation table
var punctuation = map[byte]tokenKind{
	'.': tokDot,
	'[': tokLBracket,
	']': tokRBracket,
	'(': tokLParen,
	')': tokRParen,
	'|': tokPipe,
	',': tokComma,
}

// lex splits a tag expression into tokens. String tokens hold the unquoted value.
func lex(src string) (toks []token, err error) {
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '\'' || c == '"':
			var b strings.Builder
			j := i + 1
			for ; j < len(src) && src[j] != c; j++ {
				if src[j] == '\\' && j+1 < len(src) {
					j++
					switch src[j] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(src[j])
					}
					continue
				}
				b.WriteByte(src[j])
			}
			if j >= len(src) {
				err = errorf("unterminated string")
				return toks, err
			}
			toks = append(toks, token{kind: tokString, text: b.String()})
			i = j + 1

		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j]})
			i = j

		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j]})
			i = j

		default:
			kind, ok := punctuation[c]
			if !ok {
				r, _ := utf8.DecodeRuneInString(src[i:])
				err = errorf("unexpected character %q", r)
				return toks, err
			}
			toks = append(toks, token{kind: kind, text: string(c)})
			i++
		}
	}
	return toks, err
}

func isIdentStart(c byte) (ok bool) {
	ok = c == '_' || unicode.IsLetter(rune(c)) && c < utf8.RuneSelf
	return ok
}

func isIdentPart(c byte) (ok bool) {
	ok = isIdentStart(c) || c >= '0' && c <= '9'
	return ok
}

func isIdent(s string) (ok bool) {
	if s == "" || !isIdentStart(s[0]) {
		return ok
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return ok
		}
	}
	ok = true
	return ok
}
