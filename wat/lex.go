package wat

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokKeyword // func, i32.const, offset=8, ...
	tokID      // $name
	tokNumber  // 42, -1, 0xFF
	tokString  // "...", decoded into bytes
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokKeyword:
		return "keyword"
	case tokID:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	default:
		return "token"
	}
}

type pos struct {
	line int
	col  int
}

type token struct {
	kind  tokenKind
	text  string // raw text for keywords, ids, numbers
	bytes []byte // decoded contents for strings
	pos   pos
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) errorf(p pos, format string, args ...any) error {
	return &SyntaxError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) here() pos {
	return pos{line: l.line, col: l.col}
}

func (l *lexer) peekByte() (byte, bool) {
	if l.off >= len(l.src) {
		return 0, false
	}
	return l.src[l.off], true
}

func (l *lexer) advance() byte {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}

	start := l.here()
	c, ok := l.peekByte()
	if !ok {
		return token{kind: tokEOF, pos: start}, nil
	}

	switch {
	case c == '(':
		l.advance()
		return token{kind: tokLParen, pos: start}, nil
	case c == ')':
		l.advance()
		return token{kind: tokRParen, pos: start}, nil
	case c == '"':
		return l.lexString(start)
	case c == '$':
		l.advance()
		name := l.takeIDChars()
		if name == "" {
			return token{}, l.errorf(start, "empty identifier after $")
		}
		return token{kind: tokID, text: "$" + name, pos: start}, nil
	case c >= '0' && c <= '9', c == '+', c == '-':
		text := l.takeIDChars()
		if text == "+" || text == "-" {
			return token{}, l.errorf(start, "bare sign is not a number")
		}
		return token{kind: tokNumber, text: text, pos: start}, nil
	case isIDChar(c):
		return token{kind: tokKeyword, text: l.takeIDChars(), pos: start}, nil
	default:
		return token{}, l.errorf(start, "unexpected character %q", string(c))
	}
}

// skipSpace consumes whitespace, line comments (;;) and nested block
// comments ((; ;)).
func (l *lexer) skipSpace() error {
	for {
		c, ok := l.peekByte()
		if !ok {
			return nil
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == ';':
			if l.off+1 < len(l.src) && l.src[l.off+1] == ';' {
				for {
					c, ok := l.peekByte()
					if !ok || c == '\n' {
						break
					}
					l.advance()
				}
				continue
			}
			return l.errorf(l.here(), `stray ";" (line comments start with ";;")`)
		case c == '(' && l.off+1 < len(l.src) && l.src[l.off+1] == ';':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (l *lexer) skipBlockComment() error {
	start := l.here()
	l.advance() // (
	l.advance() // ;
	depth := 1
	for depth > 0 {
		c, ok := l.peekByte()
		if !ok {
			return l.errorf(start, "unterminated block comment")
		}
		if c == '(' && l.off+1 < len(l.src) && l.src[l.off+1] == ';' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if c == ';' && l.off+1 < len(l.src) && l.src[l.off+1] == ')' {
			l.advance()
			l.advance()
			depth--
			continue
		}
		l.advance()
	}
	return nil
}

func (l *lexer) lexString(start pos) (token, error) {
	l.advance() // opening quote
	var out []byte
	for {
		c, ok := l.peekByte()
		if !ok {
			return token{}, l.errorf(start, "unterminated string literal")
		}
		if c == '\n' {
			return token{}, l.errorf(start, "newline in string literal")
		}
		l.advance()
		if c == '"' {
			return token{kind: tokString, bytes: out, pos: start}, nil
		}
		if c != '\\' {
			out = append(out, c)
			continue
		}

		esc, ok := l.peekByte()
		if !ok {
			return token{}, l.errorf(start, "unterminated string literal")
		}
		l.advance()
		switch esc {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '"', '\'', '\\':
			out = append(out, esc)
		default:
			hi := hexDigit(esc)
			if hi < 0 {
				return token{}, l.errorf(start, `unsupported escape "\%s"`, string(esc))
			}
			c2, ok := l.peekByte()
			if !ok {
				return token{}, l.errorf(start, "unterminated string literal")
			}
			lo := hexDigit(c2)
			if lo < 0 {
				return token{}, l.errorf(start, "invalid hex escape in string literal")
			}
			l.advance()
			out = append(out, byte(hi<<4|lo))
		}
	}
}

func (l *lexer) takeIDChars() string {
	var sb strings.Builder
	for {
		c, ok := l.peekByte()
		if !ok || !isIDChar(c) {
			return sb.String()
		}
		sb.WriteByte(l.advance())
	}
}

// isIDChar reports whether c may appear in a keyword or identifier.
// This is the text format's idchar set.
func isIDChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '/',
		':', '<', '=', '>', '?', '@', '\\', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}
