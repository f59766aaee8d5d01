package expr

import (
	"strconv"
	"strings"
	"unicode"
)

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	TokNumber TokenKind = iota
	TokVar
	TokString
	TokSymbol
	TokLParen
	TokRParen
	TokComma
	TokOp
)

// Token is a lexical unit of an expression.
type Token struct {
	Kind TokenKind
	Text string
	Num  float64
	Pos  int
}

var keywordOps = map[string]bool{
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
	"and": true, "or": true, "xor": true,
}

func isIdentStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdent(r byte) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r byte) bool { return r >= '0' && r <= '9' }

// Tokenize splits an expression into tokens.
func Tokenize(s string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1])):
			tok, next, err := scanNumber(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == '$':
			tok, next, err := scanVar(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == '"' || c == '\'':
			tok, next, err := scanString(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdent(s[j]) {
				j++
			}
			word := s[i:j]
			kind := TokSymbol
			if keywordOps[word] && !followedByParen(s, j) {
				kind = TokOp
			}
			toks = append(toks, Token{Kind: kind, Text: word, Pos: i})
			i = j
		case c == '(':
			toks = append(toks, Token{Kind: TokLParen, Text: "(", Pos: i})
			i++
		case c == ')':
			toks = append(toks, Token{Kind: TokRParen, Text: ")", Pos: i})
			i++
		case c == ',':
			toks = append(toks, Token{Kind: TokComma, Text: ",", Pos: i})
			i++
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			toks = append(toks, Token{Kind: TokOp, Text: "//", Pos: i})
			i += 2
		case strings.IndexByte("+-*/%", c) >= 0:
			toks = append(toks, Token{Kind: TokOp, Text: string(c), Pos: i})
			i++
		default:
			return nil, newError(ErrTokenize, "unexpected character %q at offset %d", c, i)
		}
	}
	return toks, nil
}

func followedByParen(s string, i int) bool {
	for i < len(s) && unicode.IsSpace(rune(s[i])) {
		i++
	}
	return i < len(s) && s[i] == '('
}

func scanNumber(s string, start int) (Token, int, error) {
	i := start
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	// a number running straight into letters, digits or another dot is malformed
	if i < len(s) && (isIdent(s[i]) || s[i] == '.') {
		end := i
		for end < len(s) && (isIdent(s[end]) || s[end] == '.') {
			end++
		}
		return Token{}, 0, newError(ErrTokenize, "malformed number %q", s[start:end])
	}
	text := s[start:i]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, 0, newError(ErrTokenize, "malformed number %q", text)
	}
	return Token{Kind: TokNumber, Text: text, Num: v, Pos: start}, i, nil
}

func scanVar(s string, start int) (Token, int, error) {
	i := start + 1
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return Token{}, 0, newError(ErrTokenize, "unterminated variable reference at offset %d", start)
		}
		name := s[i+1 : i+end]
		if name == "" {
			return Token{}, 0, newError(ErrTokenize, "empty variable name at offset %d", start)
		}
		return Token{Kind: TokVar, Text: name, Pos: start}, i + end + 1, nil
	}
	j := i
	for j < len(s) && isIdent(s[j]) {
		j++
	}
	if j == i {
		return Token{}, 0, newError(ErrTokenize, "missing variable name at offset %d", start)
	}
	return Token{Kind: TokVar, Text: s[i:j], Pos: start}, j, nil
}

func scanString(s string, start int) (Token, int, error) {
	quote := s[start]
	var sb strings.Builder
	i := start + 1
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			sb.WriteByte(s[i+1])
			i += 2
		case c == quote:
			return Token{Kind: TokString, Text: sb.String(), Pos: start}, i + 1, nil
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return Token{}, 0, newError(ErrTokenize, "unterminated string starting at offset %d", start)
}
