package css

import (
	"bytes"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Parsing stops at the first
// syntax error, which is returned along with everything read before it.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return sheet, syntaxError(parser)

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			switch atRule {
			case "@media":
				query := joinTokens(parser.Values())
				rules, err := p.parseMediaBlockRules(parser, sheet)
				if err != nil {
					return sheet, err
				}
				p.log.Debug("Parsed @media block", zap.String("query", query), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: query, Rules: rules},
				})
			case "@font-face":
				ff := p.parseFontFace(parser)
				sheet.Items = append(sheet.Items, StylesheetItem{FontFace: &ff})
			default:
				p.skipAtRuleBlock(parser)
				sheet.Warnings = append(sheet.Warnings, "dropped at-rule: "+atRule)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			atRule := string(data)
			if atRule == "@import" {
				if url := extractImportURL(parser.Values()); url != "" {
					sheet.Items = append(sheet.Items, StylesheetItem{Import: &url})
					p.log.Debug("Parsed @import", zap.String("url", url))
				}
			} else {
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.BeginRulesetGrammar:
			selectors := p.parseSelectors(data, parser.Values())
			rules, err := p.parseRuleset(parser, selectors, sheet)
			for i := range rules {
				sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rules[i]})
			}
			if err != nil {
				return sheet, err
			}
		}
	}
}

// syntaxError returns the parser error unless input simply ran out.
func syntaxError(parser *css.Parser) error {
	if !parser.HasParseError() {
		return nil
	}
	return fmt.Errorf("invalid stylesheet: %w", parser.Err())
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// parseSelectors extracts selector strings from token data.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	// Split by comma for grouped selectors
	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseRuleset reads the declarations of a ruleset and creates one rule per
// selector, each with its own copy of the properties.
func (p *Parser) parseRuleset(parser *css.Parser, selectors []string, sheet *Stylesheet) ([]Rule, error) {
	props, err := p.parseDeclarations(parser)
	if len(props) == 0 {
		return nil, err
	}
	rules := make([]Rule, 0, len(selectors))
	for _, selStr := range selectors {
		rules = append(rules, Rule{
			Selector:   p.parseSelector(selStr, sheet),
			Properties: maps.Clone(props),
		})
	}
	return rules, err
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) (map[string]Value, error) {
	props := make(map[string]Value)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return props, syntaxError(parser)

		case css.EndRulesetGrammar:
			return props, nil

		case css.DeclarationGrammar:
			values := parser.Values()
			if len(values) > 0 {
				props[string(data)] = p.parsePropertyValue(values)
			}

		case css.CustomPropertyGrammar:
			props[string(data)] = RawValue(strings.TrimSpace(joinTokens(parser.Values())))
		}
	}
}

// joinTokens rebuilds source text, collapsing whitespace runs to one space.
func joinTokens(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}

// parsePropertyValue converts CSS tokens to a Value.
func (p *Parser) parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	raw := joinTokens(tokens)
	val := Value{Raw: raw}

	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			val.Keyword = string(t.Data)
		}
		return val
	}

	// Functions (url(), rgb()...) and multi-value properties
	val.Keyword = raw
	return val
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, ""
	}

	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// parseSelector parses a single selector string into a Selector. Selectors
// inline styling cannot evaluate keep only their raw text.
func (p *Parser) parseSelector(selStr string, sheet *Stylesheet) Selector {
	selStr = strings.TrimSpace(selStr)
	sel := Selector{Raw: selStr}

	if strings.ContainsAny(selStr, "+~>") {
		p.warn(sheet, "combinator selector", selStr)
		return sel
	}
	if strings.Contains(selStr, "[") {
		p.warn(sheet, "attribute selector", selStr)
		return sel
	}

	if strings.ContainsAny(selStr, " \t\n") {
		return p.parseDescendantSelector(selStr, sheet)
	}
	return p.parseSimpleSelector(selStr, sheet)
}

func (p *Parser) warn(sheet *Stylesheet, kind, selStr string) {
	if sheet != nil {
		sheet.Warnings = append(sheet.Warnings, "not applied inline, "+kind+": "+selStr)
	}
	p.log.Debug("Selector kept for stylesheet only", zap.String("kind", kind), zap.String("selector", selStr))
}

// parseDescendantSelector parses a descendant selector like "g rect" or ".d-box text".
func (p *Parser) parseDescendantSelector(selStr string, sheet *Stylesheet) Selector {
	sel := Selector{Raw: selStr}

	parts := strings.Fields(selStr)
	if len(parts) < 2 {
		return sel
	}

	// The rightmost part is the subject of the selector
	mainSel := p.parseSimpleSelector(parts[len(parts)-1], sheet)
	if !mainSel.IsSimple() {
		return sel
	}
	sel.Element = mainSel.Element
	sel.Class = mainSel.Class

	ancestorParts := parts[:len(parts)-1]
	if len(ancestorParts) == 1 {
		ancestorSel := p.parseSimpleSelector(ancestorParts[0], sheet)
		if ancestorSel.IsSimple() {
			sel.Ancestor = &ancestorSel
		}
	} else {
		ancestorSel := p.parseDescendantSelector(strings.Join(ancestorParts, " "), sheet)
		if ancestorSel.IsSimple() || ancestorSel.IsDescendant() {
			sel.Ancestor = &ancestorSel
		}
	}
	return sel
}

// parseSimpleSelector parses an element, class or element.class selector.
func (p *Parser) parseSimpleSelector(selStr string, sheet *Stylesheet) Selector {
	selStr = strings.TrimSpace(selStr)
	sel := Selector{Raw: selStr}

	switch {
	case selStr == "":
		return sel
	case strings.Contains(selStr, ":"):
		p.warn(sheet, "pseudo selector", selStr)
		return sel
	case strings.Contains(selStr, "#"):
		p.warn(sheet, "id selector", selStr)
		return sel
	}

	element, class, found := strings.Cut(selStr, ".")
	if found && (class == "" || strings.Contains(class, ".")) {
		p.warn(sheet, "compound class selector", selStr)
		return sel
	}
	sel.Element = element
	sel.Class = class
	return sel
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseFontFace parses an @font-face block.
func (p *Parser) parseFontFace(parser *css.Parser) FontFace {
	ff := FontFace{}

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return ff

		case css.DeclarationGrammar:
			values := parser.Values()
			if len(values) == 0 {
				continue
			}

			var parts []string
			for _, v := range values {
				if v.TokenType != css.WhitespaceToken {
					parts = append(parts, string(v.Data))
				}
			}
			valStr := strings.Join(parts, " ")

			switch string(data) {
			case "font-family":
				ff.Family = unquote(valStr)
			case "src":
				ff.Src = valStr
			case "font-style":
				ff.Style = valStr
			case "font-weight":
				ff.Weight = valStr
			}
		}
	}
}

// parseMediaBlockRules parses rules inside an @media block and returns them.
func (p *Parser) parseMediaBlockRules(parser *css.Parser, sheet *Stylesheet) ([]Rule, error) {
	var rules []Rule

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return rules, syntaxError(parser)

		case css.EndAtRuleGrammar:
			return rules, nil

		case css.BeginRulesetGrammar:
			selectors := p.parseSelectors(data, parser.Values())
			more, err := p.parseRuleset(parser, selectors, sheet)
			rules = append(rules, more...)
			if err != nil {
				return rules, err
			}
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
