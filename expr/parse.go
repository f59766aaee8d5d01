package expr

// Node is a parsed expression.
type Node interface {
	eval(ev *evaluator) (Value, error)
}

type (
	numberNode struct{ v float64 }
	stringNode struct{ s string }
	varNode    struct{ name string }
	unaryNode  struct{ x Node }
	binaryNode struct {
		op   string
		l, r Node
	}
	callNode struct {
		name string
		args []Node
	}
	listNode struct{ items []Node }
)

// Parse tokenizes and parses an expression. A top-level comma separated
// sequence becomes a list.
func Parse(s string) (Node, error) {
	toks, err := Tokenize(s)
	if err != nil {
		return nil, withExpr(err, s)
	}
	if len(toks) == 0 {
		return nil, &Error{Kind: ErrParse, Expr: s, Msg: "empty expression"}
	}
	p := &parser{toks: toks}
	n, err := p.parseList()
	if err != nil {
		return nil, withExpr(err, s)
	}
	if !p.done() {
		return nil, &Error{Kind: ErrParse, Expr: s, Msg: "unexpected " + p.peek().Text}
	}
	return n, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() Token {
	if p.done() {
		return Token{Kind: -1, Text: "end of expression"}
	}
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) isOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.Kind != TokOp {
		return "", false
	}
	for _, op := range ops {
		if t.Text == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseList() (Node, error) {
	items, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return listNode{items: items}, nil
}

func (p *parser) parseSequence() ([]Node, error) {
	var items []Node
	for {
		n, err := p.parseLogic()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		if p.peek().Kind != TokComma {
			return items, nil
		}
		p.next()
	}
}

func (p *parser) parseLogic() (Node, error) {
	l, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("and", "or", "xor")
		if !ok {
			return l, nil
		}
		p.next()
		r, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseCompare() (Node, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("eq", "ne", "lt", "le", "gt", "ge")
		if !ok {
			return l, nil
		}
		p.next()
		r, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	l, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("+", "-")
		if !ok {
			return l, nil
		}
		p.next()
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseTerm() (Node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("*", "/", "//", "%")
		if !ok {
			return l, nil
		}
		p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if _, ok := p.isOp("-"); ok {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.Kind {
	case TokNumber:
		return numberNode{v: t.Num}, nil
	case TokString:
		return stringNode{s: t.Text}, nil
	case TokVar:
		return varNode{name: t.Text}, nil
	case TokLParen:
		n, err := p.parseList()
		if err != nil {
			return nil, err
		}
		if p.next().Kind != TokRParen {
			return nil, newError(ErrParse, "missing closing parenthesis")
		}
		return n, nil
	case TokSymbol:
		if p.peek().Kind != TokLParen {
			return nil, newError(ErrParse, "bare symbol %q", t.Text)
		}
		p.next()
		var args []Node
		if p.peek().Kind != TokRParen {
			var err error
			if args, err = p.parseSequence(); err != nil {
				return nil, err
			}
		}
		if p.next().Kind != TokRParen {
			return nil, newError(ErrParse, "missing closing parenthesis in call to %s", t.Text)
		}
		return callNode{name: t.Text, args: args}, nil
	}
	return nil, newError(ErrParse, "unexpected %s", t.Text)
}
