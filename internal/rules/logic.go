package rules

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The logic grammar is deliberately tiny: 1-based condition references,
// AND/OR/NOT (case-insensitive), and parentheses. Anything that does not
// parse, or references a condition out of range, degrades to AND-of-all —
// a malformed expression must never abort evaluation of a batch.
//
//	expr   := term (OR term)*
//	term   := factor (AND factor)*
//	factor := NOT factor | '(' expr ')' | NUMBER

// CombineLogic evaluates the logic expression against the per-condition
// results. An empty expression and any parse or evaluation failure both fall
// back to AND of all results.
func CombineLogic(expr string, results []bool) bool {
	if strings.TrimSpace(expr) == "" {
		return andAll(results)
	}

	node, err := parseLogic(expr)
	if err != nil {
		return andAll(results)
	}

	v, err := node.eval(results)
	if err != nil {
		return andAll(results)
	}
	return v
}

// ValidateLogic checks an expression against a rule's condition count and
// returns human-readable problems. An empty expression is always valid
// (it means AND of all conditions).
func ValidateLogic(expr string, conditionCount int) []string {
	if strings.TrimSpace(expr) == "" {
		return nil
	}

	var problems []string

	if open, close := strings.Count(expr, "("), strings.Count(expr, ")"); open != close {
		problems = append(problems, fmt.Sprintf("unbalanced parentheses: %d open, %d close", open, close))
	}

	node, err := parseLogic(expr)
	if err != nil {
		problems = append(problems, err.Error())
		return problems
	}

	for _, ref := range node.refs(nil) {
		if ref < 1 || ref > conditionCount {
			problems = append(problems, fmt.Sprintf("condition reference %d out of range 1-%d", ref, conditionCount))
		}
	}
	return problems
}

func andAll(results []bool) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

// logicNode is the evaluated AST: Ref, And, Or, Not.
type logicNode interface {
	eval(results []bool) (bool, error)
	refs(acc []int) []int
}

type refNode struct{ index int } // 1-based

func (n refNode) eval(results []bool) (bool, error) {
	if n.index < 1 || n.index > len(results) {
		return false, fmt.Errorf("condition reference %d out of range", n.index)
	}
	return results[n.index-1], nil
}

func (n refNode) refs(acc []int) []int { return append(acc, n.index) }

type andNode struct{ left, right logicNode }

func (n andNode) eval(results []bool) (bool, error) {
	l, err := n.left.eval(results)
	if err != nil {
		return false, err
	}
	r, err := n.right.eval(results)
	if err != nil {
		return false, err
	}
	return l && r, nil
}

func (n andNode) refs(acc []int) []int { return n.right.refs(n.left.refs(acc)) }

type orNode struct{ left, right logicNode }

func (n orNode) eval(results []bool) (bool, error) {
	l, err := n.left.eval(results)
	if err != nil {
		return false, err
	}
	r, err := n.right.eval(results)
	if err != nil {
		return false, err
	}
	return l || r, nil
}

func (n orNode) refs(acc []int) []int { return n.right.refs(n.left.refs(acc)) }

type notNode struct{ inner logicNode }

func (n notNode) eval(results []bool) (bool, error) {
	v, err := n.inner.eval(results)
	if err != nil {
		return false, err
	}
	return !v, nil
}

func (n notNode) refs(acc []int) []int { return n.inner.refs(acc) }

// Tokenizer.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	value int
}

func tokenizeLogic(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case unicode.IsDigit(c):
			j := i
			for j < len(expr) && unicode.IsDigit(rune(expr[j])) {
				j++
			}
			n, err := strconv.Atoi(expr[i:j])
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, value: n})
			i = j
		case unicode.IsLetter(c):
			j := i
			for j < len(expr) && unicode.IsLetter(rune(expr[j])) {
				j++
			}
			switch strings.ToUpper(expr[i:j]) {
			case "AND":
				tokens = append(tokens, token{kind: tokAnd})
			case "OR":
				tokens = append(tokens, token{kind: tokOr})
			case "NOT":
				tokens = append(tokens, token{kind: tokNot})
			default:
				return nil, fmt.Errorf("unexpected word %q in logic expression", expr[i:j])
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in logic expression", c)
		}
	}
	return tokens, nil
}

// Recursive-descent parser.

type logicParser struct {
	tokens []token
	pos    int
}

func parseLogic(expr string) (logicNode, error) {
	tokens, err := tokenizeLogic(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty logic expression")
	}

	p := &logicParser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("trailing tokens in logic expression")
	}
	return node, nil
}

func (p *logicParser) parseExpr() (logicNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek(tokOr) {
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *logicParser) parseTerm() (logicNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek(tokAnd) {
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *logicParser) parseFactor() (logicNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of logic expression")
	}

	tok := p.tokens[p.pos]
	switch tok.kind {
	case tokNot:
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	case tokLParen:
		p.pos++
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.peek(tokRParen) {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return node, nil
	case tokNumber:
		p.pos++
		return refNode{index: tok.value}, nil
	default:
		return nil, fmt.Errorf("unexpected token in logic expression")
	}
}

func (p *logicParser) peek(kind tokenKind) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind
}
