// Package parser provides Python source parsing using tree-sitter.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrNotLiteral is returned when the source is not a single literal expression.
var ErrNotLiteral = errors.New("malformed node or string")

// EvalLiteral evaluates content holding exactly one Python literal expression
// (dict, list, tuple, set, str, bytes, int, float, bool, None).
//
// Values map to map[string]any, []any, string, int64, float64, bool and nil.
// Dictionary keys must be strings.
func EvalLiteral(ctx context.Context, content []byte) (any, error) {
	result, err := Parse(ctx, content)
	if err != nil {
		result.Close()
		return nil, err
	}
	defer result.Close()

	var stmts []*sitter.Node
	count := int(result.Root.NamedChildCount())
	for i := 0; i < count; i++ {
		c := result.Root.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		stmts = append(stmts, c)
	}

	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" {
		return nil, fmt.Errorf("%w: expected a single expression", ErrNotLiteral)
	}
	expr := firstNamedNonComment(stmts[0])
	if expr == nil || stmts[0].NamedChildCount() != 1 {
		return nil, fmt.Errorf("%w: expected a single expression", ErrNotLiteral)
	}

	return result.eval(expr)
}

func (r *Result) eval(node *sitter.Node) (any, error) {
	switch node.Type() {
	case "dictionary":
		return r.evalDict(node)
	case "list", "tuple", "set":
		return r.evalSequence(node)
	case "parenthesized_expression":
		inner := Unparen(node)
		if inner == node {
			return nil, r.notLiteral(node)
		}
		return r.eval(inner)
	case "string":
		return r.evalString(node)
	case "concatenated_string":
		var b strings.Builder
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			part := node.NamedChild(i)
			if part.Type() == "comment" {
				continue
			}
			s, err := r.evalString(part)
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case "integer":
		text := strings.ReplaceAll(r.Text(node), "_", "")
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: integer %q: %v", ErrNotLiteral, text, err)
		}
		return v, nil
	case "float":
		text := strings.ReplaceAll(r.Text(node), "_", "")
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: float %q: %v", ErrNotLiteral, text, err)
		}
		return v, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "none":
		return nil, nil
	case "unary_operator":
		return r.evalUnary(node)
	}
	return nil, r.notLiteral(node)
}

func (r *Result) notLiteral(node *sitter.Node) error {
	return fmt.Errorf("%w: unsupported %s at line %d", ErrNotLiteral, node.Type(), Line(node))
}

func (r *Result) evalDict(node *sitter.Node) (any, error) {
	out := make(map[string]any)
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		pair := node.NamedChild(i)
		switch pair.Type() {
		case "comment":
			continue
		case "pair":
		default:
			return nil, r.notLiteral(pair)
		}

		key, err := r.eval(pair.ChildByFieldName("key"))
		if err != nil {
			return nil, err
		}
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key at line %d", ErrNotLiteral, Line(pair))
		}

		value, err := r.eval(pair.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

func (r *Result) evalSequence(node *sitter.Node) (any, error) {
	items := []any{}
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		c := node.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		v, err := r.eval(c)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func (r *Result) evalUnary(node *sitter.Node) (any, error) {
	op := r.Text(node.ChildByFieldName("operator"))
	v, err := r.eval(node.ChildByFieldName("argument"))
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case int64:
		switch op {
		case "-":
			return -n, nil
		case "+":
			return n, nil
		}
	case float64:
		switch op {
		case "-":
			return -n, nil
		case "+":
			return n, nil
		}
	}
	return nil, r.notLiteral(node)
}

func (r *Result) evalString(node *sitter.Node) (string, error) {
	if node == nil || node.Type() != "string" {
		if node == nil {
			return "", ErrNotLiteral
		}
		return "", r.notLiteral(node)
	}

	prefix, quoted := splitStringPrefix(r.Text(node))
	prefix = strings.ToLower(prefix)
	if strings.Contains(prefix, "f") {
		return "", fmt.Errorf("%w: f-string at line %d", ErrNotLiteral, Line(node))
	}

	body := stripQuotes(quoted)
	if strings.Contains(prefix, "r") {
		return body, nil
	}
	return unescape(body), nil
}

// stripQuotes removes single or triple quote delimiters.
func stripQuotes(quoted string) string {
	if len(quoted) < 2 {
		return ""
	}
	q := quoted[:1]
	triple := q + q + q
	if len(quoted) >= 6 && strings.HasPrefix(quoted, triple) && strings.HasSuffix(quoted, triple) {
		return quoted[3 : len(quoted)-3]
	}
	return quoted[1 : len(quoted)-1]
}

// unescape interprets Python backslash escapes. Unknown escapes are kept
// verbatim, as Python does.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			i++
		case '\\', '\'', '"':
			b.WriteByte(next)
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 'a':
			b.WriteByte('\a')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'v':
			b.WriteByte('\v')
			i++
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
			if i+2+width > len(s) {
				b.WriteByte(c)
				continue
			}
			code, err := strconv.ParseUint(s[i+2:i+2+width], 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				b.WriteByte(c)
				continue
			}
			b.WriteRune(rune(code))
			i += 1 + width
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			code, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			b.WriteRune(rune(code))
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
