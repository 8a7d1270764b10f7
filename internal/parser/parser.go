// Package parser provides Python source parsing using tree-sitter.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned when the source contains syntax errors.
var ErrSyntax = errors.New("invalid python syntax")

// Result contains the parsed tree and any errors encountered.
type Result struct {
	// Tree owns the native parse tree. Release it with Close.
	Tree *sitter.Tree

	// Root is the module node.
	Root *sitter.Node

	// Source is the parsed content; node text is sliced out of it.
	Source []byte

	// Errors contains the error and missing nodes found in the tree.
	// tree-sitter always produces a tree, so a partial tree accompanies errors.
	Errors []ParseError
}

// ParseError represents a parsing error with location information.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

// Close releases the native tree.
func (r *Result) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// Text returns the source text spanned by node.
func (r *Result) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(r.Source)
}

// Parse parses Python content and returns the tree.
// When the source has syntax errors the partial result is returned together
// with an error wrapping ErrSyntax.
func Parse(ctx context.Context, content []byte) (*Result, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}

	result := &Result{
		Tree:   tree,
		Root:   tree.RootNode(),
		Source: content,
	}

	if result.Root.HasError() {
		result.Errors = collectErrors(result.Root)
		if len(result.Errors) > 0 {
			first := result.Errors[0]
			return result, fmt.Errorf("%w: line %d, column %d: %s", ErrSyntax, first.Line, first.Column, first.Message)
		}
		return result, ErrSyntax
	}

	return result, nil
}

// collectErrors gathers ERROR and MISSING nodes in source order.
func collectErrors(root *sitter.Node) []ParseError {
	var errs []ParseError
	Walk(root, func(node *sitter.Node) bool {
		switch {
		case node.IsMissing():
			errs = append(errs, ParseError{
				Line:    Line(node),
				Column:  Column(node),
				Message: "missing " + node.Type(),
			})
			return false
		case node.Type() == "ERROR":
			errs = append(errs, ParseError{
				Line:    Line(node),
				Column:  Column(node),
				Message: "unexpected input",
			})
			return false
		}
		return node.HasError()
	})
	return errs
}

// Line returns the 1-based start line of node.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// Column returns the 1-based start column of node.
func Column(node *sitter.Node) int {
	return int(node.StartPoint().Column) + 1
}

// WalkFunc is called for each node during traversal.
type WalkFunc func(node *sitter.Node) bool

// Walk traverses the tree in depth-first, source order.
// If walkFn returns false, children of the current node are not visited.
func Walk(node *sitter.Node, walkFn WalkFunc) {
	if node == nil || node.IsNull() {
		return
	}
	if !walkFn(node) {
		return
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		Walk(node.Child(i), walkFn)
	}
}

// FindCalls returns every call node in traversal order, nested calls included.
func FindCalls(root *sitter.Node) []*sitter.Node {
	var calls []*sitter.Node
	Walk(root, func(node *sitter.Node) bool {
		if node.Type() == "call" {
			calls = append(calls, node)
		}
		return true
	})
	return calls
}

// MethodName returns the accessed name when node is a call whose callee is a
// member access (obj.name(...)).
func (r *Result) MethodName(call *sitter.Node) (string, bool) {
	if call == nil || call.Type() != "call" {
		return "", false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return "", false
	}
	attr := fn.ChildByFieldName("attribute")
	if attr == nil {
		return "", false
	}
	return r.Text(attr), true
}

// PositionalArgs returns the positional arguments of a call in order.
// Keyword arguments and ** splats are excluded; a bare generator argument
// counts as the single positional argument.
func PositionalArgs(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	if args.Type() == "generator_expression" {
		return []*sitter.Node{args}
	}

	var positional []*sitter.Node
	count := int(args.NamedChildCount())
	for i := 0; i < count; i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "keyword_argument", "dictionary_splat", "comment":
			continue
		}
		positional = append(positional, arg)
	}
	return positional
}

// Unparen strips redundant parentheses around an expression.
func Unparen(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		inner := firstNamedNonComment(node)
		if inner == nil {
			return node
		}
		node = inner
	}
	return node
}

func firstNamedNonComment(node *sitter.Node) *sitter.Node {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		c := node.NamedChild(i)
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// IsFString reports whether node is an interpolated string literal: an
// f-prefixed string, or an implicit concatenation containing one.
func (r *Result) IsFString(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "string":
		prefix, _ := splitStringPrefix(r.Text(node))
		return strings.ContainsAny(prefix, "fF")
	case "concatenated_string":
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			if r.IsFString(node.NamedChild(i)) {
				return true
			}
		}
	}
	return false
}

// splitStringPrefix separates a string token into its prefix letters and the
// quoted body.
func splitStringPrefix(token string) (prefix, quoted string) {
	i := strings.IndexAny(token, `'"`)
	if i < 0 {
		return "", token
	}
	return token[:i], token[i:]
}
