// Package sqlcheck checks SQL scripts for dangerous constructs.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package sqlcheck

import (
	"strings"
)

// Statement is one statement of a SQL script, as written.
type Statement struct {
	// Index is the 1-based position in the script.
	Index int

	// Line is the 1-based line where the statement text begins.
	Line int

	// Text is the raw statement including its terminating semicolon and any
	// whitespace or line comments that trail it.
	Text string
}

// Split breaks a SQL script into statements without validating them.
//
// A statement ends at a semicolon outside quotes, dollar-quoted bodies and
// comments. Whitespace and "--" comments after the semicolon stay with the
// statement they follow. Trailing text without a semicolon is a final
// statement, even when it is only whitespace. Empty input has no statements.
func Split(sql string) []Statement {
	var stmts []Statement
	start := 0
	line := 1
	startLine := 1

	emit := func(end int) {
		stmts = append(stmts, Statement{
			Index: len(stmts) + 1,
			Line:  startLine + leadingNewlines(sql[start:end]),
			Text:  sql[start:end],
		})
		start = end
		startLine = line
	}

	i := 0
	for i < len(sql) {
		next := i + 1
		switch c := sql[i]; {
		case strings.HasPrefix(sql[i:], "--"):
			next = skipLineComment(sql, i)
		case strings.HasPrefix(sql[i:], "/*"):
			next = skipBlockComment(sql, i)
		case c == '\'' || c == '"' || c == '`':
			next = skipQuoted(sql, i, c)
		case c == '$':
			next = skipDollarQuoted(sql, i)
		case c == ';':
			line += strings.Count(sql[i:next], "\n")
			i = next
			for i < len(sql) {
				if isSpace(sql[i]) {
					if sql[i] == '\n' {
						line++
					}
					i++
					continue
				}
				if strings.HasPrefix(sql[i:], "--") {
					end := skipLineComment(sql, i)
					line += strings.Count(sql[i:end], "\n")
					i = end
					continue
				}
				break
			}
			emit(i)
			continue
		}
		line += strings.Count(sql[i:next], "\n")
		i = next
	}

	if start < len(sql) {
		emit(len(sql))
	}
	return stmts
}

// leadingNewlines counts line breaks before the first non-space character.
func leadingNewlines(s string) int {
	n := 0
	for i := 0; i < len(s) && isSpace(s[i]); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// skipLineComment returns the offset just past the comment's newline.
func skipLineComment(s string, i int) int {
	j := strings.IndexByte(s[i:], '\n')
	if j < 0 {
		return len(s)
	}
	return i + j + 1
}

func skipBlockComment(s string, i int) int {
	j := strings.Index(s[i+2:], "*/")
	if j < 0 {
		return len(s)
	}
	return i + 2 + j + 2
}

// skipQuoted skips a quoted literal or identifier. Doubled quotes and
// backslash escapes do not terminate it.
func skipQuoted(s string, i int, q byte) int {
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case q:
			if j+1 < len(s) && s[j+1] == q {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(s)
}

// skipDollarQuoted skips a PostgreSQL $tag$...$tag$ body. A lone $ (e.g. a
// positional parameter like $1) is skipped as a single byte.
func skipDollarQuoted(s string, i int) int {
	j := i + 1
	for j < len(s) && isTagByte(s[j], j == i+1) {
		j++
	}
	if j >= len(s) || s[j] != '$' {
		return i + 1
	}
	tag := s[i : j+1]
	k := strings.Index(s[j+1:], tag)
	if k < 0 {
		return len(s)
	}
	return j + 1 + k + len(tag)
}

func isTagByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
