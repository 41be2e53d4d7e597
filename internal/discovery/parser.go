package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pako-23/testdeps/internal/resolver"
)

var ErrMalformedDecorator = errors.New("malformed dependency decorator")

var (
	classPattern     = regexp.MustCompile(`^class\s+(\w+)\s*[(:]`)
	defPattern       = regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)\s*\(`)
	decoratorPattern = regexp.MustCompile(`^@(?:[\w.]+\.)?dependency\s*\(`)
	dependsPattern   = regexp.MustCompile(`\bdepends\s*=\s*`)
	dependsList      = regexp.MustCompile(`(?s)^[\[(](.*?)[\])]`)
	scopePattern     = regexp.MustCompile(`\bscope\s*=\s*(?:'([^']*)'|"([^"]*)")`)
	scopeKeyword     = regexp.MustCompile(`\bscope\s*=`)
	stringLiteral    = regexp.MustCompile(`'([^'\\]*)'|"([^"\\]*)"`)
)

// block is a class or function definition enclosing the current line.
type block struct {
	class  bool
	name   string
	indent int
}

// decorator is a dependency decorator waiting for the test it decorates.
type decorator struct {
	text  strings.Builder
	depth int
	line  int
	done  bool
}

// Parser extracts test declarations from Python test modules. Tests are
// the test* functions at module level and the test* methods of Test*
// classes; their dependencies come from @dependency(...) decorators.
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a Python test module. The path is used as the module part of
// the test identifiers.
func (p *Parser) Parse(path string, r io.Reader) ([]resolver.Declaration, error) {
	var (
		module  = filepath.ToSlash(filepath.Clean(path))
		decls   = []resolver.Declaration{}
		blocks  = []block{}
		pending *decorator
		open    = 0
		scanner = bufio.NewScanner(r)
		lineNo  = 0
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		line := strings.ReplaceAll(scanner.Text(), "\t", "    ")

		if pending != nil && !pending.done {
			pending.add(line)
			continue
		}

		// Continuation lines of an open bracket do not start a statement.
		if open > 0 {
			open = max(open+brackets(line), 0)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		for len(blocks) > 0 && indent <= blocks[len(blocks)-1].indent {
			blocks = blocks[:len(blocks)-1]
		}

		switch {
		case decoratorPattern.MatchString(trimmed):
			pending = &decorator{line: lineNo, depth: 1}
			pending.add(trimmed[strings.Index(trimmed, "(")+1:])
		case strings.HasPrefix(trimmed, "@"):
			// Other decorators may sit between @dependency and the def.
			open = max(brackets(trimmed), 0)
		case classPattern.MatchString(trimmed):
			name := classPattern.FindStringSubmatch(trimmed)[1]
			blocks = append(blocks, block{class: true, name: name, indent: indent})
			pending = nil
			open = max(brackets(trimmed), 0)
		case defPattern.MatchString(trimmed):
			name := defPattern.FindStringSubmatch(trimmed)[1]

			if class, ok := collectable(blocks, name); ok {
				decl := resolver.Declaration{ID: resolver.TestID{Module: module, Class: class, Name: name}}
				if pending != nil {
					if err := pending.apply(&decl); err != nil {
						return nil, fmt.Errorf("%s:%d: %w", path, pending.line, err)
					}
				}
				decls = append(decls, decl)
			}

			blocks = append(blocks, block{name: name, indent: indent})
			pending = nil
			open = max(brackets(trimmed), 0)
		default:
			pending = nil
			open = max(brackets(trimmed), 0)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if pending != nil && !pending.done {
		return nil, fmt.Errorf("%s:%d: %w: unbalanced parentheses", path, pending.line, ErrMalformedDecorator)
	}

	return decls, nil
}

// collectable reports whether a function defined inside the given blocks
// is a test, and returns its class.
func collectable(blocks []block, name string) (string, bool) {
	if !strings.HasPrefix(name, "test") {
		return "", false
	}

	classes := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if !b.class || !strings.HasPrefix(b.name, "Test") {
			return "", false
		}
		classes = append(classes, b.name)
	}

	return strings.Join(classes, resolver.Separator), true
}

// brackets returns how many brackets a line opens minus how many it
// closes, ignoring string literals and comments.
func brackets(line string) int {
	var (
		quote rune
		depth int
	)

	for _, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return depth
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		}
	}

	return depth
}

// add appends a line of the decorator arguments until the parenthesis
// opened by the decorator is closed.
func (d *decorator) add(line string) {
	var quote rune
	for i, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			d.text.WriteString(line[:i])
			d.text.WriteString("\n")
			return
		case c == '(' || c == '[':
			d.depth++
		case c == ')' || c == ']':
			d.depth--
			if d.depth == 0 {
				d.text.WriteString(line[:i])
				d.done = true
				return
			}
		}
	}

	d.text.WriteString(line)
	d.text.WriteString("\n")
}

// apply sets the dependencies and the scope found in the decorator
// arguments.
func (d *decorator) apply(decl *resolver.Declaration) error {
	args := d.text.String()

	if loc := dependsPattern.FindStringIndex(args); loc != nil {
		list := dependsList.FindStringSubmatch(args[loc[1]:])
		if list == nil {
			return fmt.Errorf("%w: depends must be a list of strings", ErrMalformedDecorator)
		}

		for _, literal := range stringLiteral.FindAllStringSubmatch(list[1], -1) {
			decl.Depends = append(decl.Depends, literal[1]+literal[2])
		}
	}

	if match := scopePattern.FindStringSubmatch(args); match != nil {
		scope, err := resolver.ParseScope(match[1] + match[2])
		if err != nil {
			return err
		}
		decl.Scope = scope
	} else if scopeKeyword.MatchString(args) {
		return fmt.Errorf("%w: scope must be a string", ErrMalformedDecorator)
	}

	return nil
}
