// Package command synthesizes the per-task pipeline invocation: a structured
// command builder with one quoting boundary, and the renderer that turns a
// descriptor plus its analysis decision into the literal command line a
// scheduler array task will execute.
package command

import (
	"regexp"
	"strings"
)

// bareWord matches words that survive a POSIX shell unquoted.
var bareWord = regexp.MustCompile(`^[A-Za-z0-9_%+=:,./#-]+$`)

// Quote renders a single word for /bin/sh. Quoting happens only here, at the
// serialization boundary.
func Quote(word string) string {
	if word != "" && bareWord.MatchString(word) {
		return word
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}

// Builder accumulates one command as an argument list. Nothing is quoted
// until String is called.
type Builder struct {
	words []string
}

// New starts a command with its executable name and any leading arguments.
func New(name string, args ...string) *Builder {
	return &Builder{words: append([]string{name}, args...)}
}

// Arg appends positional arguments.
func (b *Builder) Arg(args ...string) *Builder {
	b.words = append(b.words, args...)
	return b
}

// Flag appends a long-form --name=value argument.
func (b *Builder) Flag(name, value string) *Builder {
	b.words = append(b.words, "--"+name+"="+value)
	return b
}

// String serializes the command, quoting each word.
func (b *Builder) String() string {
	quoted := make([]string, len(b.words))
	for i, w := range b.words {
		quoted[i] = Quote(w)
	}
	return strings.Join(quoted, " ")
}

// Chain joins commands so each runs only if its predecessor succeeded.
type Chain struct {
	cmds []*Builder
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Then appends a command to the chain.
func (c *Chain) Then(b *Builder) *Chain {
	c.cmds = append(c.cmds, b)
	return c
}

// String serializes the chain with && separators.
func (c *Chain) String() string {
	parts := make([]string, len(c.cmds))
	for i, b := range c.cmds {
		parts[i] = b.String()
	}
	return strings.Join(parts, " && ")
}
