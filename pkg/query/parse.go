// Package query parses filter expressions and evaluates them against the
// indices of a payload.
package query

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kballard/go-shellquote"
)

const cacheSize = 256

// Compiled patterns are shared by every evaluation; the cache is safe for
// concurrent use.
var patterns = mustCache(cacheSize)

func mustCache(size int) *lru.Cache[string, *regexp.Regexp] {
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		panic(err)
	}
	return c
}

var keyed = regexp.MustCompile(`^([A-Za-z]+)(!~|~|:|=)(.*)$`)

// Error is a query authoring mistake: bad quoting, an empty body or a regex
// that does not compile.
type Error struct {
	Token string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Token == "" {
		return "query: " + e.Msg
	}
	return fmt.Sprintf("query: %s in %q", e.Msg, e.Token)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Query is a parsed filter expression. Keyed groups OR their values; every
// tag group, substring and pattern must hold on its own.
type Query struct {
	UUIDs    []string
	Statuses []string
	Projects []string
	Days     []string

	TagGroups   [][]string
	ExcludeTags []string

	Substrings []string
	Matches    []*regexp.Regexp
	NotMatches []*regexp.Regexp
}

// Parse tokenizes expr with shell quoting rules and builds a Query.
func Parse(expr string) (*Query, error) {
	tokens, err := shellquote.Split(expr)
	if err != nil {
		return nil, &Error{Token: expr, Msg: "unterminated quoting", Err: err}
	}
	q := &Query{}
	for _, tok := range tokens {
		if err := q.add(tok); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// MustParse is Parse that panics. Intended for tests and constants.
func MustParse(expr string) *Query {
	q, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) add(tok string) error {
	switch {
	case strings.HasPrefix(tok, "+"):
		tag := strings.TrimSpace(tok[1:])
		if tag == "" {
			return &Error{Token: tok, Msg: "empty tag"}
		}
		q.TagGroups = append(q.TagGroups, []string{tag})
		return nil
	case strings.HasPrefix(tok, "-"):
		body := tok[1:]
		if len(body) >= 4 && strings.EqualFold(body[:4], "tag:") {
			body = body[4:]
		}
		tags, err := values(tok, body)
		if err != nil {
			return err
		}
		q.ExcludeTags = append(q.ExcludeTags, tags...)
		return nil
	}

	m := keyed.FindStringSubmatch(tok)
	if m == nil {
		return q.addSubstring(tok, tok)
	}
	key, op, body := strings.ToLower(m[1]), m[2], m[3]

	switch {
	case key == "uuid" && (op == ":" || op == "="):
		vs, err := values(tok, body)
		if err != nil {
			return err
		}
		q.UUIDs = append(q.UUIDs, vs...)
	case key == "status" && op == ":":
		vs, err := values(tok, body)
		if err != nil {
			return err
		}
		for _, v := range vs {
			q.Statuses = append(q.Statuses, strings.ToLower(v))
		}
	case key == "project" && op == ":":
		vs, err := values(tok, body)
		if err != nil {
			return err
		}
		q.Projects = append(q.Projects, vs...)
	case key == "day" && op == ":":
		vs, err := values(tok, body)
		if err != nil {
			return err
		}
		q.Days = append(q.Days, vs...)
	case key == "tag" && op == ":":
		vs, err := values(tok, body)
		if err != nil {
			return err
		}
		q.TagGroups = append(q.TagGroups, vs)
	case isDesc(key) && op == "~":
		re, err := compile(tok, body)
		if err != nil {
			return err
		}
		q.Matches = append(q.Matches, re)
	case isDesc(key) && op == "!~":
		re, err := compile(tok, body)
		if err != nil {
			return err
		}
		q.NotMatches = append(q.NotMatches, re)
	case isDesc(key) && op == ":":
		return q.addSubstring(tok, body)
	default:
		return q.addSubstring(tok, tok)
	}
	return nil
}

func (q *Query) addSubstring(tok, needle string) error {
	if strings.TrimSpace(needle) == "" {
		return &Error{Token: tok, Msg: "empty substring"}
	}
	q.Substrings = append(q.Substrings, strings.ToLower(needle))
	return nil
}

func isDesc(key string) bool {
	return key == "desc" || key == "description"
}

func values(tok, body string) ([]string, error) {
	var out []string
	for _, v := range strings.Split(body, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, &Error{Token: tok, Msg: "empty value"}
	}
	return out, nil
}

func compile(tok, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, &Error{Token: tok, Msg: "empty pattern"}
	}
	if re, ok := patterns.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &Error{Token: tok, Msg: err.Error(), Err: err}
	}
	patterns.Add(pattern, re)
	return re, nil
}
