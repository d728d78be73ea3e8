// Package catalog holds the numbered list of optional operations offered
// to the user, turns a typed selection into operation ids, and runs the
// selected operations.
//
// Operations are independent of each other. They always run in catalog
// order and one failing never stops the ones after it.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Outcome is what every action returns. The zero value means success.
type Outcome struct {
	Err     error
	Payload any
}

// Success returns a successful outcome carrying payload
func Success(payload any) Outcome {
	return Outcome{Payload: payload}
}

// Failure returns a failed outcome. A nil err still counts as a failure.
func Failure(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("operation failed")
	}
	return Outcome{Err: err}
}

// From turns an error into an outcome
func From(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the outcome is a success
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Action is the body of an operation
type Action func(ctx context.Context) Outcome

// Entry declares an operation before it has an id
type Entry struct {
	// Name is a short stable identifier, used in reports and --select
	Name   string
	Prompt string
	Action Action
	// Done is printed after a successful run
	Done string
	// Details is longer markdown shown by `list --long`
	Details string
}

// Operation is an Entry with its 1-based id
type Operation struct {
	ID int
	Entry
}

// Catalog is a fixed, ordered list of operations
type Catalog struct {
	ops []Operation
}

// New assigns ids 1..n in the order given
func New(entries ...Entry) *Catalog {
	c := &Catalog{ops: make([]Operation, len(entries))}
	for i, e := range entries {
		c.ops[i] = Operation{ID: i + 1, Entry: e}
	}
	return c
}

// Len returns the number of operations
func (c *Catalog) Len() int {
	return len(c.ops)
}

// Operations returns the operations in catalog order
func (c *Catalog) Operations() []Operation {
	return append([]Operation(nil), c.ops...)
}

// Get returns the operation with the given id
func (c *Catalog) Get(id int) (Operation, bool) {
	if id < 1 || id > len(c.ops) {
		return Operation{}, false
	}
	return c.ops[id-1], true
}

// Lookup resolves a name or a numeric id to an operation id
func (c *Catalog) Lookup(token string) (int, bool) {
	if ids := ParseSelection(token, len(c.ops)); !ids.Empty() {
		return ids.IDs()[0], true
	}
	for _, op := range c.ops {
		if op.Name != "" && strings.EqualFold(op.Name, token) {
			return op.ID, true
		}
	}
	return 0, false
}

// Selection is a set of operation ids
type Selection map[int]struct{}

// Select builds a selection from ids without validating them
func Select(ids ...int) Selection {
	s := Selection{}
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected
func (s Selection) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Empty reports whether nothing is selected
func (s Selection) Empty() bool {
	return len(s) == 0
}

// IDs returns the selected ids in ascending order
func (s Selection) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ParseSelection reads whitespace separated ids. Tokens that are not all
// digits or fall outside 1..n are ignored, so "1 3 99 foo" with five
// operations selects {1, 3}. "0" selects nothing.
func ParseSelection(input string, n int) Selection {
	s := Selection{}
	for _, tok := range strings.Fields(input) {
		id, ok := parseID(tok)
		if ok && id >= 1 && id <= n {
			s[id] = struct{}{}
		}
	}
	return s
}

func parseID(tok string) (int, bool) {
	if len(tok) > 9 {
		return 0, false
	}
	id := 0
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int(r-'0')
	}
	return id, true
}
