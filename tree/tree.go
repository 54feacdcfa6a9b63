// Package tree is the registration model: a hierarchy of nodes owning
// telemetry and command descriptors.
//
// Registration order is a compatibility contract. Traversal is pre-order,
// depth-first, children in registration order; it defines both the telemetry
// packet layout and the database row order.
package tree

import (
	"fmt"
	"regexp"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/helpers"
)

const Separator = "."

var reName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Tree struct {
	root      *Node
	nodes     map[string]*Node
	names     map[string]struct{}
	telemetry map[int]*Telemetry
	commands  map[int]*Command
	frozen    bool
}

func New(rootName string) *Tree {
	root := NewNode(rootName)
	root.qualified = rootName
	root.attached = true
	root.owned = true
	return &Tree{
		root:      root,
		nodes:     map[string]*Node{rootName: root},
		names:     map[string]struct{}{rootName: {}},
		telemetry: make(map[int]*Telemetry),
		commands:  make(map[int]*Command),
	}
}

func (self *Tree) Root() *Node { return self.root }

// Freeze forbids any further mutation; called before the database is exported.
func (self *Tree) Freeze()      { self.frozen = true }
func (self *Tree) Frozen() bool { return self.frozen }

// RegisterChild attaches child (with its whole subtree) under parent.
// Validation is atomic: on error the tree is unchanged.
func (self *Tree) RegisterChild(parent, child *Node) error {
	if self.frozen {
		return errors.Trace(ErrFrozen)
	}
	if parent == nil || child == nil {
		return errors.Errorf("code error RegisterChild parent=%v child=%v", parent, child)
	}
	if child.owned || child.attached {
		return errors.Errorf("node=%s already has a parent", child)
	}
	if !reName.MatchString(child.name) {
		return errors.Trace(&InvalidError{Name: child.name, Reason: "node name must be [A-Za-z0-9_-]+"})
	}
	if child == parent || child.contains(parent) {
		return errors.Errorf("node=%s cannot be registered under itself", child)
	}
	if parent.localTaken(child.name) {
		return errors.Trace(&DuplicateNameError{Name: qualify(parent, child.name)})
	}
	if !parent.attached {
		parent.children = append(parent.children, child)
		child.owned = true
		return nil
	}

	plan, err := self.plan(parent.qualified, child)
	if err != nil {
		return err
	}
	plan.commit(self)
	parent.children = append(parent.children, child)
	child.owned = true
	return nil
}

func (self *Tree) AddTelemetry(node *Node, tm *Telemetry) error {
	if self.frozen {
		return errors.Trace(ErrFrozen)
	}
	if err := validateTelemetry(tm); err != nil {
		return err
	}
	if node.localTaken(tm.Name) {
		return errors.Trace(&DuplicateNameError{Name: qualify(node, tm.Name)})
	}
	if node.attached {
		qualified := node.qualified + Separator + tm.Name
		if _, taken := self.names[qualified]; taken {
			return errors.Trace(&DuplicateNameError{Name: qualified})
		}
		if tm.ID == AutoID {
			tm.ID = self.nextTelemetryID()
		} else if existing, taken := self.telemetry[tm.ID]; taken {
			return errors.Trace(&DuplicateIdError{Kind: "telemetry", ID: tm.ID, Existing: existing.qualified, New: qualified})
		}
		tm.qualified = qualified
		self.names[qualified] = struct{}{}
		self.telemetry[tm.ID] = tm
	} else if tm.ID != AutoID {
		if existing, taken := self.telemetry[tm.ID]; taken {
			return errors.Trace(&DuplicateIdError{Kind: "telemetry", ID: tm.ID, Existing: existing.qualified, New: qualify(node, tm.Name)})
		}
	}
	node.telemetry = append(node.telemetry, tm)
	return nil
}

func (self *Tree) AddCommand(node *Node, c *Command) error {
	if self.frozen {
		return errors.Trace(ErrFrozen)
	}
	if err := validateCommand(c); err != nil {
		return err
	}
	if node.localTaken(c.Name) {
		return errors.Trace(&DuplicateNameError{Name: qualify(node, c.Name)})
	}
	if node.attached {
		qualified := node.qualified + Separator + c.Name
		if _, taken := self.names[qualified]; taken {
			return errors.Trace(&DuplicateNameError{Name: qualified})
		}
		if c.ID == AutoID {
			c.ID = self.nextCommandID()
		} else if existing, taken := self.commands[c.ID]; taken {
			return errors.Trace(&DuplicateIdError{Kind: "command", ID: c.ID, Existing: existing.qualified, New: qualified})
		}
		c.qualified = qualified
		self.names[qualified] = struct{}{}
		self.commands[c.ID] = c
	} else if c.ID != AutoID {
		if existing, taken := self.commands[c.ID]; taken {
			return errors.Trace(&DuplicateIdError{Kind: "command", ID: c.ID, Existing: existing.qualified, New: qualify(node, c.Name)})
		}
	}
	node.commands = append(node.commands, c)
	return nil
}

// Walk visits attached nodes pre-order; parent is nil for root.
func (self *Tree) Walk(fn func(parent, n *Node) error) error {
	return self.root.walk(nil, fn)
}

// Telemetry returns all telemetry descriptors in traversal order.
func (self *Tree) Telemetry() []*Telemetry {
	result := make([]*Telemetry, 0, len(self.telemetry))
	_ = self.Walk(func(_, n *Node) error {
		result = append(result, n.telemetry...)
		return nil
	})
	return result
}

// Commands returns all command descriptors in traversal order.
func (self *Tree) Commands() []*Command {
	result := make([]*Command, 0, len(self.commands))
	_ = self.Walk(func(_, n *Node) error {
		result = append(result, n.commands...)
		return nil
	})
	return result
}

func (self *Tree) Command(id int) (*Command, bool) {
	c, ok := self.commands[id]
	return c, ok
}

func (self *Tree) TelemetryByID(id int) (*Telemetry, bool) {
	tm, ok := self.telemetry[id]
	return tm, ok
}

func (self *Tree) Node(qualified string) (*Node, bool) {
	n, ok := self.nodes[qualified]
	return n, ok
}

// DisconnectAll runs OnDisconnect hooks, children before their parent.
// A panicking hook does not prevent the others from running.
func (self *Tree) DisconnectAll() error {
	errs := make([]error, 0)
	var visit func(n *Node)
	visit = func(n *Node) {
		for _, child := range n.children {
			visit(child)
		}
		if n.OnDisconnect != nil {
			if err := callHook(n); err != nil {
				errs = append(errs, err)
			}
		}
	}
	visit(self.root)
	return helpers.FoldErrors(errs)
}

func callHook(n *Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("node=%s OnDisconnect panic: %v", n.qualified, r)
		}
	}()
	n.OnDisconnect()
	return nil
}

func (self *Tree) nextTelemetryID() int {
	id := 0
	for ; ; id++ {
		if _, taken := self.telemetry[id]; !taken {
			return id
		}
	}
}

func (self *Tree) nextCommandID() int {
	id := 0
	for ; ; id++ {
		if _, taken := self.commands[id]; !taken {
			return id
		}
	}
}

func (self *Node) contains(target *Node) bool {
	for _, c := range self.children {
		if c == target || c.contains(target) {
			return true
		}
	}
	return false
}

func qualify(n *Node, name string) string {
	if n.attached {
		return n.qualified + Separator + name
	}
	return n.name + Separator + name
}

func validateTelemetry(tm *Telemetry) error {
	switch {
	case tm == nil:
		return errors.Errorf("code error telemetry=nil")
	case !reName.MatchString(tm.Name):
		return errors.Trace(&InvalidError{Name: tm.Name, Reason: "name must be [A-Za-z0-9_-]+"})
	case !tm.Type.Valid() || tm.Type.IsVoid():
		return errors.Trace(&InvalidError{Name: tm.Name, Reason: fmt.Sprintf("type=%s not allowed", tm.Type)})
	case tm.Get == nil:
		return errors.Trace(&InvalidError{Name: tm.Name, Reason: "accessor is nil"})
	case tm.Period < 0:
		return errors.Trace(&InvalidError{Name: tm.Name, Reason: "negative period"})
	case tm.ID < AutoID:
		return errors.Trace(&InvalidError{Name: tm.Name, Reason: "negative id"})
	}
	return nil
}

func validateCommand(c *Command) error {
	switch {
	case c == nil:
		return errors.Errorf("code error command=nil")
	case !reName.MatchString(c.Name):
		return errors.Trace(&InvalidError{Name: c.Name, Reason: "name must be [A-Za-z0-9_-]+"})
	case c.Handler == nil:
		return errors.Trace(&InvalidError{Name: c.Name, Reason: "handler is nil"})
	case !c.Return.Valid():
		return errors.Trace(&InvalidError{Name: c.Name, Reason: fmt.Sprintf("return type=%s not allowed", c.Return)})
	case c.ID < AutoID:
		return errors.Trace(&InvalidError{Name: c.Name, Reason: "negative id"})
	}
	seen := make(map[string]struct{}, len(c.Args))
	size := 0
	for _, arg := range c.Args {
		if !reName.MatchString(arg.Name) {
			return errors.Trace(&InvalidError{Name: c.Name, Reason: fmt.Sprintf("argument name=%q invalid", arg.Name)})
		}
		if _, dup := seen[arg.Name]; dup {
			return errors.Trace(&InvalidError{Name: c.Name, Reason: fmt.Sprintf("duplicate argument=%s", arg.Name)})
		}
		if !arg.Type.Valid() || arg.Type.IsVoid() {
			return errors.Trace(&InvalidError{Name: c.Name, Reason: fmt.Sprintf("argument=%s type=%s not allowed", arg.Name, arg.Type)})
		}
		if arg.Min != nil && arg.Max != nil && *arg.Min > *arg.Max {
			return errors.Trace(&InvalidError{Name: c.Name, Reason: fmt.Sprintf("argument=%s min > max", arg.Name)})
		}
		seen[arg.Name] = struct{}{}
		size += arg.Type.Size()
	}
	c.argSize = size
	return nil
}
