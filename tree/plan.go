package tree

import "github.com/juju/errors"

// attachPlan is the validated result of attaching a detached subtree.
// Nothing is written to the tree until commit.
type attachPlan struct {
	nodes     []plannedNode
	telemetry map[int]*Telemetry
	commands  map[int]*Command
	names     map[string]struct{}
	autoTM    []*Telemetry
	autoTC    []*Command
}

type plannedNode struct {
	n         *Node
	qualified string
}

func (self *Tree) plan(prefix string, child *Node) (*attachPlan, error) {
	p := &attachPlan{
		telemetry: make(map[int]*Telemetry),
		commands:  make(map[int]*Command),
		names:     make(map[string]struct{}),
	}
	// qualified names of explicit-id descriptors, for error messages
	tmNames := make(map[int]string)
	tcNames := make(map[int]string)

	claim := func(name string) error {
		if _, taken := self.names[name]; taken {
			return errors.Trace(&DuplicateNameError{Name: name})
		}
		if _, taken := p.names[name]; taken {
			return errors.Trace(&DuplicateNameError{Name: name})
		}
		p.names[name] = struct{}{}
		return nil
	}

	var visit func(prefix string, n *Node) error
	visit = func(prefix string, n *Node) error {
		qualified := prefix + Separator + n.name
		if err := claim(qualified); err != nil {
			return err
		}
		p.nodes = append(p.nodes, plannedNode{n: n, qualified: qualified})

		for _, tm := range n.telemetry {
			tq := qualified + Separator + tm.Name
			if err := claim(tq); err != nil {
				return err
			}
			if tm.ID == AutoID {
				p.autoTM = append(p.autoTM, tm)
				continue
			}
			if existing, taken := self.telemetry[tm.ID]; taken {
				return errors.Trace(&DuplicateIdError{Kind: "telemetry", ID: tm.ID, Existing: existing.qualified, New: tq})
			}
			if _, taken := p.telemetry[tm.ID]; taken {
				return errors.Trace(&DuplicateIdError{Kind: "telemetry", ID: tm.ID, Existing: tmNames[tm.ID], New: tq})
			}
			p.telemetry[tm.ID] = tm
			tmNames[tm.ID] = tq
		}
		for _, c := range n.commands {
			cq := qualified + Separator + c.Name
			if err := claim(cq); err != nil {
				return err
			}
			if c.ID == AutoID {
				p.autoTC = append(p.autoTC, c)
				continue
			}
			if existing, taken := self.commands[c.ID]; taken {
				return errors.Trace(&DuplicateIdError{Kind: "command", ID: c.ID, Existing: existing.qualified, New: cq})
			}
			if _, taken := p.commands[c.ID]; taken {
				return errors.Trace(&DuplicateIdError{Kind: "command", ID: c.ID, Existing: tcNames[c.ID], New: cq})
			}
			p.commands[c.ID] = c
			tcNames[c.ID] = cq
		}
		for _, sub := range n.children {
			if err := visit(qualified, sub); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(prefix, child); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *attachPlan) commit(t *Tree) {
	for _, pn := range p.nodes {
		pn.n.qualified = pn.qualified
		pn.n.attached = true
		pn.n.owned = true
		t.nodes[pn.qualified] = pn.n
	}
	for name := range p.names {
		t.names[name] = struct{}{}
	}
	for id, tm := range p.telemetry {
		t.telemetry[id] = tm
	}
	for id, c := range p.commands {
		t.commands[id] = c
	}
	for _, tm := range p.autoTM {
		tm.ID = t.nextTelemetryID()
		t.telemetry[tm.ID] = tm
	}
	for _, c := range p.autoTC {
		c.ID = t.nextCommandID()
		t.commands[c.ID] = c
	}
	// qualified names are assigned last, once ids are final
	for _, pn := range p.nodes {
		for _, tm := range pn.n.telemetry {
			tm.qualified = pn.qualified + Separator + tm.Name
		}
		for _, c := range pn.n.commands {
			c.qualified = pn.qualified + Separator + c.Name
		}
	}
}
