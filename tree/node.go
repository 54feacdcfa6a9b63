package tree

// Node is a container of telemetry, commands and child nodes.
// Parent exclusively owns children; there are no back references.
type Node struct {
	// OnDisconnect is called when the ground link is lost, meant to put
	// the component back into a safe state.
	OnDisconnect func()

	name      string
	qualified string
	attached  bool
	owned     bool
	telemetry []*Telemetry
	commands  []*Command
	children  []*Node
}

func NewNode(name string) *Node { return &Node{name: name} }

func (self *Node) Name() string { return self.name }

// QualifiedName is the dot separated path from root, empty until attached.
func (self *Node) QualifiedName() string { return self.qualified }

func (self *Node) Attached() bool { return self.attached }

func (self *Node) Telemetry() []*Telemetry {
	return append([]*Telemetry(nil), self.telemetry...)
}

func (self *Node) Commands() []*Command {
	return append([]*Command(nil), self.commands...)
}

func (self *Node) Children() []*Node {
	return append([]*Node(nil), self.children...)
}

func (self *Node) String() string {
	if self.qualified != "" {
		return self.qualified
	}
	return self.name + "(detached)"
}

// localTaken reports whether a direct member (child, telemetry or command) uses name.
func (self *Node) localTaken(name string) bool {
	for _, c := range self.children {
		if c.name == name {
			return true
		}
	}
	for _, tm := range self.telemetry {
		if tm.Name == name {
			return true
		}
	}
	for _, c := range self.commands {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (self *Node) walk(parent *Node, fn func(parent, n *Node) error) error {
	if err := fn(parent, self); err != nil {
		return err
	}
	for _, child := range self.children {
		if err := child.walk(self, fn); err != nil {
			return err
		}
	}
	return nil
}
