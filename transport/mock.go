package transport

import (
	"sync"
)

type mockItem struct {
	event Event
	data  []byte
	err   error
}

// Mock is an in-memory Transporter for tests and dry runs.
type Mock struct {
	mu        sync.Mutex
	queue     []mockItem
	sent      [][]byte
	connected bool
	closed    bool
	SendErr   error
}

var _ Transporter = &Mock{}

func NewMock() *Mock { return &Mock{} }

func (self *Mock) Connect()    { self.push(mockItem{event: EventConnected}) }
func (self *Mock) Disconnect() { self.push(mockItem{event: EventDisconnected}) }

// Inject queues command stream bytes, delivered by one Poll.
func (self *Mock) Inject(b []byte) {
	self.push(mockItem{event: EventData, data: append([]byte(nil), b...)})
}

func (self *Mock) InjectError(err error) { self.push(mockItem{err: err}) }

func (self *Mock) Pending() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return len(self.queue)
}

// Sent returns and forgets packets sent so far.
func (self *Mock) Sent() [][]byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	sent := self.sent
	self.sent = nil
	return sent
}

func (self *Mock) Closed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.closed
}

func (self *Mock) Send(packet []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return ErrClosed
	}
	if self.SendErr != nil {
		return self.SendErr
	}
	self.sent = append(self.sent, append([]byte(nil), packet...))
	return nil
}

func (self *Mock) Poll() (Event, []byte, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return EventNone, nil, ErrClosed
	}
	if len(self.queue) == 0 {
		return EventNone, nil, nil
	}
	item := self.queue[0]
	self.queue = self.queue[1:]
	switch item.event {
	case EventConnected:
		self.connected = true
	case EventDisconnected:
		self.connected = false
	}
	return item.event, item.data, item.err
}

func (self *Mock) Connected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}

func (self *Mock) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.closed = true
	self.connected = false
	return nil
}

func (self *Mock) push(item mockItem) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.queue = append(self.queue, item)
}
