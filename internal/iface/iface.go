// Package iface provides the output endpoints controllers publish through.
//
// An endpoint has a type tag, a hierarchical id such as "arm::elbow_pub" and
// an open count: the number of live subscribers. Controllers only read the
// count to decide whether anybody is listening.
package iface

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Iface is an output endpoint owned by a controller.
type Iface interface {
	Type() string
	ID() string
	OpenCount() int
	Close() error
}

// Known endpoint types.
const (
	TypePosition   = "position"
	TypeJointState = "joint_state"
	TypeActuator   = "actuator"
	TypeSimTime    = "sim_time"
)

var (
	ErrUnknownType = errors.New("iface: unknown interface type")
	ErrDuplicateID = errors.New("iface: interface id already in use")
	ErrClosed      = errors.New("iface: interface closed")
)

// Message is one published sample.
type Message struct {
	Time    float64
	Source  string
	Payload any
}

type Handler func(Message)

// Hub creates endpoints and keeps them addressable by id so that consumers
// can subscribe by name.
type Hub struct {
	mu     sync.Mutex
	types  map[string]struct{}
	topics map[string]*Topic
}

// NewHub returns a hub accepting the given types, or the known types when
// none are given.
func NewHub(types ...string) *Hub {
	if len(types) == 0 {
		types = []string{TypePosition, TypeJointState, TypeActuator, TypeSimTime}
	}
	h := &Hub{
		types:  make(map[string]struct{}, len(types)),
		topics: make(map[string]*Topic),
	}
	for _, t := range types {
		h.types[t] = struct{}{}
	}
	return h
}

// Create makes a new endpoint.
func (h *Hub) Create(typ, id string) (*Topic, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.types[typ]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	if _, ok := h.topics[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	t := &Topic{
		typ:  typ,
		id:   id,
		hub:  h,
		subs: make(map[int]Handler),
	}
	h.topics[id] = t
	return t, nil
}

// NewIface is Create returning the endpoint as an Iface.
func (h *Hub) NewIface(typ, id string) (Iface, error) {
	t, err := h.Create(typ, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (h *Hub) Lookup(id string) (*Topic, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[id]
	return t, ok
}

// IDs lists the live endpoint ids in sorted order.
func (h *Hub) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.topics))
	for id := range h.topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics, id)
}

// Topic is an in-process endpoint that fans messages out to subscribers.
type Topic struct {
	mu     sync.Mutex
	typ    string
	id     string
	hub    *Hub
	subs   map[int]Handler
	nextID int
	closed bool
}

func (t *Topic) Type() string { return t.typ }

func (t *Topic) ID() string { return t.id }

// OpenCount is the number of live subscribers.
func (t *Topic) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Subscribe registers fn for every message published after this call.
func (t *Topic) Subscribe(fn Handler) (*Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	return &Subscription{topic: t, id: id}, nil
}

// Publish delivers msg to every subscriber and returns how many received
// it.
func (t *Topic) Publish(msg Message) int {
	t.mu.Lock()
	handlers := make([]Handler, 0, len(t.subs))
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, t.subs[id])
	}
	t.mu.Unlock()

	if msg.Source == "" {
		msg.Source = t.id
	}
	for _, fn := range handlers {
		fn(msg)
	}
	return len(handlers)
}

// Close drops all subscribers and frees the id. Closing twice is a no-op.
func (t *Topic) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.subs = make(map[int]Handler)
	t.mu.Unlock()

	if t.hub != nil {
		t.hub.remove(t.id)
	}
	return nil
}

type Subscription struct {
	topic *Topic
	id    int
	once  sync.Once
}

// Close stops delivery and lowers the topic's open count.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.topic.mu.Lock()
		defer s.topic.mu.Unlock()
		delete(s.topic.subs, s.id)
	})
}
