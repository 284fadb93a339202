package iface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubCreate(t *testing.T) {
	hub := NewHub()

	topic, err := hub.Create(TypeJointState, "arm::states")
	require.NoError(t, err)
	assert.Equal(t, TypeJointState, topic.Type())
	assert.Equal(t, "arm::states", topic.ID())

	_, err = hub.Create(TypeJointState, "arm::states")
	assert.True(t, errors.Is(err, ErrDuplicateID))

	_, err = hub.Create("laser", "arm::scan")
	assert.True(t, errors.Is(err, ErrUnknownType))

	got, ok := hub.Lookup("arm::states")
	require.True(t, ok)
	assert.Same(t, topic, got)
	assert.Equal(t, []string{"arm::states"}, hub.IDs())
}

func TestTopicOpenCount(t *testing.T) {
	hub := NewHub()
	topic, err := hub.Create(TypePosition, "cart::pos")
	require.NoError(t, err)
	assert.Equal(t, 0, topic.OpenCount())

	var received []Message
	sub, err := topic.Subscribe(func(m Message) { received = append(received, m) })
	require.NoError(t, err)
	assert.Equal(t, 1, topic.OpenCount())

	n := topic.Publish(Message{Time: 0.5, Payload: 1.0})
	assert.Equal(t, 1, n)
	require.Len(t, received, 1)
	assert.Equal(t, "cart::pos", received[0].Source)

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, topic.OpenCount())
	assert.Equal(t, 0, topic.Publish(Message{}))
}

func TestTopicClose(t *testing.T) {
	hub := NewHub()
	topic, _ := hub.Create(TypeSimTime, "world::clock")
	_, err := topic.Subscribe(func(Message) {})
	require.NoError(t, err)

	require.NoError(t, topic.Close())
	require.NoError(t, topic.Close())
	assert.Equal(t, 0, topic.OpenCount())

	_, ok := hub.Lookup("world::clock")
	assert.False(t, ok)

	_, err = topic.Subscribe(func(Message) {})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = hub.Create(TypeSimTime, "world::clock")
	assert.NoError(t, err, "closed ids can be reused")
}

func TestCustomTypes(t *testing.T) {
	hub := NewHub("laser")
	_, err := hub.Create("laser", "scan")
	assert.NoError(t, err)
	_, err = hub.Create(TypePosition, "pos")
	assert.ErrorIs(t, err, ErrUnknownType)
}
