package events

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_EmitRunsAllHandlers(t *testing.T) {
	bus := NewEventBus()
	var calls int32

	for i := 0; i < 3; i++ {
		bus.On("folders.acl_updated", func(data interface{}) {
			assert.Equal(t, "f1", data)
			atomic.AddInt32(&calls, 1)
		})
	}

	bus.Emit("folders.acl_updated", "f1")
	bus.Wait()

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestEventBus_UnknownEventIsNoop(t *testing.T) {
	bus := NewEventBus()
	bus.Emit("nothing", nil)
	bus.Wait()
}

func TestEventBus_PanicIsRecovered(t *testing.T) {
	bus := NewEventBus()
	var after int32

	bus.On("x", func(interface{}) { panic("bad handler") })
	bus.On("x", func(interface{}) { atomic.AddInt32(&after, 1) })

	bus.Emit("x", nil)
	bus.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&after))
}

func TestEventBus_Reset(t *testing.T) {
	bus := NewEventBus()
	var calls int32
	bus.On("x", func(interface{}) { atomic.AddInt32(&calls, 1) })
	bus.Reset()

	bus.Emit("x", nil)
	bus.Wait()
	assert.Zero(t, atomic.LoadInt32(&calls))
}
