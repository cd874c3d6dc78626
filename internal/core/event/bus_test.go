package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{ S string }

func TestBusDeliversOnlyAfterSwap(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(e ping) { got = append(got, e.N) })

	Emit(b, ping{N: 1})
	Emit(b, ping{N: 2})
	b.DispatchAll()
	require.Empty(t, got)
	require.Equal(t, 2, b.Pending())

	b.SwapBuffers()
	require.Equal(t, 0, b.Pending())
	b.DispatchAll()
	require.Equal(t, []int{1, 2}, got)

	// Front buffer is drained.
	b.DispatchAll()
	require.Equal(t, []int{1, 2}, got)
}

func TestBusKeepsEmissionOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(e ping) { order = append(order, "ping") })
	Subscribe(b, func(e pong) { order = append(order, "pong:"+e.S) })

	Emit(b, pong{S: "a"})
	Emit(b, ping{N: 1})
	Emit(b, pong{S: "b"})
	b.SwapBuffers()
	b.DispatchAll()
	require.Equal(t, []string{"pong:a", "ping", "pong:b"}, order)
}

func TestBusHandlerEmitsWaitForNextSwap(t *testing.T) {
	b := NewBus()
	var pongs int
	Subscribe(b, func(e ping) { Emit(b, pong{S: "reply"}) })
	Subscribe(b, func(e pong) { pongs++ })

	Emit(b, ping{})
	b.SwapBuffers()
	b.DispatchAll()
	require.Equal(t, 0, pongs)

	b.SwapBuffers()
	b.DispatchAll()
	require.Equal(t, 1, pongs)
}

func TestBusUnsubscribedEventsAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, ping{N: 5})
	b.SwapBuffers()
	require.NotPanics(t, b.DispatchAll)
}
