package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandoff_ParksInlineDelivery(t *testing.T) {
	var h Handoff
	var order []string

	func() {
		h.Deliver(func() { order = append(order, "continuation") })
		order = append(order, "call returned")
	}()
	h.Release()

	assert.Equal(t, []string{"call returned", "continuation"}, order)
}

func TestHandoff_RunsLateDeliveryImmediately(t *testing.T) {
	var h Handoff
	h.Release()

	ran := false
	h.Deliver(func() { ran = true })

	assert.True(t, ran)
}

func TestHandoff_ReleaseWithoutDelivery(t *testing.T) {
	var h Handoff

	assert.NotPanics(t, h.Release)
}

func TestHandoff_PanicInContinuationEscapesRelease(t *testing.T) {
	var h Handoff
	h.Deliver(func() { panic("later stage") })

	assert.PanicsWithValue(t, "later stage", h.Release)
}
