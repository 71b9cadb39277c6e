package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribePublishOrder(t *testing.T) {
	var topic Topic[int]
	var order []int
	topic.Subscribe(func(v int) { order = append(order, v*10+1) })
	topic.Subscribe(func(v int) { order = append(order, v*10+2) })

	topic.Publish(1)

	assert.Equal(t, []int{11, 12}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	var topic Topic[string]
	var got []string
	unsub := topic.Subscribe(func(v string) { got = append(got, v) })

	topic.Publish("first")
	unsub()
	topic.Publish("second")

	assert.Equal(t, []string{"first"}, got)
}

func TestPublishWithNoSubscribersIsNoOp(t *testing.T) {
	var topic Topic[int]
	assert.NotPanics(t, func() { topic.Publish(42) })
}
