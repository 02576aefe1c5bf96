package worker

import (
	"context"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/resilience"
)

// Component runs a Loop between Start and Stop.
type Component struct {
	*component.Background
	loop *Loop
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps loop in a lifecycle component named "worker".
func NewComponent(loop *Loop) *Component {
	return &Component{
		Background: component.NewBackground("worker", loop.Run),
		loop:       loop,
	}
}

// Health reports the loop as degraded while the provider gate is open.
func (c *Component) Health(ctx context.Context) component.Health {
	h := c.Background.Health(ctx)
	if h.OK() && c.loop.gated() {
		return component.Degraded(h.Name, "transcription provider gate "+resilience.StateOpen.String())
	}
	return h
}
