package storage

import (
	"context"
	"fmt"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/logger"
)

// Component manages the blob store lifecycle.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a storage component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health probes the backend with an existence check on a fixed key.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Unhealthy(c.Name(), "storage not initialized")
	}
	if _, err := c.storage.Exists(ctx, ".health"); err != nil {
		return component.Unhealthy(c.Name(), fmt.Sprintf("health probe failed: %v", err))
	}
	return component.Healthy(c.Name())
}
