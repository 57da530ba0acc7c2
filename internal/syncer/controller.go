// Package syncer connects the store to the server: snapshots pushed on the
// update channel flow in, saves and multiverse-wide actions flow out.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/multiverse/internal/connection"
	"github.com/five82/multiverse/internal/metrics"
	"github.com/five82/multiverse/internal/state"
	"github.com/five82/multiverse/internal/universe"
)

// Transport is the HTTP surface the controller drives.
type Transport interface {
	Health(ctx context.Context) error
	CreateUniverse(ctx context.Context, rec universe.Record) error
	ResetMultiverse(ctx context.Context) error
	MergeMultiverse(ctx context.Context) error
}

// Channel is the push channel the controller listens to.
type Channel interface {
	SetHandler(h func([]byte))
	OnStateChange(fn func(connection.State))
}

// Operation names used in logs and request metrics.
const (
	OpHealth = "health"
	OpSave   = "save"
	OpReset  = "bigbang"
	OpMerge  = "merge"
)

// Controller applies pushed snapshots to the store and submits user actions.
type Controller struct {
	store *state.Store
	api   Transport
	log   logrus.FieldLogger
}

// New returns a controller. A nil logger uses the logrus standard logger.
func New(store *state.Store, api Transport, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{store: store, api: api, log: log}
}

// Bind routes the channel's messages and state changes into the store.
func (c *Controller) Bind(ch Channel) {
	ch.OnStateChange(func(s connection.State) {
		c.store.SetConnection(s)
		if s == connection.StateOpen {
			c.log.Info("connected to update channel")
		}
	})
	ch.SetHandler(c.HandleMessage)
}

// HandleMessage decodes one snapshot and applies it. Malformed snapshots are
// logged and dropped; the channel stays up.
func (c *Controller) HandleMessage(raw []byte) {
	records, err := universe.DecodeSnapshot(raw)
	if err != nil {
		c.log.WithError(err).WithField("bytes", len(raw)).Warn("dropping malformed snapshot")
		c.store.RecordSnapshotError(err)
		return
	}
	if err := c.store.ApplySnapshot(records); err != nil {
		c.log.WithError(err).Warn("rejected snapshot")
		return
	}
	c.log.WithField("universes", len(records)).Debug("applied snapshot")
}

// Save submits the editable universe behind h. On success it becomes an
// optimistic confirmed universe; on failure it stays editable and the error
// is returned for display.
func (c *Controller) Save(ctx context.Context, h universe.Handle) error {
	rec, err := c.store.BeginSave(h)
	if err != nil {
		return fmt.Errorf("save universe: %w", err)
	}
	log := c.log.WithFields(logrus.Fields{"handle": h.String(), "colour": rec.Colour.Hex()})

	err = c.call(ctx, OpSave, func(ctx context.Context) error {
		return c.api.CreateUniverse(ctx, rec)
	})
	if err != nil {
		if abortErr := c.store.AbortSave(h); abortErr != nil && !errors.Is(abortErr, state.ErrUnknownHandle) {
			log.WithError(abortErr).Warn("abort save")
		}
		log.WithError(err).Warn("save failed")
		return fmt.Errorf("save universe: %w", err)
	}

	if err := c.store.MarkSaved(h); err != nil {
		if errors.Is(err, state.ErrUnknownHandle) {
			// Dropped while the request was in flight. The server has it;
			// the next snapshot will show it.
			log.Info("universe dropped during save")
			return nil
		}
		return fmt.Errorf("mark saved: %w", err)
	}
	log.Info("universe saved")
	return nil
}

// Reset asks the server to clear the multiverse. Local state changes only
// when the resulting snapshot arrives.
func (c *Controller) Reset(ctx context.Context) error {
	if err := c.call(ctx, OpReset, c.api.ResetMultiverse); err != nil {
		c.log.WithError(err).Warn("big bang failed")
		return fmt.Errorf("big bang: %w", err)
	}
	c.log.Info("big bang requested")
	return nil
}

// Merge asks the server to merge all universes into one.
func (c *Controller) Merge(ctx context.Context) error {
	if err := c.call(ctx, OpMerge, c.api.MergeMultiverse); err != nil {
		c.log.WithError(err).Warn("merge failed")
		return fmt.Errorf("merge: %w", err)
	}
	c.log.Info("merge requested")
	return nil
}

// Health pings the server and logs the outcome. The error is returned for
// callers that need an exit status; the UI ignores it.
func (c *Controller) Health(ctx context.Context) error {
	if err := c.call(ctx, OpHealth, c.api.Health); err != nil {
		c.log.WithError(err).Warn("server health check failed")
		return err
	}
	c.log.Info("server is healthy")
	return nil
}

func (c *Controller) call(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	metrics.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.Requests.WithLabelValues(op, metrics.ResultLabel(err)).Inc()
	return err
}
