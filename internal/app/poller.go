package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/multiverse/internal/state"
)

const defaultReportInterval = 30 * time.Second

// StartReporter launches a background goroutine that logs a status line at
// a fixed cadence. It returns immediately.
func StartReporter(ctx context.Context, store *state.Store, log logrus.FieldLogger, interval time.Duration) {
	if interval <= 0 {
		interval = defaultReportInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			report(store.Snapshot(), log)
		}
	}()
}

func report(v state.View, log logrus.FieldLogger) {
	entry := log.WithFields(summary(v)).WithField("connection", connectionLabel(v))
	if v.IsOffline() {
		entry.Warn("multiverse status")
		return
	}
	entry.Info("multiverse status")
}

// watchSnapshots logs every applied or rejected snapshot until ctx is done.
// Counting starts from zero, so snapshots applied before the first wake-up
// are still reported.
func watchSnapshots(ctx context.Context, store *state.Store, changes <-chan struct{}, log logrus.FieldLogger) {
	var applied, rejected int
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
		}
		v := store.Snapshot()
		if v.SnapshotsApplied > applied {
			applied = v.SnapshotsApplied
			log.WithFields(summary(v)).Info("snapshot applied")
		}
		if v.SnapshotsRejected > rejected {
			rejected = v.SnapshotsRejected
			entry := log.WithField("rejected", rejected)
			if v.LastError != nil {
				entry = entry.WithError(v.LastError)
			}
			entry.Warn("snapshot rejected")
		}
	}
}

func summary(v state.View) logrus.Fields {
	alive := 0
	for _, u := range v.Confirmed {
		alive += u.Grid.Alive()
	}
	return logrus.Fields{
		"universes":   len(v.Confirmed),
		"alive_cells": alive,
		"snapshots":   v.SnapshotsApplied,
	}
}

func connectionLabel(v state.View) string {
	if v.IsOffline() {
		return "offline"
	}
	return v.Connection.String()
}
