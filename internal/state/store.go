package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/multiverse/internal/connection"
	"github.com/five82/multiverse/internal/metrics"
	"github.com/five82/multiverse/internal/universe"
)

var (
	// ErrUnknownHandle is returned for handles that were never issued or that
	// were invalidated by a drop or a save.
	ErrUnknownHandle = errors.New("no editable universe for handle")
	// ErrOutOfBounds is returned for coordinates outside the grid.
	ErrOutOfBounds = errors.New("cell coordinates out of bounds")
	// ErrSaveInFlight is returned when mutating a universe that is being saved.
	ErrSaveInFlight = errors.New("universe is being saved")
	// ErrEditInProgress is returned by CreateEditable in single-editor mode
	// while another editable universe exists.
	ErrEditInProgress = errors.New("an editable universe already exists")
)

// ColourSource issues colours for new universes.
type ColourSource interface {
	Next() (universe.Colour, error)
}

// Options configure a Store.
type Options struct {
	Size    int          // side length of new grids
	Colours ColourSource // required
	Multi   bool         // allow several editable universes at once
}

// View is an immutable copy of the multiverse at a point in time.
type View struct {
	Confirmed []universe.ConfirmedUniverse
	Editable  []universe.EditableUniverse // oldest first; the last one is active

	Connection        connection.State
	ConsecutiveClosed int // closures since the channel was last open
	LastSnapshotAt    time.Time
	SnapshotsApplied  int
	SnapshotsRejected int
	LastError         error // last rejected snapshot, nil once one applies
}

// Universes lists confirmed universes first, then editable ones.
func (v View) Universes() []universe.Universe {
	out := make([]universe.Universe, 0, len(v.Confirmed)+len(v.Editable))
	for _, u := range v.Confirmed {
		out = append(out, u)
	}
	for _, u := range v.Editable {
		out = append(out, u)
	}
	return out
}

// Active returns the most recently created editable universe.
func (v View) Active() (universe.EditableUniverse, bool) {
	if len(v.Editable) == 0 {
		return universe.EditableUniverse{}, false
	}
	return v.Editable[len(v.Editable)-1], true
}

// IsOffline reports whether the push channel has failed to come back after
// more than one reconnect cycle.
func (v View) IsOffline() bool {
	return v.ConsecutiveClosed >= 2
}

// Store holds the multiverse: a confirmed subset replaced by every snapshot
// and an editable subset owned by this client.
type Store struct {
	mu        sync.RWMutex
	size      int
	colours   ColourSource
	multi     bool
	confirmed []universe.ConfirmedUniverse
	editable  []*universe.EditableUniverse
	conn      connection.State
	closed    int
	lastSnap  time.Time
	applied   int
	rejected  int
	lastErr   error

	subMu       sync.Mutex
	subscribers []func()
}

// NewStore returns an empty store.
func NewStore(opts Options) (*Store, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("grid size %d must be positive", opts.Size)
	}
	if opts.Colours == nil {
		return nil, errors.New("colour source is required")
	}
	return &Store{
		size:    opts.Size,
		colours: opts.Colours,
		multi:   opts.Multi,
		conn:    connection.StateClosed,
	}, nil
}

// Size returns the side length of new grids.
func (s *Store) Size() int { return s.size }

// Subscribe registers fn to be called after every change. fn runs on the
// mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := append([]func(){}, s.subscribers...)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// CreateEditable appends a new empty universe with a freshly allocated
// colour and returns its handle.
func (s *Store) CreateEditable() (universe.Handle, error) {
	s.mu.Lock()
	if !s.multi && len(s.editable) > 0 {
		s.mu.Unlock()
		return universe.Handle{}, ErrEditInProgress
	}
	colour, err := s.colours.Next()
	if err != nil {
		s.mu.Unlock()
		return universe.Handle{}, fmt.Errorf("allocate colour: %w", err)
	}
	u := &universe.EditableUniverse{
		Handle: universe.NewHandle(),
		Color:  colour,
		Grid:   universe.NewGrid(s.size),
	}
	s.editable = append(s.editable, u)
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.notify()
	return u.Handle, nil
}

// ToggleCell flips cell (x, y) and returns its new value.
func (s *Store) ToggleCell(h universe.Handle, x, y int) (bool, error) {
	s.mu.Lock()
	u, _, err := s.lookupLocked(h)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if u.Saving {
		s.mu.Unlock()
		return false, ErrSaveInFlight
	}
	if !u.Grid.InBounds(x, y) {
		s.mu.Unlock()
		return false, fmt.Errorf("toggle (%d, %d) on %dx%d grid: %w", x, y, u.Grid.Rows(), u.Grid.Cols(), ErrOutOfBounds)
	}
	u.Grid[x][y] = !u.Grid[x][y]
	alive := u.Grid[x][y]
	s.mu.Unlock()

	s.notify()
	return alive, nil
}

// Cell reads cell (x, y) of an editable universe.
func (s *Store) Cell(h universe.Handle, x, y int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, _, err := s.lookupLocked(h)
	if err != nil {
		return false, err
	}
	if !u.Grid.InBounds(x, y) {
		return false, ErrOutOfBounds
	}
	return u.Grid[x][y], nil
}

// Editable returns a copy of the universe behind h.
func (s *Store) Editable(h universe.Handle) (universe.EditableUniverse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, _, err := s.lookupLocked(h)
	if err != nil {
		return universe.EditableUniverse{}, err
	}
	return u.Clone(), nil
}

// Active returns the handle of the most recently created editable universe.
func (s *Store) Active() (universe.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.editable) == 0 {
		return universe.Handle{}, false
	}
	return s.editable[len(s.editable)-1].Handle, true
}

// DropEditable discards an unsaved universe and invalidates its handle, so a
// save still in flight for it cannot bring it back.
func (s *Store) DropEditable(h universe.Handle) error {
	s.mu.Lock()
	_, idx, err := s.lookupLocked(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.editable = append(s.editable[:idx], s.editable[idx+1:]...)
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// BeginSave freezes the universe and returns what should be submitted.
func (s *Store) BeginSave(h universe.Handle) (universe.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _, err := s.lookupLocked(h)
	if err != nil {
		return universe.Record{}, err
	}
	if u.Saving {
		return universe.Record{}, ErrSaveInFlight
	}
	u.Saving = true
	return u.Record(), nil
}

// AbortSave unfreezes a universe after a failed submit. It stays editable.
func (s *Store) AbortSave(h universe.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _, err := s.lookupLocked(h)
	if err != nil {
		return err
	}
	u.Saving = false
	return nil
}

// MarkSaved moves the universe to the confirmed subset ahead of the next
// snapshot. The handle is invalid afterwards.
func (s *Store) MarkSaved(h universe.Handle) error {
	s.mu.Lock()
	u, idx, err := s.lookupLocked(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.editable = append(s.editable[:idx], s.editable[idx+1:]...)
	s.confirmed = append(s.confirmed, universe.ConfirmedUniverse{
		Index:      len(s.confirmed),
		Color:      u.Color,
		Grid:       u.Grid,
		Optimistic: true,
	})
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// ApplySnapshot replaces the whole confirmed subset, optimistic entries
// included. Editable universes are untouched. An invalid snapshot is
// rejected and leaves the store unchanged.
func (s *Store) ApplySnapshot(records []universe.Record) error {
	confirmed := make([]universe.ConfirmedUniverse, 0, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			err = fmt.Errorf("snapshot entry %d: %w", i, err)
			s.mu.Lock()
			s.lastErr = err
			s.rejected++
			s.mu.Unlock()
			metrics.Snapshots.WithLabelValues(metrics.ResultRejected).Inc()
			s.notify()
			return err
		}
		confirmed = append(confirmed, universe.ConfirmedUniverse{
			Index: i,
			Color: rec.Colour,
			Grid:  rec.Cells.Clone(),
		})
	}

	s.mu.Lock()
	s.confirmed = confirmed
	s.lastSnap = time.Now()
	s.applied++
	s.lastErr = nil
	s.updateGaugesLocked()
	s.mu.Unlock()

	metrics.Snapshots.WithLabelValues(metrics.ResultOK).Inc()
	s.notify()
	return nil
}

// RecordSnapshotError notes a snapshot that could not be decoded.
func (s *Store) RecordSnapshotError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.lastErr = err
	s.rejected++
	s.mu.Unlock()
	metrics.Snapshots.WithLabelValues(metrics.ResultRejected).Inc()
	s.notify()
}

// SetConnection records a push channel state transition.
func (s *Store) SetConnection(state connection.State) {
	s.mu.Lock()
	s.conn = state
	switch state {
	case connection.StateOpen:
		s.closed = 0
	case connection.StateClosed:
		s.closed++
	}
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Connection:        s.conn,
		ConsecutiveClosed: s.closed,
		LastSnapshotAt:    s.lastSnap,
		SnapshotsApplied:  s.applied,
		SnapshotsRejected: s.rejected,
		LastError:         s.lastErr,
	}
	if len(s.confirmed) > 0 {
		v.Confirmed = make([]universe.ConfirmedUniverse, len(s.confirmed))
		for i, u := range s.confirmed {
			v.Confirmed[i] = u.Clone()
		}
	}
	if len(s.editable) > 0 {
		v.Editable = make([]universe.EditableUniverse, len(s.editable))
		for i, u := range s.editable {
			v.Editable[i] = u.Clone()
		}
	}
	return v
}

func (s *Store) lookupLocked(h universe.Handle) (*universe.EditableUniverse, int, error) {
	if h.IsZero() {
		return nil, -1, ErrUnknownHandle
	}
	for i, u := range s.editable {
		if u.Handle == h {
			return u, i, nil
		}
	}
	return nil, -1, ErrUnknownHandle
}

func (s *Store) updateGaugesLocked() {
	metrics.ConfirmedUniverses.Set(float64(len(s.confirmed)))
	metrics.EditableUniverses.Set(float64(len(s.editable)))
}
