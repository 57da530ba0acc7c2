package syncer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/multiverse/internal/connection"
	"github.com/five82/multiverse/internal/state"
	"github.com/five82/multiverse/internal/transport"
	"github.com/five82/multiverse/internal/universe"
)

type fakeTransport struct {
	mu      sync.Mutex
	created []universe.Record
	calls   []string
	err     error
	// during runs inside CreateUniverse before it returns.
	during func()
}

func (f *fakeTransport) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeTransport) Health(context.Context) error          { return f.record(OpHealth) }
func (f *fakeTransport) ResetMultiverse(context.Context) error { return f.record(OpReset) }
func (f *fakeTransport) MergeMultiverse(context.Context) error { return f.record(OpMerge) }

func (f *fakeTransport) CreateUniverse(_ context.Context, rec universe.Record) error {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	f.created = append(f.created, rec)
	f.mu.Unlock()
	return f.record(OpSave)
}

type colourList []universe.Colour

func (c *colourList) Next() (universe.Colour, error) {
	next := (*c)[0]
	*c = (*c)[1:]
	return next, nil
}

type fakeChannel struct {
	handler  func([]byte)
	observer func(connection.State)
}

func (f *fakeChannel) SetHandler(h func([]byte))               { f.handler = h }
func (f *fakeChannel) OnStateChange(fn func(connection.State)) { f.observer = fn }

func newFixture(t *testing.T) (*Controller, *state.Store, *fakeTransport) {
	t.Helper()
	colours := colourList{0x123456, 0x654321, 0xabcdef}
	store, err := state.NewStore(state.Options{Size: 2, Colours: &colours, Multi: true})
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	api := &fakeTransport{}
	return New(store, api, log), store, api
}

func TestController_HandleMessageAppliesSnapshot(t *testing.T) {
	c, store, _ := newFixture(t)
	_, err := store.CreateEditable()
	require.NoError(t, err)

	c.HandleMessage([]byte(`[{"colour":"#112233","cells":[[true,false],[false,false]]}]`))

	view := store.Snapshot()
	require.Len(t, view.Confirmed, 1)
	assert.Equal(t, universe.Colour(0x112233), view.Confirmed[0].Color)
	assert.True(t, view.Confirmed[0].Grid[0][0])
	assert.Len(t, view.Universes(), 2, "editable universe kept alongside the snapshot")
}

func TestController_HandleMessageDropsMalformed(t *testing.T) {
	c, store, _ := newFixture(t)
	c.HandleMessage([]byte(`[{"colour":"#112233","cells":[[true]]}]`))

	for _, raw := range []string{`not json`, `{"colour":"#fff"}`, `[{"colour":"#fff","cells":[[true],[true,false]]}]`} {
		c.HandleMessage([]byte(raw))
		view := store.Snapshot()
		require.Len(t, view.Confirmed, 1, "input %s", raw)
		assert.Error(t, view.LastError, "input %s", raw)
	}
}

func TestController_SaveSuccess(t *testing.T) {
	c, store, api := newFixture(t)
	h, err := store.CreateEditable()
	require.NoError(t, err)
	_, err = store.ToggleCell(h, 1, 0)
	require.NoError(t, err)

	require.NoError(t, c.Save(context.Background(), h))

	require.Len(t, api.created, 1)
	assert.Equal(t, universe.Colour(0x123456), api.created[0].Colour)
	assert.True(t, api.created[0].Cells[1][0])

	view := store.Snapshot()
	assert.Empty(t, view.Editable)
	require.Len(t, view.Confirmed, 1)
	assert.True(t, view.Confirmed[0].Optimistic)
}

func TestController_SaveFailureKeepsUniverseEditable(t *testing.T) {
	c, store, api := newFixture(t)
	api.err = &transport.APIError{Path: "/api/universe", Status: 500, Body: "disk full"}
	h, err := store.CreateEditable()
	require.NoError(t, err)

	err = c.Save(context.Background(), h)
	require.Error(t, err)
	apiErr, ok := transport.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "disk full", apiErr.Message())

	u, err := store.Editable(h)
	require.NoError(t, err)
	assert.False(t, u.Saving)
	assert.Empty(t, store.Snapshot().Confirmed)

	_, err = store.ToggleCell(h, 0, 0)
	assert.NoError(t, err, "universe stays editable after a failed save")
}

func TestController_SaveUnknownHandle(t *testing.T) {
	c, _, api := newFixture(t)
	err := c.Save(context.Background(), universe.NewHandle())
	assert.ErrorIs(t, err, state.ErrUnknownHandle)
	assert.Empty(t, api.calls)
}

func TestController_DropDuringSave(t *testing.T) {
	c, store, api := newFixture(t)
	h, err := store.CreateEditable()
	require.NoError(t, err)
	api.during = func() {
		require.NoError(t, store.DropEditable(h))
	}

	require.NoError(t, c.Save(context.Background(), h))
	assert.Empty(t, store.Snapshot().Universes(), "dropped universe must not come back")
	assert.Len(t, api.created, 1)
}

func TestController_ResetAndMergeDoNotTouchState(t *testing.T) {
	c, store, api := newFixture(t)
	c.HandleMessage([]byte(`[{"colour":"#112233","cells":[[true]]}]`))

	require.NoError(t, c.Reset(context.Background()))
	require.NoError(t, c.Merge(context.Background()))
	assert.Equal(t, []string{OpReset, OpMerge}, api.calls)
	assert.Len(t, store.Snapshot().Confirmed, 1)

	api.err = errors.New("connection refused")
	assert.ErrorContains(t, c.Reset(context.Background()), "big bang")
	assert.ErrorContains(t, c.Merge(context.Background()), "merge")
	assert.Len(t, store.Snapshot().Confirmed, 1)
}

func TestController_Health(t *testing.T) {
	c, _, api := newFixture(t)
	assert.NoError(t, c.Health(context.Background()))
	api.err = errors.New("down")
	assert.Error(t, c.Health(context.Background()))
}

func TestController_BindRoutesMessagesAndState(t *testing.T) {
	c, store, _ := newFixture(t)
	ch := &fakeChannel{}
	c.Bind(ch)
	require.NotNil(t, ch.handler)
	require.NotNil(t, ch.observer)

	ch.observer(connection.StateOpen)
	ch.handler([]byte(`[{"colour":"#010203","cells":[[false]]}]`))

	view := store.Snapshot()
	assert.Equal(t, connection.StateOpen, view.Connection)
	require.Len(t, view.Confirmed, 1)
	assert.Equal(t, universe.Colour(0x010203), view.Confirmed[0].Color)
}
