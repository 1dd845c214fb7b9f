package orch

import (
	"sync"
	"testing"

	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recConn records every line it is sent.
type recConn struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	c.lines = append(c.lines, string(f))
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// take returns and forgets the recorded lines.
func (c *recConn) take() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.lines
	c.lines = nil
	return out
}

func (c *recConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newOrch() *Orchestrator {
	return New(app.NewRegistry(), app.DropPolicy{}, "User")
}

func connect(o *Orchestrator) (core.Session, *recConn) {
	c := &recConn{}
	s := o.OnConnect(c, "test")
	c.take()
	return s, c
}

func TestScenarios(t *testing.T) {
	req := require.New(t)
	o := newOrch()

	// Scenario 1: A connects and creates #a
	ca := &recConn{}
	a := o.OnConnect(ca, "a")
	req.Equal([]string{"Welcome to chat server!"}, ca.take())
	o.OnLine(a, "join #a")
	req.Equal([]string{"You have created #a."}, ca.take())

	// Scenario 2: B joins #a
	b, cb := connect(o)
	o.OnLine(b, "join #a")
	req.Equal([]string{"You have joined #a."}, cb.take())
	req.Equal([]string{"[#a] User has joined the channel."}, ca.take())

	// Scenario 3: A talks, B hears, A gets no echo
	o.OnLine(a, "msg #a hi")
	req.Equal([]string{"[#a] User: hi"}, cb.take())
	req.Empty(ca.take())

	// Scenario 4: A parts while B stays
	o.OnLine(a, "part #a")
	req.Equal([]string{"You have parted #a."}, ca.take())
	req.Equal([]string{"[#a] User has left the channel."}, cb.take())
	o.OnLine(b, "list")
	req.Equal([]string{"#a [1]"}, cb.take())

	// Scenario 5: B parts last, #a disappears
	o.OnLine(b, "part #a")
	req.Equal([]string{"You have parted #a."}, cb.take())
	o.OnLine(b, "list")
	req.Empty(cb.take())

	// Scenario 6: unknown user
	o.OnLine(a, "msg nobody hi")
	req.Equal([]string{"User does not exist."}, ca.take())
}

func TestChannelMessage_Failures(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)
	b, _ := connect(o)

	o.OnLine(a, "msg #none hi")
	req.Equal([]string{"Channel does not exist."}, ca.take())

	o.OnLine(b, "join #x")
	o.OnLine(a, "msg #x hi")
	req.Equal([]string{"You are not in #x."}, ca.take())
}

func TestChannelMessage_ReachesEveryOtherMember(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)
	b, cb := connect(o)
	c, cc := connect(o)
	for _, s := range []core.Session{a, b, c} {
		o.OnLine(s, "join #x")
	}
	ca.take()
	cb.take()
	cc.take()

	o.OnLine(a, "nick alice")
	ca.take()
	o.OnLine(a, "msg #x hello   there")

	req.Empty(ca.take())
	req.Equal([]string{"[#x] alice: hello there"}, cb.take())
	req.Equal([]string{"[#x] alice: hello there"}, cc.take())
}

func TestDirectMessage_FirstMatchWins(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)
	_, cb := connect(o)
	_, cc := connect(o)

	// Both b and c keep the default nickname; b registered first
	o.OnLine(a, "nick alice")
	ca.take()
	o.OnLine(a, "msg User psst")

	req.Equal([]string{"alice: psst"}, cb.take())
	req.Empty(cc.take())
	req.Empty(ca.take())
}

func TestNick(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)

	o.OnLine(a, "nick")
	req.Equal([]string{"Nickname is User."}, ca.take())

	o.OnLine(a, "nick bob")
	req.Equal([]string{"Nickname set to bob."}, ca.take())

	o.OnLine(a, "nick")
	req.Equal([]string{"Nickname is bob."}, ca.take())

	_, ok := o.Registry.FindSessionByName("bob")
	req.True(ok)
}

func TestListKeepsCreationOrder(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)
	b, _ := connect(o)

	o.OnLine(a, "join #z")
	o.OnLine(a, "join #a")
	o.OnLine(b, "join #a")
	o.OnLine(b, "join #m")
	ca.take()

	o.OnLine(a, "list")
	req.Equal([]string{"#z [1]", "#a [2]", "#m [1]"}, ca.take())
}

func TestHelpAndInvalid(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)

	o.OnLine(a, "help")
	req.Equal(core.HelpLines, ca.take())

	for _, line := range []string{"", "dance", "msg x", "join x", "part", "list all", "quit now", "nick a b"} {
		o.OnLine(a, line)
		req.Equal([]string{"Invalid command!"}, ca.take(), line)
	}
}

func TestQuitClosesTransport(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)

	o.OnLine(a, "quit")

	req.True(ca.isClosed())
	req.Empty(ca.take())
}

func TestDisconnect(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, ca := connect(o)
	b, cb := connect(o)
	o.OnLine(a, "join #x")
	o.OnLine(b, "join #x")
	o.OnLine(a, "join #solo")
	ca.take()
	cb.take()

	// When a disconnects, twice
	o.OnDisconnect(a.ID())
	o.OnDisconnect(a.ID())

	// Then b gets no leave notice, #solo is gone and #x keeps b
	req.Empty(cb.take())
	o.OnLine(b, "list")
	req.Equal([]string{"#x [1]"}, cb.take())
	req.Equal(1, o.Registry.SessionCount())

	// And a is no longer reachable by name
	o.OnLine(b, "nick bob")
	cb.take()
	o.OnLine(b, "msg User hi")
	req.Equal([]string{"User does not exist."}, cb.take())
}

func TestJoinThenMessageOrdering(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	a, _ := connect(o)
	b, cb := connect(o)
	o.OnLine(a, "join #x")

	// Same connection: join completes before the message is routed
	o.OnLine(b, "join #x")
	o.OnLine(b, "msg #x hello")

	req.Equal([]string{"You have joined #x."}, cb.take())
	members, ok := o.Registry.Members("#x")
	req.True(ok)
	req.Len(members, 2)
}

func TestDeliver_FailingRecipientDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	o := newOrch()

	a, _ := connect(o)
	c, cc := connect(o)

	// b's transport is already closed
	bConn := mocks.NewMockConn(ctrl)
	bConn.EXPECT().TrySend(gomock.Any()).Return(nil)
	b := o.OnConnect(bConn, "b")

	o.OnLine(a, "join #x")
	bConn.EXPECT().TrySend(gomock.Any()).Return(nil).Times(2)
	o.OnLine(b, "join #x")
	o.OnLine(c, "join #x")
	cc.take()

	bConn.EXPECT().TrySend(core.Frame("[#x] User: hi")).Return(core.ErrConnClosed)
	o.OnLine(a, "msg #x hi")

	req.Equal([]string{"[#x] User: hi"}, cc.take())
}

func TestDeliver_BackpressurePolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    app.Policy
		wantClose bool
	}{
		{"drop keeps the session", app.DropPolicy{}, false},
		{"disconnect closes the session", app.DisconnectPolicy{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			o := New(app.NewRegistry(), tt.policy, "User")

			slow := mocks.NewMockConn(ctrl)
			slow.EXPECT().TrySend(core.Frame("Welcome to chat server!")).Return(core.ErrBackpressure)
			if tt.wantClose {
				slow.EXPECT().Close()
			}

			o.OnConnect(slow, "slow")
		})
	}
}
