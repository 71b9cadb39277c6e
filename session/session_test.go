package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n5hq/meshcore/bus"
	"github.com/n5hq/meshcore/frame"
	"github.com/n5hq/meshcore/pb"
)

// fakeTransport is an in-memory transport.Transport: Write decodes the
// frame and hands the raw ToRadio bytes to a test-supplied hook, so a test
// can synthesize the radio's response without a real byte-stream loop.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	written   [][]byte
	onWrite   func(toRadio []byte)
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeTransport) Write(ctx context.Context, framed []byte) error {
	dec := frame.NewDecoder()
	payloads := dec.Feed(framed)
	f.mu.Lock()
	f.written = append(f.written, payloads...)
	hook := f.onWrite
	f.mu.Unlock()
	for _, p := range payloads {
		if hook != nil {
			hook(p)
		}
	}
	return nil
}

func (f *fakeTransport) Ping(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected, nil
}

func newConfiguredSession(t *testing.T, myNode uint32) (*Session, *fakeTransport) {
	t.Helper()
	s := New(Options{LockstepID: 777})
	tr := &fakeTransport{}
	s.SetTransport(tr)
	require.NoError(t, s.Connect(context.Background()))

	require.NoError(t, s.Configure(context.Background()))
	require.Equal(t, bus.StatusConfiguring, s.Status())

	fr := &pb.FromRadio{Variant: pb.FromRadioMyInfo, MyInfo: &pb.MyNodeInfo{MyNodeNum: myNode}}
	s.IngestMessage(fr.Marshal())

	complete := &pb.FromRadio{Variant: pb.FromRadioConfigCompleteID, ConfigCompleteID: 777}
	s.IngestMessage(complete.Marshal())

	require.Equal(t, bus.StatusConfigured, s.Status())
	require.Equal(t, myNode, s.MyNodeNum())
	return s, tr
}

// T1: configure handshake reaches Configured after myInfo + configComplete.
func TestConfigureHandshakeReachesConfigured(t *testing.T) {
	newConfiguredSession(t, 100)
}

// T2: a text message sent with wantAck resolves its future once a matching
// ROUTING_APP ack arrives for the same request id.
func TestSendTextAcked(t *testing.T) {
	s, tr := newConfiguredSession(t, 100)

	var sentID uint32
	tr.onWrite = func(toRadioBytes []byte) {
		tro, err := pb.UnmarshalToRadio(toRadioBytes)
		require.NoError(t, err)
		if tro.Packet == nil || tro.Packet.Decoded == nil || tro.Packet.Decoded.Portnum != pb.PortTextMessageApp {
			return
		}
		sentID = tro.Packet.ID

		ack := &pb.MeshPacket{
			From: 200, To: 100, ID: sentID + 1,
			Decoded: &pb.Data{
				Portnum:   pb.PortRouting,
				RequestID: sentID,
				Payload: (&pb.Routing{
					Variant:     pb.RoutingVariantErrorReason,
					ErrorReason: pb.RoutingErrorNone,
				}).Marshal(),
			},
		}
		fr := &pb.FromRadio{Variant: pb.FromRadioPacket, Packet: ack}
		go s.IngestMessage(fr.Marshal())
	}

	fut, err := s.SendText(context.Background(), "hello mesh", ToNode(200), 0, true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	id, err := fut.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, sentID, id)
}

// T2b: a routing error reason resolves the future with a RoutingError.
func TestSendTextErrored(t *testing.T) {
	s, tr := newConfiguredSession(t, 100)

	tr.onWrite = func(toRadioBytes []byte) {
		tro, err := pb.UnmarshalToRadio(toRadioBytes)
		require.NoError(t, err)
		if tro.Packet == nil || tro.Packet.Decoded == nil || tro.Packet.Decoded.Portnum != pb.PortTextMessageApp {
			return
		}
		errPkt := &pb.MeshPacket{
			From: 200, To: 100, ID: tro.Packet.ID + 1,
			Decoded: &pb.Data{
				Portnum:   pb.PortRouting,
				RequestID: tro.Packet.ID,
				Payload: (&pb.Routing{
					Variant:     pb.RoutingVariantErrorReason,
					ErrorReason: pb.RoutingErrorNoRoute,
				}).Marshal(),
			},
		}
		fr := &pb.FromRadio{Variant: pb.FromRadioPacket, Packet: errPkt}
		go s.IngestMessage(fr.Marshal())
	}

	fut, err := s.SendText(context.Background(), "unreachable", ToNode(999), 0, true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = fut.Wait(ctx)
	require.Error(t, err)
}

// T3: an oversize payload is rejected synchronously and nothing reaches
// the transport.
func TestSendTextOversizeRejectedSynchronously(t *testing.T) {
	s, tr := newConfiguredSession(t, 100)

	huge := make([]byte, frame.MaxPayload*2)
	for i := range huge {
		huge[i] = 'x'
	}

	// Forget the wantConfigId frame Configure wrote while setting up.
	tr.mu.Lock()
	tr.written = nil
	tr.mu.Unlock()

	_, err := s.SendText(context.Background(), string(huge), ToBroadcast(), 0, false)
	require.Error(t, err)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.written)
}

// T4: a device-initiated reboot event triggers automatic reconfiguration.
func TestRebootedTriggersReconfigure(t *testing.T) {
	s, _ := newConfiguredSession(t, 100)

	var statuses []bus.Status
	var mu sync.Mutex
	s.Bus.OnStatus.Subscribe(func(e bus.StatusEvent) {
		mu.Lock()
		statuses = append(statuses, e.Status)
		mu.Unlock()
	})

	rebooted := &pb.FromRadio{Variant: pb.FromRadioRebooted, Rebooted: true}
	s.IngestMessage(rebooted.Marshal())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, v := range statuses {
			if v == bus.StatusConfiguring {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

// T5: echoResponse injects the outbound packet into the demultiplexer, so
// a subscriber sees its own send as a text message event.
func TestEchoResponseFiresTextEvent(t *testing.T) {
	s, _ := newConfiguredSession(t, 100)

	seen := make(chan string, 1)
	s.Bus.OnTextMessage.Subscribe(func(e bus.TextMessageEvent) {
		seen <- e.Text
	})

	_, err := s.SendText(context.Background(), "echo me", ToBroadcast(), 0, false)
	require.NoError(t, err)

	select {
	case text := <-seen:
		assert.Equal(t, "echo me", text)
	case <-time.After(time.Second):
		t.Fatal("echo event never fired")
	}
}

// T6: a configCompleteId that does not match the session's lockstep
// identifier is tolerated, not fatal (spec.md §9 open question 1).
func TestConfigLockstepMismatchTolerated(t *testing.T) {
	s := New(Options{LockstepID: 1})
	tr := &fakeTransport{}
	s.SetTransport(tr)
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Configure(context.Background()))

	mismatch := &pb.FromRadio{Variant: pb.FromRadioConfigCompleteID, ConfigCompleteID: 999}
	s.IngestMessage(mismatch.Marshal())

	assert.Equal(t, bus.StatusConfigured, s.Status())
}

func TestDestinationResolution(t *testing.T) {
	const me = uint32(42)
	assert.Equal(t, Broadcast, ToBroadcast().resolve(me))
	assert.Equal(t, me, ToSelf().resolve(me))
	assert.Equal(t, uint32(7), ToNode(7).resolve(me))
}

func TestUnknownNodeNotFound(t *testing.T) {
	s, _ := newConfiguredSession(t, 100)
	_, ok := s.Node(12345)
	assert.False(t, ok)
}

func TestNodeInfoPopulatesNodeDB(t *testing.T) {
	s, _ := newConfiguredSession(t, 100)

	ni := &pb.NodeInfo{Num: 55, User: &pb.User{LongName: "Relay One"}}
	fr := &pb.FromRadio{Variant: pb.FromRadioNodeInfo, NodeInfo: ni}
	s.IngestMessage(fr.Marshal())

	got, ok := s.Node(55)
	require.True(t, ok)
	assert.Equal(t, "Relay One", got.User.LongName)
}

func TestChannelCachePopulatedFromFromRadio(t *testing.T) {
	s, _ := newConfiguredSession(t, 100)

	_, ok := s.Channel(2)
	assert.False(t, ok)

	ch := &pb.Channel{Index: 2, Settings: &pb.ChannelSettings{Name: "admin"}}
	fr := &pb.FromRadio{Variant: pb.FromRadioChannel, Channel: ch}
	s.IngestMessage(fr.Marshal())

	got, ok := s.Channel(2)
	require.True(t, ok)
	assert.Equal(t, "admin", got.Settings.Name)
}

func TestChannelOutOfRangeIndexNotFound(t *testing.T) {
	s, _ := newConfiguredSession(t, 100)
	_, ok := s.Channel(99)
	assert.False(t, ok)
}
