// Package session implements the device session of spec.md §4.4: the
// configuration state machine, the outbound request builders, and the
// fromRadio demultiplexer, wired together over the queue, bus, and xmodem
// packages. It is the Meshtastic analog of the teacher's appserver.go +
// tq.go + callbacks.go trio, generalized from Dire Wolf's audio-channel
// TNC session to one radio's request/response lifecycle, and from its
// cgo function-pointer callback wiring (callbacks.go) to constructor-
// injected closures, the idiomatic Go shape spec.md §9 calls for directly.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/n5hq/meshcore/bus"
	"github.com/n5hq/meshcore/frame"
	"github.com/n5hq/meshcore/logging"
	"github.com/n5hq/meshcore/pb"
	"github.com/n5hq/meshcore/queue"
	"github.com/n5hq/meshcore/transport"
	"github.com/n5hq/meshcore/xmodem"
)

// MinFirmwareVersion is the build-time minimum supported firmware version
// (spec.md §6). It is a variable, not a const, so a host application can
// override it for a specific deployment without a fork.
var MinFirmwareVersion uint32 = 20000

// Options configures a new Session.
type Options struct {
	// LockstepID, if non-zero, is used as the configuration lockstep
	// identifier instead of drawing one from the CSPRNG (spec.md §6
	// "injected by the caller for deterministic testing").
	LockstepID uint32
	// MinFirmwareVersion overrides the package-level MinFirmwareVersion
	// for this session only. Zero means "use the package default".
	MinFirmwareVersion uint32
	// Logger receives session diagnostics. Defaults to logging.Default().
	Logger *logging.Logger
}

// Session owns the queue, bus, XMODEM engine, and transport for one radio
// connection (spec.md §4.4, §9 "the session is the unit of isolation").
type Session struct {
	Bus *bus.Bus

	queue     *queue.Queue
	xmodem    *xmodem.Engine
	transport transport.Transport
	dec       *frame.Decoder
	log       *logging.Logger

	minFirmware uint32

	mu             sync.Mutex
	status         bus.Status
	lockstepID     uint32
	lockstepSet    bool
	myInfo         *pb.MyNodeInfo
	metadata       *pb.DeviceMetadata
	pendingChanges bool
	nodeDB         map[uint32]*pb.NodeInfo
	channels       [8]*pb.Channel
}

// New returns a Session with no transport attached yet. Call SetTransport
// before Connect.
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	minFW := opts.MinFirmwareVersion
	if minFW == 0 {
		minFW = MinFirmwareVersion
	}

	s := &Session{
		Bus:         bus.New(),
		queue:       queue.New(),
		log:         log,
		minFirmware: minFW,
		status:      bus.StatusDisconnected,
		nodeDB:      make(map[uint32]*pb.NodeInfo),
	}
	s.xmodem = xmodem.New(s.sendXModem)

	if opts.LockstepID != 0 {
		s.lockstepID = opts.LockstepID
		s.lockstepSet = true
	}
	return s
}

// SetTransport attaches t as the session's transport. It must be
// constructed with this Session's IngestStream or IngestMessage as its
// byte sink before being passed here (spec.md §9 "constructor-injected
// sender handle rather than a captured method").
func (s *Session) SetTransport(t transport.Transport) {
	s.transport = t
}

// setStatus updates status and dispatches a StatusEvent (spec.md §3
// "Device status").
func (s *Session) setStatus(v bus.Status) {
	s.mu.Lock()
	s.status = v
	s.mu.Unlock()
	s.Bus.OnStatus.Publish(bus.StatusEvent{Status: v})
}

// Status reports the session's current device status.
func (s *Session) Status() bus.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// MyNodeNum returns the radio's self-identified node number, or 0 if
// myInfo has not yet arrived.
func (s *Session) MyNodeNum() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.myInfo == nil {
		return 0
	}
	return s.myInfo.MyNodeNum
}

// Connect opens the transport and transitions status to Connecting, then
// Connected once the transport's Connect call returns.
func (s *Session) Connect(ctx context.Context) error {
	if s.transport == nil {
		return fmt.Errorf("session: no transport attached")
	}
	s.setStatus(bus.StatusConnecting)
	if err := s.transport.Connect(ctx); err != nil {
		s.setStatus(bus.StatusDisconnected)
		return fmt.Errorf("session: connect: %w", err)
	}
	s.setStatus(bus.StatusConnected)
	return nil
}

// Disconnect tears down the transport, clears the queue, and transitions
// to Disconnected (spec.md §5 "Disconnection triggers complete()").
func (s *Session) Disconnect() error {
	s.setStatus(bus.StatusDisconnecting)
	s.queue.Clear()
	err := s.transport.Disconnect()
	s.setStatus(bus.StatusDisconnected)
	return err
}

// Complete clears all pending/sent queue entries with a cancellation
// error, without touching the transport (spec.md §5 "complete()").
func (s *Session) Complete() {
	s.queue.Clear()
}

// IngestStream feeds raw bytes from a byte-stream transport (serial, BLE)
// through the session's frame codec, dispatching one fromRadio message per
// completed frame. Wire this as the ByteSink passed to such a transport's
// constructor.
func (s *Session) IngestStream(chunk []byte) {
	s.mu.Lock()
	if s.dec == nil {
		s.dec = frame.NewDecoder()
	}
	dec := s.dec
	s.mu.Unlock()

	for _, payload := range dec.Feed(chunk) {
		s.ingestPayload(payload)
	}
}

// IngestMessage delivers one already-delimited message payload, for
// transports (HTTP) whose read boundary already matches one complete
// message (spec.md §6 "implementation-specific pump").
func (s *Session) IngestMessage(payload []byte) {
	s.ingestPayload(payload)
}

func (s *Session) ingestPayload(payload []byte) {
	if len(payload) == 0 {
		return
	}
	fr, err := pb.UnmarshalFromRadio(payload)
	if err != nil {
		s.log.Warn("dropping malformed frame", "err", err)
		return
	}
	s.handleFromRadio(fr)
}

// write frame-encodes payload and hands it to the transport. It is wired
// as the queue's WriteFunc, and is also called directly by Configure (the
// wantConfigId frame) and sendXModem (XMODEM frames), which bypass the
// queue.
func (s *Session) write(ctx context.Context, payload []byte) error {
	framed, err := frame.Encode(payload)
	if err != nil {
		return err
	}
	return s.transport.Write(ctx, framed)
}

// drain kicks the queue's drain loop in the background. Drain is
// re-entrant safe (spec.md §4.2), so firing it after every enqueue is
// always correct even if a drain is already running.
func (s *Session) drain(ctx context.Context) {
	go func() {
		if err := s.queue.Drain(ctx, s.write); err != nil {
			s.log.Error("queue drain failed", "err", err)
			s.setStatus(bus.StatusDisconnected)
		}
	}()
}

// sendXModem is the xmodem.Engine's constructor-injected Sender: it wraps
// pkt as a ToRadio.XModemPacket and writes it directly, bypassing the
// queue (XMODEM has its own ack/retry discipline, spec.md §4.5).
func (s *Session) sendXModem(ctx context.Context, pkt *pb.XModemPacket) error {
	tr := &pb.ToRadio{XModemPacket: pkt}
	return s.write(ctx, tr.Marshal())
}

// enqueueRadio wraps mp as a ToRadio.Packet, enqueues the serialized
// ToRadio bytes under mp's id, and kicks the drain loop.
func (s *Session) enqueueRadio(ctx context.Context, mp *pb.MeshPacket) (*queue.Future, error) {
	tr := &pb.ToRadio{Packet: mp}
	fut, err := s.queue.Enqueue(mp.ID, tr.Marshal())
	if err != nil {
		return nil, err
	}
	s.drain(ctx)
	return fut, nil
}

// Configure transitions to Configuring and transmits wantConfigId carrying
// the session's lockstep identifier (spec.md §4.4.2). The lockstep
// identifier is drawn from the CSPRNG the first time Configure runs, and
// fixed for the lifetime of the session afterward (spec.md §3 invariant
// "set exactly once per session").
func (s *Session) Configure(ctx context.Context) error {
	s.mu.Lock()
	if !s.lockstepSet {
		id, err := nextPacketID()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.lockstepID = id
		s.lockstepSet = true
	}
	id := s.lockstepID
	s.nodeDB = make(map[uint32]*pb.NodeInfo)
	s.channels = [8]*pb.Channel{}
	s.mu.Unlock()

	s.setStatus(bus.StatusConfiguring)
	tr := &pb.ToRadio{WantConfigID: id}
	return s.write(ctx, tr.Marshal())
}

// handleFromRadio is the fromRadio demultiplexer (spec.md §4.4.3).
func (s *Session) handleFromRadio(fr *pb.FromRadio) {
	s.Bus.OnFromRadio.Publish(bus.FromRadioEvent{FromRadio: fr})

	switch fr.Variant {
	case pb.FromRadioPacket:
		s.handleMeshPacket(fr.Packet)
	case pb.FromRadioMyInfo:
		s.mu.Lock()
		s.myInfo = fr.MyInfo
		s.mu.Unlock()
		s.Bus.OnMyInfo.Publish(bus.MyInfoEvent{MyInfo: fr.MyInfo})
	case pb.FromRadioNodeInfo:
		s.handleNodeInfo(fr.NodeInfo)
	case pb.FromRadioConfig:
		s.Bus.OnConfig.Publish(bus.ConfigEvent{Config: fr.Config})
	case pb.FromRadioModuleConfig:
		s.Bus.OnModuleConfig.Publish(bus.ModuleConfigEvent{ModuleConfig: fr.ModuleConfig})
	case pb.FromRadioChannel:
		if fr.Channel != nil && int(fr.Channel.Index) < len(s.channels) {
			s.mu.Lock()
			s.channels[fr.Channel.Index] = fr.Channel
			s.mu.Unlock()
		}
		s.Bus.OnChannel.Publish(bus.ChannelEvent{Channel: fr.Channel})
	case pb.FromRadioLogRecord:
		s.Bus.OnLogRecord.Publish(bus.LogRecordEvent{LogRecord: fr.LogRecord})
	case pb.FromRadioConfigCompleteID:
		s.handleConfigComplete(fr.ConfigCompleteID)
	case pb.FromRadioRebooted:
		s.Bus.OnRebooted.Publish(bus.RebootedEvent{})
		go func() { _ = s.Configure(context.Background()) }()
	case pb.FromRadioQueueStatus:
		s.Bus.OnQueueStatus.Publish(bus.QueueStatusEvent{QueueStatus: fr.QueueStatus})
	case pb.FromRadioXModemPacket:
		_ = s.xmodem.HandlePacket(context.Background(), fr.XModemPacket)
	case pb.FromRadioMetadata:
		s.mu.Lock()
		s.metadata = fr.Metadata
		s.mu.Unlock()
		if fr.Metadata != nil {
			if ver, err := parseFirmwareVersion(fr.Metadata.FirmwareVersion); err == nil && ver < s.minFirmware {
				s.log.Error("firmware below minimum supported version",
					"err", (&FirmwareTooOld{Reported: ver, Minimum: s.minFirmware}).Error())
			}
		}
		s.Bus.OnMetadata.Publish(bus.MetadataEvent{Metadata: fr.Metadata})
	case pb.FromRadioMQTTClientProxyMessage:
		// Ignored per spec.md §4.4.3.
	default:
		s.log.Warn("unknown fromRadio variant", "variant", fr.Variant)
	}
}

func (s *Session) handleNodeInfo(ni *pb.NodeInfo) {
	if ni == nil {
		return
	}
	s.mu.Lock()
	s.nodeDB[ni.Num] = ni
	s.mu.Unlock()

	s.Bus.OnNodeInfo.Publish(bus.NodeInfoEvent{NodeInfo: ni})

	meta := bus.Meta{From: ni.Num, To: ni.Num, Channel: 0, Kind: bus.KindDirect, RXTime: time.Now()}
	if ni.Position != nil {
		s.Bus.OnPosition.Publish(bus.PositionEvent{Meta: meta, Position: ni.Position})
	}
	if ni.User != nil {
		s.Bus.OnUser.Publish(bus.UserEvent{Meta: meta, User: ni.User})
	}
}

func (s *Session) handleConfigComplete(id uint32) {
	s.mu.Lock()
	want := s.lockstepID
	s.mu.Unlock()

	if id != want {
		s.log.Error("config lockstep mismatch", "err", (&ConfigLockstepMismatch{Want: want, Got: id}).Error())
	}
	s.setStatus(bus.StatusConfigured)
}

// handleMeshPacket implements spec.md §4.4.4.
func (s *Session) handleMeshPacket(mp *pb.MeshPacket) {
	if mp == nil {
		return
	}
	s.Bus.OnMeshPacket.Publish(bus.MeshPacketEvent{Packet: mp})

	if mp.From != s.MyNodeNum() {
		// spec.md §9 open question 3: fires on every foreign packet,
		// including transport-layer chatter, by design.
		s.Bus.OnHeartbeat.Publish(bus.HeartbeatEvent{At: time.Now(), From: mp.From})
	}

	switch {
	case mp.Decoded != nil:
		s.handleDecoded(mp, mp.Decoded)
	case mp.Encrypted != nil:
		s.log.Warn("ignoring encrypted mesh packet", "from", mp.From)
	default:
		s.log.Error("protocol error", "err", (&ProtocolError{Msg: "mesh packet carries neither decoded payload nor encrypted blob"}).Error())
	}
}

// handleDecoded implements spec.md §4.4.5.
func (s *Session) handleDecoded(mp *pb.MeshPacket, d *pb.Data) {
	kind := bus.KindDirect
	if mp.To == Broadcast {
		kind = bus.KindBroadcast
	}
	meta := bus.Meta{
		ID:      mp.ID,
		RXTime:  time.Unix(int64(mp.RXTime), 0),
		From:    mp.From,
		To:      mp.To,
		Channel: mp.Channel,
		Kind:    kind,
	}
	if mp.RXTime == 0 {
		meta.RXTime = time.Now()
	}

	switch d.Portnum {
	case pb.PortTextMessageApp, pb.PortTextMessageCompr:
		s.Bus.OnTextMessage.Publish(bus.TextMessageEvent{Meta: meta, Text: string(d.Payload)})
	case pb.PortPosition:
		if p, err := pb.UnmarshalPosition(d.Payload); err == nil {
			s.Bus.OnPosition.Publish(bus.PositionEvent{Meta: meta, Position: p})
		}
	case pb.PortUser:
		if u, err := pb.UnmarshalUser(d.Payload); err == nil {
			s.Bus.OnUser.Publish(bus.UserEvent{Meta: meta, User: u})
		}
	case pb.PortWaypoint:
		if w, err := pb.UnmarshalWaypoint(d.Payload); err == nil {
			s.Bus.OnWaypoint.Publish(bus.WaypointEvent{Meta: meta, Waypoint: w})
		}
	case pb.PortTelemetry:
		if t, err := pb.UnmarshalTelemetry(d.Payload); err == nil {
			s.Bus.OnTelemetry.Publish(bus.TelemetryEvent{Meta: meta, Telemetry: t})
		}
	case pb.PortTraceRoute:
		if r, err := pb.UnmarshalTraceRoute(d.Payload); err == nil {
			s.Bus.OnTraceRoute.Publish(bus.TraceRouteEvent{Meta: meta, Route: r})
		}
	case pb.PortNeighborInfo:
		if ni, err := pb.UnmarshalNeighborInfo(d.Payload); err == nil {
			s.Bus.OnNeighborInfo.Publish(bus.NeighborInfoEvent{Meta: meta, NeighborInfo: ni})
		}
	case pb.PortPaxcounter:
		if p, err := pb.UnmarshalPaxcount(d.Payload); err == nil {
			s.Bus.OnPaxcount.Publish(bus.PaxcountEvent{Meta: meta, Paxcount: p})
		}
	case pb.PortRemoteHardware:
		s.Bus.OnHardware.Publish(bus.HardwareEvent{Meta: meta, Raw: d.Payload})
	case pb.PortRouting:
		s.handleRouting(meta, d)
	case pb.PortAdmin:
		s.handleAdminResponse(meta, d)
	default:
		s.Bus.OnRawApp.Publish(bus.RawAppEvent{Meta: meta, Port: d.Portnum, Payload: d.Payload})
	}
}

// handleRouting is ROUTING_APP's extra semantics (spec.md §4.4.5).
func (s *Session) handleRouting(meta bus.Meta, d *pb.Data) {
	r, err := pb.UnmarshalRouting(d.Payload)
	if err != nil {
		s.log.Warn("dropping malformed routing payload", "err", err)
		return
	}
	s.Bus.OnRouting.Publish(bus.RoutingEvent{Meta: meta, Routing: r})

	if r.Variant != pb.RoutingVariantErrorReason {
		return
	}
	if r.ErrorReason == pb.RoutingErrorNone {
		s.queue.ProcessAck(d.RequestID)
	} else {
		s.queue.ProcessError(d.RequestID, uint32(r.ErrorReason))
	}
}

// handleAdminResponse is ADMIN_APP's extra semantics: re-route response
// variants as top-level config/module-config/channel/owner/metadata events
// (spec.md §4.4.5).
func (s *Session) handleAdminResponse(meta bus.Meta, d *pb.Data) {
	a, err := pb.UnmarshalAdminMessage(d.Payload)
	if err != nil {
		s.log.Warn("dropping malformed admin payload", "err", err)
		return
	}
	switch a.Variant {
	case pb.AdminGetConfigResponse:
		s.Bus.OnConfig.Publish(bus.ConfigEvent{Config: a.GetConfigResponse})
	case pb.AdminGetModuleConfigResponse:
		s.Bus.OnModuleConfig.Publish(bus.ModuleConfigEvent{ModuleConfig: a.GetModuleConfigResponse})
	case pb.AdminGetChannelResponse:
		if a.GetChannelResponse != nil && int(a.GetChannelResponse.Index) < len(s.channels) {
			s.mu.Lock()
			s.channels[a.GetChannelResponse.Index] = a.GetChannelResponse
			s.mu.Unlock()
		}
		s.Bus.OnChannel.Publish(bus.ChannelEvent{Channel: a.GetChannelResponse})
	case pb.AdminGetOwnerResponse:
		s.Bus.OnOwner.Publish(bus.OwnerEvent{User: a.GetOwnerResponse})
	case pb.AdminGetDeviceMetadataResponse:
		s.mu.Lock()
		s.metadata = a.GetDeviceMetadataResponse
		s.mu.Unlock()
		s.Bus.OnMetadata.Publish(bus.MetadataEvent{Metadata: a.GetDeviceMetadataResponse})
	}
}

// Channel returns the cached channel settings at index, if any have been
// seen since the last Configure (SPEC_FULL.md §12 channel settings cache).
func (s *Session) Channel(index uint32) (*pb.Channel, bool) {
	if index >= uint32(len(s.channels)) {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channels[index]
	return c, c != nil
}

// Node returns the last-seen NodeInfo for num from the in-memory node
// database (SPEC_FULL.md §12 node database snapshot).
func (s *Session) Node(num uint32) (*pb.NodeInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodeDB[num]
	return n, ok
}

// Metadata returns the last-seen DeviceMetadata, if any.
func (s *Session) Metadata() *pb.DeviceMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata
}

// PendingChanges reports whether an edit-session is open (spec.md §4.4.1
// "Edit-session coupling").
func (s *Session) PendingChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingChanges
}

func parseFirmwareVersion(v string) (uint32, error) {
	var n uint32
	_, err := fmt.Sscanf(v, "%d", &n)
	return n, err
}
