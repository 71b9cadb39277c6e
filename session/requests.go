// Outbound request construction (spec.md §4.4.1). Every operation here
// builds a typed request, serializes it through the pb wire codec, and
// submits the result to the transmit queue with a freshly generated
// packet id, exactly as spec.md's "uniform pattern" describes.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/n5hq/meshcore/bus"
	"github.com/n5hq/meshcore/frame"
	"github.com/n5hq/meshcore/pb"
	"github.com/n5hq/meshcore/queue"
)

// sendAdmin wraps a, builds a mesh packet addressed to dest on
// AdminChannel (the primary channel, whatever dest is), and enqueues it
// (spec.md §4.4.1's uniform admin pattern).
func (s *Session) sendAdmin(ctx context.Context, a *pb.AdminMessage, dest Destination) (*queue.Future, error) {
	id, err := nextPacketID()
	if err != nil {
		return nil, err
	}
	mp := &pb.MeshPacket{
		From:    s.MyNodeNum(),
		To:      dest.resolve(s.MyNodeNum()),
		Channel: AdminChannel,
		ID:      id,
		WantAck: true,
		Decoded: &pb.Data{
			Portnum:   pb.PortAdmin,
			Payload:   a.Marshal(),
			RequestID: 0,
		},
	}
	return s.enqueueRadio(ctx, mp)
}

// markPendingChanges dispatches beginEditSettings automatically the first
// time setConfig is called within a period of pending changes (spec.md
// §4.4.1 "Edit-session coupling").
func (s *Session) markPendingChanges(ctx context.Context) {
	s.mu.Lock()
	already := s.pendingChanges
	s.pendingChanges = true
	s.mu.Unlock()

	if already {
		return
	}
	s.Bus.OnPendingChanges.Publish(bus.PendingChangesEvent{Pending: true})
	_, _ = s.BeginEditSettings(ctx)
}

// SetConfig sends AdminSetConfig to Self, first dispatching
// beginEditSettings if this is the first pending change.
func (s *Session) SetConfig(ctx context.Context, cfg *pb.Config) (*queue.Future, error) {
	s.markPendingChanges(ctx)
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminSetConfig, SetConfig: cfg}, ToSelf())
}

// SetModuleConfig sends AdminSetModuleConfig to Self.
func (s *Session) SetModuleConfig(ctx context.Context, mc *pb.ModuleConfig) (*queue.Future, error) {
	s.markPendingChanges(ctx)
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminSetModuleConfig, SetModuleConfig: mc}, ToSelf())
}

// SetChannel sends AdminSetChannel to Self.
func (s *Session) SetChannel(ctx context.Context, ch *pb.Channel) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminSetChannel, SetChannel: ch}, ToSelf())
}

// SetOwner sends AdminSetOwner to Self.
func (s *Session) SetOwner(ctx context.Context, u *pb.User) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminSetOwner, SetOwner: u}, ToSelf())
}

// SetPosition sends AdminSetPosition to Self.
func (s *Session) SetPosition(ctx context.Context, pos *pb.Position) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminSetPosition, SetPosition: pos}, ToSelf())
}

// SetCannedMessages sends AdminSetCannedMessages to Self.
func (s *Session) SetCannedMessages(ctx context.Context, msgs string) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminSetCannedMessages, SetCannedMessages: msgs}, ToSelf())
}

// GetChannel requests channel index from dest.
func (s *Session) GetChannel(ctx context.Context, index uint32, dest Destination) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminGetChannelRequest, GetChannelIndexPlusOne: index + 1}, dest)
}

// GetConfig requests a config section of typ from Self.
func (s *Session) GetConfig(ctx context.Context, typ pb.ConfigType) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminGetConfigRequest, GetConfigTypePlusOne: uint32(typ) + 1}, ToSelf())
}

// GetModuleConfig requests a module config section of typ from Self.
func (s *Session) GetModuleConfig(ctx context.Context, typ pb.ModuleConfigType) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminGetModuleConfigRequest, GetModuleConfigTypePlusOne: uint32(typ) + 1}, ToSelf())
}

// GetOwner requests the owner (User) record from Self.
func (s *Session) GetOwner(ctx context.Context) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminGetOwnerRequest}, ToSelf())
}

// GetMetadata requests device metadata from nodeNum (0 meaning Self).
func (s *Session) GetMetadata(ctx context.Context, nodeNum uint32) (*queue.Future, error) {
	dest := ToSelf()
	if nodeNum != 0 {
		dest = ToNode(nodeNum)
	}
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminGetDeviceMetadataRequest}, dest)
}

// ClearChannel disables channel index by sending an empty settings block
// with ChannelRoleDisabled.
func (s *Session) ClearChannel(ctx context.Context, index uint32) (*queue.Future, error) {
	ch := &pb.Channel{Index: index, Role: pb.ChannelRoleDisabled, Settings: &pb.ChannelSettings{}}
	return s.SetChannel(ctx, ch)
}

// BeginEditSettings opens an edit session on the radio.
func (s *Session) BeginEditSettings(ctx context.Context) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminBeginEditSettings}, ToSelf())
}

// CommitEditSettings closes the edit session and clears the pending-
// changes flag (spec.md §4.4.1).
func (s *Session) CommitEditSettings(ctx context.Context) (*queue.Future, error) {
	fut, err := s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminCommitEditSettings}, ToSelf())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.pendingChanges = false
	s.mu.Unlock()
	s.Bus.OnPendingChanges.Publish(bus.PendingChangesEvent{Pending: false})
	return fut, nil
}

// ResetNodes clears the radio's node database.
func (s *Session) ResetNodes(ctx context.Context) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminNodeDBReset}, ToSelf())
}

// RemoveNodeByNum removes node n from the radio's node database.
func (s *Session) RemoveNodeByNum(ctx context.Context, n uint32) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminRemoveByNodenum, RemoveByNodenum: n}, ToSelf())
}

// shutdownLogMessage implements spec.md §14/§9 open question 2: "shutting
// down now" when sec <= 2, "shutting down in Ns" otherwise.
func shutdownLogMessage(sec int32) string {
	if sec <= 2 {
		return "shutting down now"
	}
	return fmt.Sprintf("shutting down in %d seconds", sec)
}

// Shutdown sends AdminShutdownSeconds and logs per shutdownLogMessage. The
// wire bytes carry sec unconditionally; only the log wording branches
// (spec.md §9 open question 2).
func (s *Session) Shutdown(ctx context.Context, sec int32) (*queue.Future, error) {
	s.log.Info(shutdownLogMessage(sec))
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminShutdownSeconds, Seconds: sec}, ToSelf())
}

// Reboot sends AdminRebootSeconds.
func (s *Session) Reboot(ctx context.Context, sec int32) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminRebootSeconds, Seconds: sec}, ToSelf())
}

// RebootOta sends AdminRebootOtaSeconds.
func (s *Session) RebootOta(ctx context.Context, sec int32) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminRebootOtaSeconds, Seconds: sec}, ToSelf())
}

// FactoryResetDevice sends AdminFactoryResetDevice.
func (s *Session) FactoryResetDevice(ctx context.Context) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminFactoryResetDevice}, ToSelf())
}

// FactoryResetConfig sends AdminFactoryResetConfig.
func (s *Session) FactoryResetConfig(ctx context.Context) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminFactoryResetConfig}, ToSelf())
}

// EnterDfuMode sends AdminEnterDfuModeRequest.
func (s *Session) EnterDfuMode(ctx context.Context) (*queue.Future, error) {
	return s.sendAdmin(ctx, &pb.AdminMessage{Variant: pb.AdminEnterDfuModeRequest}, ToSelf())
}

// TraceRoute sends an empty TraceRoute request to dest on the
// TRACEROUTE_APP port via SendPacket.
func (s *Session) TraceRoute(ctx context.Context, dest Destination) (*queue.Future, error) {
	tr := &pb.TraceRoute{}
	return s.SendPacket(ctx, tr.Marshal(), pb.PortTraceRoute, dest, 0, true, true, false, 0, 0)
}

// RequestPosition sends an empty Position request to dest on the
// POSITION_APP port via SendPacket.
func (s *Session) RequestPosition(ctx context.Context, dest Destination) (*queue.Future, error) {
	pos := &pb.Position{}
	return s.SendPacket(ctx, pos.Marshal(), pb.PortPosition, dest, 0, true, true, false, 0, 0)
}

// SendText sends a UTF-8 text message (spec.md §4.4.1).
func (s *Session) SendText(ctx context.Context, text string, dest Destination, channel uint32, wantAck bool) (*queue.Future, error) {
	return s.SendPacket(ctx, []byte(text), pb.PortTextMessageApp, dest, channel, wantAck, false, true, 0, 0)
}

// SendWaypoint sends a Waypoint payload (spec.md §4.4.1).
func (s *Session) SendWaypoint(ctx context.Context, wp *pb.Waypoint, dest Destination, channel uint32) (*queue.Future, error) {
	return s.SendPacket(ctx, wp.Marshal(), pb.PortWaypoint, dest, channel, true, false, true, 0, 0)
}

// SendPacket implements spec.md §4.4.1's sendPacket contract exactly: a
// fresh packet id, a mesh packet addressed per dest, and — when
// echoResponse is true — synchronous injection into the inbound
// demultiplexer (with rxTime = now) before the bytes are handed to the
// queue, so the caller observes its own send.
func (s *Session) SendPacket(
	ctx context.Context,
	payload []byte,
	port pb.PortNum,
	dest Destination,
	channel uint32,
	wantAck bool,
	wantResponse bool,
	echoResponse bool,
	replyID uint32,
	emoji uint32,
) (*queue.Future, error) {
	id, err := nextPacketID()
	if err != nil {
		return nil, err
	}
	my := s.MyNodeNum()
	mp := &pb.MeshPacket{
		From:    my,
		To:      dest.resolve(my),
		Channel: channel,
		ID:      id,
		WantAck: wantAck,
		RXTime:  uint32(time.Now().Unix()),
		Decoded: &pb.Data{
			Portnum:      port,
			Payload:      payload,
			WantResponse: wantResponse,
			Dest:         dest.resolve(my),
			Source:       my,
			ReplyID:      replyID,
			Emoji:        emoji,
		},
	}

	tr := &pb.ToRadio{Packet: mp}
	if len(tr.Marshal()) > frame.MaxPayload {
		return nil, &queue.ErrPayloadTooLarge{Len: len(tr.Marshal())}
	}

	if echoResponse {
		s.handleMeshPacket(mp)
	}

	return s.enqueueRadio(ctx, mp)
}
