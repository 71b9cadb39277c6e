package bus

import (
	"time"

	"github.com/n5hq/meshcore/pb"
)

// Kind is a decoded packet's broadcast/direct classification (spec.md §3).
type Kind int

const (
	KindDirect Kind = iota
	KindBroadcast
)

// Meta is the common envelope attached to every inbound application event
// (spec.md §3 "Packet metadata").
type Meta struct {
	ID      uint32
	RXTime  time.Time
	From    uint32
	To      uint32
	Channel uint32
	Kind    Kind
}

// Status is the device status state machine's current value (spec.md §3).
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusConfiguring
	StatusConfigured
	StatusReconnecting
	StatusDisconnecting
	StatusFirmwareUpdate
	StatusRestarting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusConfiguring:
		return "configuring"
	case StatusConfigured:
		return "configured"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnecting:
		return "disconnecting"
	case StatusFirmwareUpdate:
		return "firmware_update"
	case StatusRestarting:
		return "restarting"
	default:
		return "unknown"
	}
}

// Event payload types, one per Bus topic. Each named operation in spec.md
// §4.4.3/§4.4.5 that says "dispatch an X event" has exactly one type here.
type (
	FromRadioEvent    struct{ FromRadio *pb.FromRadio }
	MeshPacketEvent   struct{ Packet *pb.MeshPacket }
	HeartbeatEvent    struct {
		At   time.Time
		From uint32
	}
	StatusEvent          struct{ Status Status }
	MyInfoEvent          struct{ MyInfo *pb.MyNodeInfo }
	NodeInfoEvent        struct{ NodeInfo *pb.NodeInfo }
	ConfigEvent          struct{ Config *pb.Config }
	ModuleConfigEvent    struct{ ModuleConfig *pb.ModuleConfig }
	ChannelEvent         struct{ Channel *pb.Channel }
	OwnerEvent           struct{ User *pb.User }
	MetadataEvent        struct{ Metadata *pb.DeviceMetadata }
	LogRecordEvent       struct{ LogRecord *pb.LogRecord }
	QueueStatusEvent     struct{ QueueStatus *pb.QueueStatus }
	RebootedEvent        struct{}
	PendingChangesEvent  struct{ Pending bool }

	TextMessageEvent  struct {
		Meta Meta
		Text string
	}
	PositionEvent struct {
		Meta     Meta
		Position *pb.Position
	}
	UserEvent struct {
		Meta Meta
		User *pb.User
	}
	WaypointEvent struct {
		Meta     Meta
		Waypoint *pb.Waypoint
	}
	TelemetryEvent struct {
		Meta      Meta
		Telemetry *pb.Telemetry
	}
	TraceRouteEvent struct {
		Meta  Meta
		Route *pb.TraceRoute
	}
	NeighborInfoEvent struct {
		Meta         Meta
		NeighborInfo *pb.NeighborInfo
	}
	PaxcountEvent struct {
		Meta     Meta
		Paxcount *pb.Paxcount
	}
	RoutingEvent struct {
		Meta    Meta
		Routing *pb.Routing
	}
	HardwareEvent struct {
		Meta Meta
		Raw  []byte
	}
	// RawAppEvent covers every port spec.md §4.4.5 says to pass through
	// undecoded: audio, detection sensor, IP tunnel, serial, store-forward,
	// range test, ZPS, simulator, ATAK, map report, private, ATAK
	// forwarder, reply.
	RawAppEvent struct {
		Meta    Meta
		Port    pb.PortNum
		Payload []byte
	}
)

// Bus is the session's full set of topics. The zero value is ready to use.
type Bus struct {
	OnFromRadio   Topic[FromRadioEvent]
	OnMeshPacket  Topic[MeshPacketEvent]
	OnHeartbeat   Topic[HeartbeatEvent]
	OnStatus      Topic[StatusEvent]
	OnMyInfo      Topic[MyInfoEvent]
	OnNodeInfo    Topic[NodeInfoEvent]
	OnConfig      Topic[ConfigEvent]
	OnModuleConfig Topic[ModuleConfigEvent]
	OnChannel     Topic[ChannelEvent]
	OnOwner       Topic[OwnerEvent]
	OnMetadata    Topic[MetadataEvent]
	OnLogRecord   Topic[LogRecordEvent]
	OnQueueStatus Topic[QueueStatusEvent]
	OnRebooted    Topic[RebootedEvent]
	OnPendingChanges Topic[PendingChangesEvent]

	OnTextMessage  Topic[TextMessageEvent]
	OnPosition     Topic[PositionEvent]
	OnUser         Topic[UserEvent]
	OnWaypoint     Topic[WaypointEvent]
	OnTelemetry    Topic[TelemetryEvent]
	OnTraceRoute   Topic[TraceRouteEvent]
	OnNeighborInfo Topic[NeighborInfoEvent]
	OnPaxcount     Topic[PaxcountEvent]
	OnRouting      Topic[RoutingEvent]
	OnHardware     Topic[HardwareEvent]
	OnRawApp       Topic[RawAppEvent]
}

// New returns an empty Bus (exported for symmetry with the rest of the
// package constructors; the zero value works equally well).
func New() *Bus { return &Bus{} }
