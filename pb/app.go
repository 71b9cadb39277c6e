package pb

import "google.golang.org/protobuf/encoding/protowire"

// Position is the decoded payload of a POSITION_APP packet.
type Position struct {
	LatitudeI     int32 // degrees * 1e7
	LongitudeI    int32
	Altitude      int32
	Time          uint32
	PDOP          uint32
	GroundSpeed   uint32
	GroundTrack   uint32
	SatsInView    uint32
	PrecisionBits uint32
}

func (p *Position) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(uint32(p.LatitudeI)))
	b = appendVarintField(b, 2, uint64(uint32(p.LongitudeI)))
	b = appendVarintField(b, 3, uint64(uint32(p.Altitude)))
	b = appendVarintField(b, 4, uint64(p.Time))
	b = appendVarintField(b, 5, uint64(p.PDOP))
	b = appendVarintField(b, 6, uint64(p.GroundSpeed))
	b = appendVarintField(b, 7, uint64(p.GroundTrack))
	b = appendVarintField(b, 8, uint64(p.SatsInView))
	b = appendVarintField(b, 9, uint64(p.PrecisionBits))
	return b
}

func UnmarshalPosition(data []byte) (*Position, error) {
	p := &Position{}
	err := walkFields(data, "Position", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			p.LatitudeI = int32(uint32(v))
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			p.LongitudeI = int32(uint32(v))
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			p.Altitude = int32(uint32(v))
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			p.Time = uint32(v)
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, b)
			p.PDOP = uint32(v)
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			p.GroundSpeed = uint32(v)
			return n, err
		case 7:
			v, n, err := consumeVarint(typ, b)
			p.GroundTrack = uint32(v)
			return n, err
		case 8:
			v, n, err := consumeVarint(typ, b)
			p.SatsInView = uint32(v)
			return n, err
		case 9:
			v, n, err := consumeVarint(typ, b)
			p.PrecisionBits = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return p, err
}

// User is the decoded payload of a USER_APP packet, and the embedded user
// record inside NodeInfo.
type User struct {
	ID         string
	LongName   string
	ShortName  string
	HwModel    uint32
	IsLicensed bool
}

func (u *User) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, u.ID)
	b = appendStringField(b, 2, u.LongName)
	b = appendStringField(b, 3, u.ShortName)
	b = appendVarintField(b, 4, uint64(u.HwModel))
	b = appendBoolField(b, 5, u.IsLicensed)
	return b
}

func UnmarshalUser(data []byte) (*User, error) {
	u := &User{}
	err := walkFields(data, "User", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			u.ID = string(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			u.LongName = string(v)
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			u.ShortName = string(v)
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			u.HwModel = uint32(v)
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, b)
			u.IsLicensed = v != 0
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return u, err
}

// Waypoint is the decoded payload of a WAYPOINT_APP packet.
type Waypoint struct {
	ID          uint32
	LatitudeI   int32
	LongitudeI  int32
	Expire      uint32
	LockedTo    uint32
	Name        string
	Description string
	Icon        uint32
}

func (w *Waypoint) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(w.ID))
	b = appendVarintField(b, 2, uint64(uint32(w.LatitudeI)))
	b = appendVarintField(b, 3, uint64(uint32(w.LongitudeI)))
	b = appendVarintField(b, 4, uint64(w.Expire))
	b = appendVarintField(b, 5, uint64(w.LockedTo))
	b = appendStringField(b, 6, w.Name)
	b = appendStringField(b, 7, w.Description)
	b = appendVarintField(b, 8, uint64(w.Icon))
	return b
}

func UnmarshalWaypoint(data []byte) (*Waypoint, error) {
	w := &Waypoint{}
	err := walkFields(data, "Waypoint", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			w.ID = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			w.LatitudeI = int32(uint32(v))
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			w.LongitudeI = int32(uint32(v))
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			w.Expire = uint32(v)
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, b)
			w.LockedTo = uint32(v)
			return n, err
		case 6:
			v, n, err := consumeBytes(typ, b)
			w.Name = string(v)
			return n, err
		case 7:
			v, n, err := consumeBytes(typ, b)
			w.Description = string(v)
			return n, err
		case 8:
			v, n, err := consumeVarint(typ, b)
			w.Icon = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return w, err
}

// Telemetry is the decoded payload of a TELEMETRY_APP packet. Only the
// device-metrics subset the session surfaces is modeled; the rest of the
// real schema's oneof (environment, power, air-quality metrics) is left as
// unparsed bytes in Raw for callers that need it.
type Telemetry struct {
	Time           uint32
	BatteryLevel   uint32
	Voltage        float32
	ChannelUtil    float32
	AirUtilTX      float32
	Raw            []byte
}

func (t *Telemetry) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(t.Time))
	b = appendVarintField(b, 2, uint64(t.BatteryLevel))
	b = appendFloat32Field(b, 3, t.Voltage)
	b = appendFloat32Field(b, 4, t.ChannelUtil)
	b = appendFloat32Field(b, 5, t.AirUtilTX)
	b = appendBytesField(b, 15, t.Raw)
	return b
}

func UnmarshalTelemetry(data []byte) (*Telemetry, error) {
	t := &Telemetry{Raw: data}
	err := walkFields(data, "Telemetry", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			t.Time = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			t.BatteryLevel = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeFixed32(typ, b)
			t.Voltage = float32frombits(v)
			return n, err
		case 4:
			v, n, err := consumeFixed32(typ, b)
			t.ChannelUtil = float32frombits(v)
			return n, err
		case 5:
			v, n, err := consumeFixed32(typ, b)
			t.AirUtilTX = float32frombits(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return t, err
}

// TraceRoute is the decoded payload of a TRACEROUTE_APP packet (both the
// outbound request, which carries an empty Route, and the reply).
type TraceRoute struct {
	Route []uint32
}

func (r *TraceRoute) Marshal() []byte {
	var b []byte
	for _, hop := range r.Route {
		b = appendVarintField(b, 1, uint64(hop))
	}
	return b
}

func UnmarshalTraceRoute(data []byte) (*TraceRoute, error) {
	r := &TraceRoute{}
	err := walkFields(data, "TraceRoute", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			if err == nil {
				r.Route = append(r.Route, uint32(v))
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return r, err
}

// Neighbor is one entry of a NeighborInfo packet.
type Neighbor struct {
	NodeID uint32
	SNR    float32
}

// NeighborInfo is the decoded payload of a NEIGHBORINFO_APP packet.
type NeighborInfo struct {
	NodeID                    uint32
	LastSentByID              uint32
	NodeBroadcastIntervalSecs uint32
	Neighbors                 []Neighbor
}

func (ni *NeighborInfo) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(ni.NodeID))
	b = appendVarintField(b, 2, uint64(ni.LastSentByID))
	b = appendVarintField(b, 3, uint64(ni.NodeBroadcastIntervalSecs))
	for _, nb := range ni.Neighbors {
		var nbb []byte
		nbb = appendVarintField(nbb, 1, uint64(nb.NodeID))
		nbb = appendFloat32Field(nbb, 2, nb.SNR)
		b = appendBytesField(b, 4, nbb)
	}
	return b
}

func UnmarshalNeighborInfo(data []byte) (*NeighborInfo, error) {
	ni := &NeighborInfo{}
	err := walkFields(data, "NeighborInfo", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			ni.NodeID = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			ni.LastSentByID = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			ni.NodeBroadcastIntervalSecs = uint32(v)
			return n, err
		case 4:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			var nb Neighbor
			nerr := walkFields(raw, "Neighbor", func(nnum protowire.Number, ntyp protowire.Type, nb2 []byte) (int, error) {
				switch nnum {
				case 1:
					v, nn, err := consumeVarint(ntyp, nb2)
					nb.NodeID = uint32(v)
					return nn, err
				case 2:
					v, nn, err := consumeFixed32(ntyp, nb2)
					nb.SNR = float32frombits(v)
					return nn, err
				default:
					return skipField(ntyp, nb2)
				}
			})
			if nerr != nil {
				return n, nerr
			}
			ni.Neighbors = append(ni.Neighbors, nb)
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
	return ni, err
}

// Paxcount is the decoded payload of a PAXCOUNTER_APP packet.
type Paxcount struct {
	WifiCount uint32
	BleCount  uint32
	Uptime    uint32
}

func (p *Paxcount) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(p.WifiCount))
	b = appendVarintField(b, 2, uint64(p.BleCount))
	b = appendVarintField(b, 3, uint64(p.Uptime))
	return b
}

func UnmarshalPaxcount(data []byte) (*Paxcount, error) {
	p := &Paxcount{}
	err := walkFields(data, "Paxcount", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			p.WifiCount = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			p.BleCount = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			p.Uptime = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return p, err
}

// RoutingErrorReason is the error_reason enum the radio attaches to a
// Routing message's errorReason oneof case (spec.md §4.4.5).
type RoutingErrorReason uint32

const (
	RoutingErrorNone           RoutingErrorReason = 0
	RoutingErrorNoRoute        RoutingErrorReason = 1
	RoutingErrorGotNak         RoutingErrorReason = 2
	RoutingErrorTimeout        RoutingErrorReason = 3
	RoutingErrorNoInterface    RoutingErrorReason = 4
	RoutingErrorMaxRetransmit  RoutingErrorReason = 5
	RoutingErrorNoChannel      RoutingErrorReason = 6
	RoutingErrorTooLarge       RoutingErrorReason = 7
	RoutingErrorNoResponse     RoutingErrorReason = 8
	RoutingErrorDutyCycleLimit RoutingErrorReason = 9
	RoutingErrorBadRequest     RoutingErrorReason = 32
	RoutingErrorNotAuthorized  RoutingErrorReason = 33
)

// RoutingVariant distinguishes Routing's oneof cases.
type RoutingVariant int

const (
	RoutingVariantNone RoutingVariant = iota
	RoutingVariantRequest
	RoutingVariantReply
	RoutingVariantErrorReason
)

// Routing is the decoded payload of a ROUTING_APP packet.
type Routing struct {
	Variant     RoutingVariant
	Request     []byte
	Reply       []byte
	ErrorReason RoutingErrorReason
}

func (r *Routing) Marshal() []byte {
	var b []byte
	switch r.Variant {
	case RoutingVariantRequest:
		b = appendBytesField(b, 1, r.Request)
	case RoutingVariantReply:
		b = appendBytesField(b, 2, r.Reply)
	case RoutingVariantErrorReason:
		dst := protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(dst, uint64(r.ErrorReason))
	}
	return b
}

func UnmarshalRouting(data []byte) (*Routing, error) {
	r := &Routing{}
	err := walkFields(data, "Routing", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			r.Variant, r.Request = RoutingVariantRequest, v
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			r.Variant, r.Reply = RoutingVariantReply, v
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			r.Variant, r.ErrorReason = RoutingVariantErrorReason, RoutingErrorReason(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return r, err
}

// HardwareMessage is the decoded payload of a REMOTE_HARDWARE_APP packet.
// The real schema's GPIO get/set/watch oneof is not needed by the session
// core (remote-hardware requests are a host-application concern layered on
// top), so it stays opaque.
type HardwareMessage struct {
	Type uint32
	Raw  []byte
}
