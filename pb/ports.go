package pb

// PortNum identifies the application multiplexed on top of a decoded
// MeshPacket payload (Data.Portnum).
type PortNum uint32

const (
	PortUnknown          PortNum = 0
	PortTextMessageApp   PortNum = 1
	PortRemoteHardware   PortNum = 2
	PortPosition         PortNum = 3
	PortUser             PortNum = 4
	PortRouting          PortNum = 5
	PortAdmin            PortNum = 6
	PortTextMessageCompr PortNum = 7
	PortWaypoint         PortNum = 8
	PortAudio            PortNum = 9
	PortDetectionSensor  PortNum = 10
	PortReply            PortNum = 32
	PortIPTunnel         PortNum = 33
	PortPaxcounter       PortNum = 34
	PortSerial           PortNum = 64
	PortStoreForward     PortNum = 65
	PortRangeTest        PortNum = 66
	PortTelemetry        PortNum = 67
	PortZPS              PortNum = 68
	PortSimulator        PortNum = 69
	PortTraceRoute       PortNum = 70
	PortNeighborInfo     PortNum = 71
	PortATAK             PortNum = 72
	PortMapReport        PortNum = 73
	PortPrivate          PortNum = 256
	PortATAKForwarder    PortNum = 257
)

func (p PortNum) String() string {
	switch p {
	case PortTextMessageApp:
		return "TEXT_MESSAGE_APP"
	case PortRemoteHardware:
		return "REMOTE_HARDWARE_APP"
	case PortPosition:
		return "POSITION_APP"
	case PortUser:
		return "USER_APP"
	case PortRouting:
		return "ROUTING_APP"
	case PortAdmin:
		return "ADMIN_APP"
	case PortWaypoint:
		return "WAYPOINT_APP"
	case PortAudio:
		return "AUDIO_APP"
	case PortDetectionSensor:
		return "DETECTION_SENSOR_APP"
	case PortReply:
		return "REPLY_APP"
	case PortIPTunnel:
		return "IP_TUNNEL_APP"
	case PortPaxcounter:
		return "PAXCOUNTER_APP"
	case PortSerial:
		return "SERIAL_APP"
	case PortStoreForward:
		return "STORE_FORWARD_APP"
	case PortRangeTest:
		return "RANGE_TEST_APP"
	case PortTelemetry:
		return "TELEMETRY_APP"
	case PortZPS:
		return "ZPS_APP"
	case PortSimulator:
		return "SIMULATOR_APP"
	case PortTraceRoute:
		return "TRACEROUTE_APP"
	case PortNeighborInfo:
		return "NEIGHBORINFO_APP"
	case PortATAK:
		return "ATAK_PLUGIN"
	case PortMapReport:
		return "MAP_REPORT_APP"
	case PortPrivate:
		return "PRIVATE_APP"
	case PortATAKForwarder:
		return "ATAK_FORWARDER"
	default:
		return "UNKNOWN_APP"
	}
}
