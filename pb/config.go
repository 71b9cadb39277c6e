package pb

import "google.golang.org/protobuf/encoding/protowire"

// ConfigType selects which device Config section a Config message carries.
type ConfigType uint32

const (
	ConfigTypeDevice ConfigType = iota
	ConfigTypePosition
	ConfigTypePower
	ConfigTypeNetwork
	ConfigTypeDisplay
	ConfigTypeLoRa
	ConfigTypeBluetooth
	ConfigTypeSecurity
)

// Config wraps one config section. The real schema nests a distinct
// message per section inside the oneof; here the section-specific payload
// stays opaque bytes (the session dispatches by Type, same as the rest of
// the administrative surface - the session has no need to interpret the
// section's internal fields beyond routing and display).
type Config struct {
	Type    ConfigType
	Payload []byte
}

func (c *Config) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(c.Type))
	b = appendBytesField(b, 2, c.Payload)
	return b
}

func UnmarshalConfig(data []byte) (*Config, error) {
	c := &Config{}
	err := walkFields(data, "Config", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			c.Type = ConfigType(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			c.Payload = v
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return c, err
}

// ModuleConfigType selects which module Config section a ModuleConfig
// message carries.
type ModuleConfigType uint32

const (
	ModuleConfigTypeMQTT ModuleConfigType = iota
	ModuleConfigTypeSerial
	ModuleConfigTypeExternalNotification
	ModuleConfigTypeStoreForward
	ModuleConfigTypeRangeTest
	ModuleConfigTypeTelemetry
	ModuleConfigTypeCannedMessage
	ModuleConfigTypeAudio
	ModuleConfigTypeRemoteHardware
	ModuleConfigTypeNeighborInfo
	ModuleConfigTypeAmbientLighting
	ModuleConfigTypeDetectionSensor
	ModuleConfigTypePaxcounter
)

type ModuleConfig struct {
	Type    ModuleConfigType
	Payload []byte
}

func (m *ModuleConfig) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(m.Type))
	b = appendBytesField(b, 2, m.Payload)
	return b
}

func UnmarshalModuleConfig(data []byte) (*ModuleConfig, error) {
	m := &ModuleConfig{}
	err := walkFields(data, "ModuleConfig", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			m.Type = ModuleConfigType(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			m.Payload = v
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return m, err
}

// ChannelRole mirrors the firmware's channel role enumeration.
type ChannelRole uint32

const (
	ChannelRoleDisabled ChannelRole = iota
	ChannelRolePrimary
	ChannelRoleSecondary
)

type ChannelSettings struct {
	Name       string
	PSK        []byte
	ChannelNum uint32
}

func (s *ChannelSettings) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, s.Name)
	b = appendBytesField(b, 2, s.PSK)
	b = appendVarintField(b, 3, uint64(s.ChannelNum))
	return b
}

func unmarshalChannelSettings(data []byte) (*ChannelSettings, error) {
	s := &ChannelSettings{}
	err := walkFields(data, "ChannelSettings", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			s.Name = string(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			s.PSK = v
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			s.ChannelNum = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return s, err
}

type Channel struct {
	Index    uint32
	Role     ChannelRole
	Settings *ChannelSettings
}

func (c *Channel) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(c.Index))
	b = appendVarintField(b, 2, uint64(c.Role))
	if c.Settings != nil {
		b = appendBytesField(b, 3, c.Settings.Marshal())
	}
	return b
}

func UnmarshalChannel(data []byte) (*Channel, error) {
	c := &Channel{}
	err := walkFields(data, "Channel", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			c.Index = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			c.Role = ChannelRole(v)
			return n, err
		case 3:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			s, serr := unmarshalChannelSettings(raw)
			if serr != nil {
				return n, serr
			}
			c.Settings = s
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
	return c, err
}

type MyNodeInfo struct {
	MyNodeNum    uint32
	RebootCount  uint32
	MinAppVersion uint32
}

func (m *MyNodeInfo) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(m.MyNodeNum))
	b = appendVarintField(b, 2, uint64(m.RebootCount))
	b = appendVarintField(b, 3, uint64(m.MinAppVersion))
	return b
}

func UnmarshalMyNodeInfo(data []byte) (*MyNodeInfo, error) {
	m := &MyNodeInfo{}
	err := walkFields(data, "MyNodeInfo", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			m.MyNodeNum = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			m.RebootCount = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			m.MinAppVersion = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return m, err
}

type NodeInfo struct {
	Num      uint32
	User     *User
	Position *Position
	SNR      float32
	LastHeard uint32
	Channel  uint32
}

func (n *NodeInfo) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(n.Num))
	if n.User != nil {
		b = appendBytesField(b, 2, n.User.Marshal())
	}
	if n.Position != nil {
		b = appendBytesField(b, 3, n.Position.Marshal())
	}
	b = appendFloat32Field(b, 4, n.SNR)
	b = appendVarintField(b, 5, uint64(n.LastHeard))
	b = appendVarintField(b, 6, uint64(n.Channel))
	return b
}

func UnmarshalNodeInfo(data []byte) (*NodeInfo, error) {
	n := &NodeInfo{}
	err := walkFields(data, "NodeInfo", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, nn, err := consumeVarint(typ, b)
			n.Num = uint32(v)
			return nn, err
		case 2:
			raw, nn, err := consumeBytes(typ, b)
			if err != nil {
				return nn, err
			}
			u, uerr := UnmarshalUser(raw)
			if uerr != nil {
				return nn, uerr
			}
			n.User = u
			return nn, nil
		case 3:
			raw, nn, err := consumeBytes(typ, b)
			if err != nil {
				return nn, err
			}
			p, perr := UnmarshalPosition(raw)
			if perr != nil {
				return nn, perr
			}
			n.Position = p
			return nn, nil
		case 4:
			v, nn, err := consumeFixed32(typ, b)
			n.SNR = float32frombits(v)
			return nn, err
		case 5:
			v, nn, err := consumeVarint(typ, b)
			n.LastHeard = uint32(v)
			return nn, err
		case 6:
			v, nn, err := consumeVarint(typ, b)
			n.Channel = uint32(v)
			return nn, err
		default:
			return skipField(typ, b)
		}
	})
	return n, err
}

type LogRecord struct {
	Message string
	Time    uint32
	Source  string
	Level   uint32
}

func (l *LogRecord) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, l.Message)
	b = appendVarintField(b, 2, uint64(l.Time))
	b = appendStringField(b, 3, l.Source)
	b = appendVarintField(b, 4, uint64(l.Level))
	return b
}

func UnmarshalLogRecord(data []byte) (*LogRecord, error) {
	l := &LogRecord{}
	err := walkFields(data, "LogRecord", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			l.Message = string(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			l.Time = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			l.Source = string(v)
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			l.Level = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return l, err
}

type QueueStatus struct {
	Res          int32
	Free         uint32
	Maxlen       uint32
	MeshPacketID uint32
}

func (q *QueueStatus) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(uint32(q.Res)))
	b = appendVarintField(b, 2, uint64(q.Free))
	b = appendVarintField(b, 3, uint64(q.Maxlen))
	b = appendVarintField(b, 4, uint64(q.MeshPacketID))
	return b
}

func UnmarshalQueueStatus(data []byte) (*QueueStatus, error) {
	q := &QueueStatus{}
	err := walkFields(data, "QueueStatus", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			q.Res = int32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			q.Free = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			q.Maxlen = uint32(v)
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			q.MeshPacketID = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return q, err
}

type DeviceMetadata struct {
	FirmwareVersion    string
	DeviceStateVersion uint32
	HasBluetooth       bool
	HasWifi            bool
	Role               uint32
	HwModel            uint32
}

func (m *DeviceMetadata) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, m.FirmwareVersion)
	b = appendVarintField(b, 2, uint64(m.DeviceStateVersion))
	b = appendBoolField(b, 3, m.HasBluetooth)
	b = appendBoolField(b, 4, m.HasWifi)
	b = appendVarintField(b, 5, uint64(m.Role))
	b = appendVarintField(b, 6, uint64(m.HwModel))
	return b
}

func UnmarshalDeviceMetadata(data []byte) (*DeviceMetadata, error) {
	m := &DeviceMetadata{}
	err := walkFields(data, "DeviceMetadata", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.FirmwareVersion = string(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			m.DeviceStateVersion = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			m.HasBluetooth = v != 0
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			m.HasWifi = v != 0
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, b)
			m.Role = uint32(v)
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			m.HwModel = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return m, err
}
