package pb

import "google.golang.org/protobuf/encoding/protowire"

// ToRadio is a host->radio message. Exactly one field is set per instance,
// mirroring the real schema's oneof.
type ToRadio struct {
	Packet       *MeshPacket
	WantConfigID uint32
	Disconnect   bool
	XModemPacket *XModemPacket
}

func (t *ToRadio) Marshal() []byte {
	var b []byte
	switch {
	case t.Packet != nil:
		b = appendBytesField(b, 1, t.Packet.Marshal())
	case t.WantConfigID != 0:
		b = appendVarintField(b, 3, uint64(t.WantConfigID))
	case t.Disconnect:
		b = appendBoolField(b, 4, true)
	case t.XModemPacket != nil:
		b = appendBytesField(b, 5, t.XModemPacket.Marshal())
	}
	return b
}

func UnmarshalToRadio(data []byte) (*ToRadio, error) {
	t := &ToRadio{}
	err := walkFields(data, "ToRadio", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			p, perr := UnmarshalMeshPacket(raw)
			if perr != nil {
				return n, perr
			}
			t.Packet = p
			return n, nil
		case 3:
			v, n, err := consumeVarint(typ, b)
			t.WantConfigID = uint32(v)
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			t.Disconnect = v != 0
			return n, err
		case 5:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			x, xerr := UnmarshalXModemPacket(raw)
			if xerr != nil {
				return n, xerr
			}
			t.XModemPacket = x
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
	return t, err
}

// FromRadioVariant identifies which oneof case a FromRadio carries, so the
// session demultiplexer (spec.md §4.4.3) can switch without a type
// assertion chain.
type FromRadioVariant int

const (
	FromRadioUnknown FromRadioVariant = iota
	FromRadioPacket
	FromRadioMyInfo
	FromRadioNodeInfo
	FromRadioConfig
	FromRadioLogRecord
	FromRadioConfigCompleteID
	FromRadioRebooted
	FromRadioModuleConfig
	FromRadioChannel
	FromRadioQueueStatus
	FromRadioXModemPacket
	FromRadioMetadata
	FromRadioMQTTClientProxyMessage
)

// FromRadio is a radio->host message.
type FromRadio struct {
	Variant FromRadioVariant

	Packet                  *MeshPacket
	MyInfo                  *MyNodeInfo
	NodeInfo                *NodeInfo
	Config                  *Config
	LogRecord               *LogRecord
	ConfigCompleteID        uint32
	Rebooted                bool
	ModuleConfig            *ModuleConfig
	Channel                 *Channel
	QueueStatus             *QueueStatus
	XModemPacket            *XModemPacket
	Metadata                *DeviceMetadata
	MQTTClientProxyMessage  []byte
}

func (f *FromRadio) Marshal() []byte {
	var b []byte
	switch f.Variant {
	case FromRadioPacket:
		b = appendBytesField(b, 2, f.Packet.Marshal())
	case FromRadioMyInfo:
		b = appendBytesField(b, 3, f.MyInfo.Marshal())
	case FromRadioNodeInfo:
		b = appendBytesField(b, 4, f.NodeInfo.Marshal())
	case FromRadioConfig:
		b = appendBytesField(b, 5, f.Config.Marshal())
	case FromRadioLogRecord:
		b = appendBytesField(b, 6, f.LogRecord.Marshal())
	case FromRadioConfigCompleteID:
		b = appendVarintField(b, 7, uint64(f.ConfigCompleteID))
	case FromRadioRebooted:
		b = appendBoolField(b, 8, true)
	case FromRadioModuleConfig:
		b = appendBytesField(b, 9, f.ModuleConfig.Marshal())
	case FromRadioChannel:
		b = appendBytesField(b, 10, f.Channel.Marshal())
	case FromRadioQueueStatus:
		b = appendBytesField(b, 11, f.QueueStatus.Marshal())
	case FromRadioXModemPacket:
		b = appendBytesField(b, 12, f.XModemPacket.Marshal())
	case FromRadioMetadata:
		b = appendBytesField(b, 13, f.Metadata.Marshal())
	case FromRadioMQTTClientProxyMessage:
		b = appendBytesField(b, 14, f.MQTTClientProxyMessage)
	}
	return b
}

func UnmarshalFromRadio(data []byte) (*FromRadio, error) {
	f := &FromRadio{}
	err := walkFields(data, "FromRadio", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 2:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			p, perr := UnmarshalMeshPacket(raw)
			if perr != nil {
				return n, perr
			}
			f.Variant, f.Packet = FromRadioPacket, p
			return n, nil
		case 3:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalMyNodeInfo(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.MyInfo = FromRadioMyInfo, v
			return n, nil
		case 4:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalNodeInfo(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.NodeInfo = FromRadioNodeInfo, v
			return n, nil
		case 5:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalConfig(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.Config = FromRadioConfig, v
			return n, nil
		case 6:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalLogRecord(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.LogRecord = FromRadioLogRecord, v
			return n, nil
		case 7:
			v, n, err := consumeVarint(typ, b)
			f.Variant, f.ConfigCompleteID = FromRadioConfigCompleteID, uint32(v)
			return n, err
		case 8:
			v, n, err := consumeVarint(typ, b)
			f.Variant, f.Rebooted = FromRadioRebooted, v != 0
			return n, err
		case 9:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalModuleConfig(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.ModuleConfig = FromRadioModuleConfig, v
			return n, nil
		case 10:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalChannel(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.Channel = FromRadioChannel, v
			return n, nil
		case 11:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalQueueStatus(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.QueueStatus = FromRadioQueueStatus, v
			return n, nil
		case 12:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalXModemPacket(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.XModemPacket = FromRadioXModemPacket, v
			return n, nil
		case 13:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalDeviceMetadata(raw)
			if verr != nil {
				return n, verr
			}
			f.Variant, f.Metadata = FromRadioMetadata, v
			return n, nil
		case 14:
			raw, n, err := consumeBytes(typ, b)
			f.Variant, f.MQTTClientProxyMessage = FromRadioMQTTClientProxyMessage, raw
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return f, err
}
