package pb

import "google.golang.org/protobuf/encoding/protowire"

// Data is the decoded payload carried by a MeshPacket's Decoded oneof case.
type Data struct {
	Portnum      PortNum
	Payload      []byte
	WantResponse bool
	Dest         uint32
	Source       uint32
	RequestID    uint32
	ReplyID      uint32
	Emoji        uint32
}

func (d *Data) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(d.Portnum))
	b = appendBytesField(b, 2, d.Payload)
	b = appendBoolField(b, 3, d.WantResponse)
	b = appendVarintField(b, 4, uint64(d.Dest))
	b = appendVarintField(b, 5, uint64(d.Source))
	b = appendVarintField(b, 6, uint64(d.RequestID))
	b = appendVarintField(b, 7, uint64(d.ReplyID))
	b = appendVarintField(b, 8, uint64(d.Emoji))
	return b
}

func UnmarshalData(data []byte) (*Data, error) {
	d := &Data{}
	err := walkFields(data, "Data", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			d.Portnum = PortNum(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			d.Payload = v
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			d.WantResponse = v != 0
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			d.Dest = uint32(v)
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, b)
			d.Source = uint32(v)
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			d.RequestID = uint32(v)
			return n, err
		case 7:
			v, n, err := consumeVarint(typ, b)
			d.ReplyID = uint32(v)
			return n, err
		case 8:
			v, n, err := consumeVarint(typ, b)
			d.Emoji = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return d, err
}

// MeshPacket is the radio's smallest routable unit.
type MeshPacket struct {
	From      uint32
	To        uint32
	Channel   uint32
	ID        uint32
	WantAck   bool
	Priority  uint32
	RXTime    uint32
	Decoded   *Data  // oneof case 1
	Encrypted []byte // oneof case 2
}

func (m *MeshPacket) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(m.From))
	b = appendVarintField(b, 2, uint64(m.To))
	b = appendVarintField(b, 3, uint64(m.Channel))
	b = appendVarintField(b, 4, uint64(m.ID))
	b = appendBoolField(b, 5, m.WantAck)
	b = appendVarintField(b, 6, uint64(m.Priority))
	b = appendVarintField(b, 7, uint64(m.RXTime))
	if m.Decoded != nil {
		b = appendBytesField(b, 8, m.Decoded.Marshal())
	}
	if m.Encrypted != nil {
		b = appendBytesField(b, 9, m.Encrypted)
	}
	return b
}

func UnmarshalMeshPacket(data []byte) (*MeshPacket, error) {
	m := &MeshPacket{}
	err := walkFields(data, "MeshPacket", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			m.From = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			m.To = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			m.Channel = uint32(v)
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			m.ID = uint32(v)
			return n, err
		case 5:
			v, n, err := consumeVarint(typ, b)
			m.WantAck = v != 0
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			m.Priority = uint32(v)
			return n, err
		case 7:
			v, n, err := consumeVarint(typ, b)
			m.RXTime = uint32(v)
			return n, err
		case 8:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			d, derr := UnmarshalData(raw)
			if derr != nil {
				return n, derr
			}
			m.Decoded = d
			return n, nil
		case 9:
			v, n, err := consumeBytes(typ, b)
			m.Encrypted = v
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return m, err
}

// XModemControl is the XMODEM-style sub-protocol's control code, carried in
// the schema-level XModemPacket rather than as literal 1977 XMODEM bytes.
type XModemControl uint32

const (
	XModemNUL XModemControl = 0
	XModemSOH XModemControl = 1
	XModemSTX XModemControl = 2
	XModemEOT XModemControl = 4
	XModemACK XModemControl = 6
	XModemNAK XModemControl = 21
	XModemCAN XModemControl = 24
)

// XModemPacket is the in-band block-transfer control+data message.
type XModemPacket struct {
	Control XModemControl
	Seq     uint32
	Buffer  []byte
	CRC16   uint32
}

func (x *XModemPacket) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(x.Control))
	b = appendVarintField(b, 2, uint64(x.Seq))
	b = appendBytesField(b, 3, x.Buffer)
	b = appendVarintField(b, 4, uint64(x.CRC16))
	return b
}

func UnmarshalXModemPacket(data []byte) (*XModemPacket, error) {
	x := &XModemPacket{}
	err := walkFields(data, "XModemPacket", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(typ, b)
			x.Control = XModemControl(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			x.Seq = uint32(v)
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			x.Buffer = v
			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			x.CRC16 = uint32(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return x, err
}
