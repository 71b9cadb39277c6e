package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshPacketRoundTrip(t *testing.T) {
	mp := &MeshPacket{
		From: 100, To: 200, Channel: 3, ID: 555, WantAck: true, Priority: 7, RXTime: 1700000000,
		Decoded: &Data{
			Portnum: PortTextMessageApp, Payload: []byte("hello"), WantResponse: true,
			Dest: 200, Source: 100, RequestID: 9, ReplyID: 0, Emoji: 1,
		},
	}

	got, err := UnmarshalMeshPacket(mp.Marshal())
	require.NoError(t, err)
	assert.Equal(t, mp.From, got.From)
	assert.Equal(t, mp.To, got.To)
	assert.Equal(t, mp.Channel, got.Channel)
	assert.Equal(t, mp.ID, got.ID)
	assert.Equal(t, mp.WantAck, got.WantAck)
	assert.Equal(t, mp.RXTime, got.RXTime)
	require.NotNil(t, got.Decoded)
	assert.Equal(t, mp.Decoded.Portnum, got.Decoded.Portnum)
	assert.Equal(t, mp.Decoded.Payload, got.Decoded.Payload)
	assert.Equal(t, mp.Decoded.RequestID, got.Decoded.RequestID)
}

func TestMeshPacketEncryptedRoundTrip(t *testing.T) {
	mp := &MeshPacket{From: 1, To: 2, ID: 3, Encrypted: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	got, err := UnmarshalMeshPacket(mp.Marshal())
	require.NoError(t, err)
	assert.Nil(t, got.Decoded)
	assert.Equal(t, mp.Encrypted, got.Encrypted)
}

func TestToRadioPacketVariantRoundTrip(t *testing.T) {
	mp := &MeshPacket{From: 10, To: 20, ID: 30}
	tr := &ToRadio{Packet: mp}

	got, err := UnmarshalToRadio(tr.Marshal())
	require.NoError(t, err)
	require.NotNil(t, got.Packet)
	assert.Equal(t, uint32(10), got.Packet.From)
	assert.Zero(t, got.WantConfigID)
	assert.False(t, got.Disconnect)
}

func TestToRadioWantConfigIDVariantRoundTrip(t *testing.T) {
	tr := &ToRadio{WantConfigID: 123456}
	got, err := UnmarshalToRadio(tr.Marshal())
	require.NoError(t, err)
	assert.Nil(t, got.Packet)
	assert.Equal(t, uint32(123456), got.WantConfigID)
}

func TestFromRadioMyInfoVariantRoundTrip(t *testing.T) {
	fr := &FromRadio{Variant: FromRadioMyInfo, MyInfo: &MyNodeInfo{MyNodeNum: 42, RebootCount: 2}}
	got, err := UnmarshalFromRadio(fr.Marshal())
	require.NoError(t, err)
	assert.Equal(t, FromRadioMyInfo, got.Variant)
	require.NotNil(t, got.MyInfo)
	assert.Equal(t, uint32(42), got.MyInfo.MyNodeNum)
}

func TestFromRadioConfigCompleteIDVariantRoundTrip(t *testing.T) {
	fr := &FromRadio{Variant: FromRadioConfigCompleteID, ConfigCompleteID: 999}
	got, err := UnmarshalFromRadio(fr.Marshal())
	require.NoError(t, err)
	assert.Equal(t, FromRadioConfigCompleteID, got.Variant)
	assert.Equal(t, uint32(999), got.ConfigCompleteID)
}

func TestAdminMessageSetOwnerRoundTrip(t *testing.T) {
	a := &AdminMessage{
		Variant:  AdminSetOwner,
		SetOwner: &User{ID: "!abc123", LongName: "Base Station", ShortName: "BASE"},
	}
	got, err := UnmarshalAdminMessage(a.Marshal())
	require.NoError(t, err)
	assert.Equal(t, AdminSetOwner, got.Variant)
	require.NotNil(t, got.SetOwner)
	assert.Equal(t, "Base Station", got.SetOwner.LongName)
}

func TestAdminMessageGetChannelRequestRoundTrip(t *testing.T) {
	a := &AdminMessage{Variant: AdminGetChannelRequest, GetChannelIndexPlusOne: 3}
	got, err := UnmarshalAdminMessage(a.Marshal())
	require.NoError(t, err)
	assert.Equal(t, AdminGetChannelRequest, got.Variant)
	assert.Equal(t, uint32(3), got.GetChannelIndexPlusOne)
}

func TestRoutingErrorReasonRoundTrip(t *testing.T) {
	r := &Routing{Variant: RoutingVariantErrorReason, ErrorReason: RoutingErrorNoRoute}
	got, err := UnmarshalRouting(r.Marshal())
	require.NoError(t, err)
	assert.Equal(t, RoutingVariantErrorReason, got.Variant)
	assert.Equal(t, RoutingErrorNoRoute, got.ErrorReason)
}

func TestPositionRoundTrip(t *testing.T) {
	p := &Position{LatitudeI: 476205000, LongitudeI: -1223493000, Altitude: 56, Time: 1700000000}
	got, err := UnmarshalPosition(p.Marshal())
	require.NoError(t, err)
	assert.Equal(t, p.LatitudeI, got.LatitudeI)
	assert.Equal(t, p.LongitudeI, got.LongitudeI)
	assert.Equal(t, p.Altitude, got.Altitude)
}

func TestXModemPacketRoundTrip(t *testing.T) {
	x := &XModemPacket{Control: XModemSOH, Seq: 4, Buffer: []byte("block-data"), CRC16: 0xABCD}
	got, err := UnmarshalXModemPacket(x.Marshal())
	require.NoError(t, err)
	assert.Equal(t, x.Control, got.Control)
	assert.Equal(t, x.Seq, got.Seq)
	assert.Equal(t, x.Buffer, got.Buffer)
	assert.Equal(t, x.CRC16, got.CRC16)
}
