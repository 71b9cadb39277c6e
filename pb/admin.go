package pb

import "google.golang.org/protobuf/encoding/protowire"

// AdminVariant distinguishes AdminMessage's oneof cases. The real schema's
// admin oneof has dozens of cases; this models exactly the ones
// spec.md §4.4.1 names as session operations.
type AdminVariant int

const (
	AdminNone AdminVariant = iota
	AdminSetOwner
	AdminSetChannel
	AdminSetConfig
	AdminSetModuleConfig
	AdminSetCannedMessages
	AdminGetChannelRequest
	AdminGetChannelResponse
	AdminGetOwnerRequest
	AdminGetOwnerResponse
	AdminGetConfigRequest
	AdminGetConfigResponse
	AdminGetModuleConfigRequest
	AdminGetModuleConfigResponse
	AdminGetDeviceMetadataRequest
	AdminGetDeviceMetadataResponse
	AdminBeginEditSettings
	AdminCommitEditSettings
	AdminRebootSeconds
	AdminRebootOtaSeconds
	AdminShutdownSeconds
	AdminFactoryResetDevice
	AdminFactoryResetConfig
	AdminEnterDfuModeRequest
	AdminNodeDBReset
	AdminRemoveByNodenum
	AdminSetPosition
)

// AdminMessage is the decoded payload of an ADMIN_APP packet.
type AdminMessage struct {
	Variant AdminVariant

	SetOwner               *User
	SetChannel             *Channel
	SetConfig              *Config
	SetModuleConfig        *ModuleConfig
	SetCannedMessages      string
	GetChannelIndexPlusOne uint32 // index+1; 0 means unset
	GetChannelResponse     *Channel
	GetConfigTypePlusOne   uint32
	GetConfigResponse      *Config
	GetModuleConfigTypePlusOne uint32
	GetModuleConfigResponse    *ModuleConfig
	GetOwnerResponse           *User
	GetDeviceMetadataResponse  *DeviceMetadata
	Seconds                    int32
	RemoveByNodenum            uint32
	SetPosition                *Position
}

func (a *AdminMessage) Marshal() []byte {
	var b []byte
	switch a.Variant {
	case AdminSetOwner:
		b = appendBytesField(b, 1, a.SetOwner.Marshal())
	case AdminSetChannel:
		b = appendBytesField(b, 2, a.SetChannel.Marshal())
	case AdminSetConfig:
		b = appendBytesField(b, 3, a.SetConfig.Marshal())
	case AdminSetModuleConfig:
		b = appendBytesField(b, 4, a.SetModuleConfig.Marshal())
	case AdminSetCannedMessages:
		b = appendStringField(b, 5, a.SetCannedMessages)
	case AdminGetChannelRequest:
		b = appendVarintField(b, 6, uint64(a.GetChannelIndexPlusOne))
	case AdminGetChannelResponse:
		b = appendBytesField(b, 7, a.GetChannelResponse.Marshal())
	case AdminGetOwnerRequest:
		b = appendBoolField(b, 8, true)
	case AdminGetOwnerResponse:
		b = appendBytesField(b, 9, a.GetOwnerResponse.Marshal())
	case AdminGetConfigRequest:
		b = appendVarintField(b, 10, uint64(a.GetConfigTypePlusOne))
	case AdminGetConfigResponse:
		b = appendBytesField(b, 11, a.GetConfigResponse.Marshal())
	case AdminGetModuleConfigRequest:
		b = appendVarintField(b, 12, uint64(a.GetModuleConfigTypePlusOne))
	case AdminGetModuleConfigResponse:
		b = appendBytesField(b, 13, a.GetModuleConfigResponse.Marshal())
	case AdminGetDeviceMetadataRequest:
		b = appendBoolField(b, 14, true)
	case AdminGetDeviceMetadataResponse:
		b = appendBytesField(b, 15, a.GetDeviceMetadataResponse.Marshal())
	case AdminBeginEditSettings:
		b = appendBoolField(b, 16, true)
	case AdminCommitEditSettings:
		b = appendBoolField(b, 17, true)
	case AdminRebootSeconds:
		b = appendVarintField(b, 18, uint64(uint32(a.Seconds)))
	case AdminRebootOtaSeconds:
		b = appendVarintField(b, 19, uint64(uint32(a.Seconds)))
	case AdminShutdownSeconds:
		b = appendVarintField(b, 20, uint64(uint32(a.Seconds)))
	case AdminFactoryResetDevice:
		b = appendBoolField(b, 21, true)
	case AdminFactoryResetConfig:
		b = appendBoolField(b, 22, true)
	case AdminEnterDfuModeRequest:
		b = appendBoolField(b, 23, true)
	case AdminNodeDBReset:
		b = appendBoolField(b, 24, true)
	case AdminRemoveByNodenum:
		b = appendVarintField(b, 25, uint64(a.RemoveByNodenum))
	case AdminSetPosition:
		b = appendBytesField(b, 26, a.SetPosition.Marshal())
	}
	return b
}

func UnmarshalAdminMessage(data []byte) (*AdminMessage, error) {
	a := &AdminMessage{}
	err := walkFields(data, "AdminMessage", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalUser(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.SetOwner = AdminSetOwner, v
			return n, nil
		case 2:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalChannel(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.SetChannel = AdminSetChannel, v
			return n, nil
		case 3:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalConfig(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.SetConfig = AdminSetConfig, v
			return n, nil
		case 4:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalModuleConfig(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.SetModuleConfig = AdminSetModuleConfig, v
			return n, nil
		case 5:
			v, n, err := consumeBytes(typ, b)
			a.Variant, a.SetCannedMessages = AdminSetCannedMessages, string(v)
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.GetChannelIndexPlusOne = AdminGetChannelRequest, uint32(v)
			return n, err
		case 7:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalChannel(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.GetChannelResponse = AdminGetChannelResponse, v
			return n, nil
		case 8:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminGetOwnerRequest
			return n, err
		case 9:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalUser(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.GetOwnerResponse = AdminGetOwnerResponse, v
			return n, nil
		case 10:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.GetConfigTypePlusOne = AdminGetConfigRequest, uint32(v)
			return n, err
		case 11:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalConfig(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.GetConfigResponse = AdminGetConfigResponse, v
			return n, nil
		case 12:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.GetModuleConfigTypePlusOne = AdminGetModuleConfigRequest, uint32(v)
			return n, err
		case 13:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalModuleConfig(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.GetModuleConfigResponse = AdminGetModuleConfigResponse, v
			return n, nil
		case 14:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminGetDeviceMetadataRequest
			return n, err
		case 15:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalDeviceMetadata(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.GetDeviceMetadataResponse = AdminGetDeviceMetadataResponse, v
			return n, nil
		case 16:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminBeginEditSettings
			return n, err
		case 17:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminCommitEditSettings
			return n, err
		case 18:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.Seconds = AdminRebootSeconds, int32(uint32(v))
			return n, err
		case 19:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.Seconds = AdminRebootOtaSeconds, int32(uint32(v))
			return n, err
		case 20:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.Seconds = AdminShutdownSeconds, int32(uint32(v))
			return n, err
		case 21:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminFactoryResetDevice
			return n, err
		case 22:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminFactoryResetConfig
			return n, err
		case 23:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminEnterDfuModeRequest
			return n, err
		case 24:
			_, n, err := consumeVarint(typ, b)
			a.Variant = AdminNodeDBReset
			return n, err
		case 25:
			v, n, err := consumeVarint(typ, b)
			a.Variant, a.RemoveByNodenum = AdminRemoveByNodenum, uint32(v)
			return n, err
		case 26:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			v, verr := UnmarshalPosition(raw)
			if verr != nil {
				return n, verr
			}
			a.Variant, a.SetPosition = AdminSetPosition, v
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
	return a, err
}
