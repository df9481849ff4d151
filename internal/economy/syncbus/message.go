package syncbus

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
)

// ErrMalformedMessage 無法解碼的訊息
var ErrMalformedMessage = errors.New("malformed sync message")

const (
	fieldKind   protowire.Number = 1
	fieldID     protowire.Number = 2
	fieldOrigin protowire.Number = 3
)

// Message 跨實例的變更通知。
// 只帶種類與 ID，不帶變更後的值；接收端必須從持久層重新讀取。
type Message struct {
	Kind   ports.ChangeKind
	ID     uuid.UUID
	Origin string // 發送實例的 ID，用於略過自己發出的訊息
}

// Marshal 以 protobuf wire format 編碼
//
//	message SyncMessage {
//	  uint32 kind   = 1;
//	  bytes  id     = 2;
//	  string origin = 3;
//	}
func (m Message) Marshal() []byte {
	b := make([]byte, 0, 24+len(m.Origin))
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Kind))
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.ID[:])
	if m.Origin != "" {
		b = protowire.AppendTag(b, fieldOrigin, protowire.BytesType)
		b = protowire.AppendString(b, m.Origin)
	}
	return b
}

// Unmarshal 解碼訊息；未知欄位會被略過
func Unmarshal(data []byte) (Message, error) {
	var m Message
	var hasKind, hasID bool

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: kind: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			m.Kind = ports.ChangeKind(v)
			hasKind = true
			data = data[n:]
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: id: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return Message{}, fmt.Errorf("%w: id: %v", ErrMalformedMessage, err)
			}
			m.ID = id
			hasID = true
			data = data[n:]
		case num == fieldOrigin && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: origin: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			m.Origin = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if !hasKind || !hasID {
		return Message{}, fmt.Errorf("%w: missing kind or id", ErrMalformedMessage)
	}
	return m, nil
}
