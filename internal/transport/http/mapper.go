package http

import (
	"encoding/json"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/relay"
)

func inboundToCommand(inbound proto.Inbound) (*relay.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin, proto.InboundTypeLeave:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "invalid " + inbound.Type + " payload"}
		}
		if err := join.Validate(); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: err.Error()}
		}
		if _, _, err := chat.ParseRoomID(join.Room); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: err.Error()}
		}
		kind := relay.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeave {
			kind = relay.CommandLeaveRoom
		}
		return &relay.Command{
			Kind: kind,
			Room: join.Room,
		}, nil
	case proto.InboundTypeSend:
		var data proto.MessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidMessage, Msg: "invalid message payload"}
		}
		msg, err := data.ToMessage()
		if err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidMessage, Msg: err.Error()}
		}
		return &relay.Command{
			Kind:    relay.CommandSendMessage,
			Room:    msg.Room,
			Message: msg,
		}, nil
	default:
		return nil, &proto.Error{Code: relay.ErrCodeInvalidMessage, Msg: proto.ErrUnknownInbound.Error()}
	}
}

func outboundFromEvent(event *relay.Event) (proto.Outbound, error) {
	switch event.Kind {
	case relay.EventReceiveMessage:
		return proto.NewEvent(proto.EventReceiveMessage, proto.FromMessage(event.Message))
	case relay.EventError:
		if event.Error == nil {
			return proto.NewError("unknown", "unknown error"), nil
		}
		return proto.NewError(event.Error.Code, event.Error.Message), nil
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}, nil
	}
}
