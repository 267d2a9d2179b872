package handlers

import (
	"github.com/Araz9999/naxtap-sub005/service/realtime"
	"github.com/Araz9999/naxtap-sub005/tools/decode"
	"github.com/Araz9999/naxtap-sub005/tools/errs"
)

type RoomJoinHandler struct{}

func NewRoomJoinHandler() realtime.Handler { return &RoomJoinHandler{} }

func (h *RoomJoinHandler) Type() realtime.EventType { return realtime.EvtRoomJoin }

func (h *RoomJoinHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	p, err := decode.Payload[realtime.RoomPayload](data)
	if err != nil || p.RoomID == "" {
		return errs.ErrBadPayload.WithDetail("roomId required")
	}
	ctx.S.Rooms().Join(conn.ID, p.RoomID)
	return nil
}

type RoomLeaveHandler struct{}

func NewRoomLeaveHandler() realtime.Handler { return &RoomLeaveHandler{} }

func (h *RoomLeaveHandler) Type() realtime.EventType { return realtime.EvtRoomLeave }

func (h *RoomLeaveHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	p, err := decode.Payload[realtime.RoomPayload](data)
	if err != nil || p.RoomID == "" {
		return errs.ErrBadPayload.WithDetail("roomId required")
	}
	ctx.S.Rooms().Leave(conn.ID, p.RoomID)
	return nil
}
