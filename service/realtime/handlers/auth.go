package handlers

import (
	"github.com/Araz9999/naxtap-sub005/logger"
	"github.com/Araz9999/naxtap-sub005/service/realtime"
	"github.com/Araz9999/naxtap-sub005/tools/decode"
	"github.com/Araz9999/naxtap-sub005/tools/errs"
	"go.uber.org/zap"
)

type AuthHandler struct{}

func NewAuthHandler() realtime.Handler { return &AuthHandler{} }

func (h *AuthHandler) Type() realtime.EventType { return realtime.EvtAuthenticate }

// Handle verifies the presented token against the auth collaborator, binds
// the identity to the connection, and fires the presence check. The token's
// subject must match the claimed user id; anything else leaves the connection
// unauthenticated.
func (h *AuthHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	p, err := decode.Payload[realtime.AuthPayload](data)
	if err != nil {
		return errs.ErrBadPayload.WithDetail(err.Error())
	}
	if p.Token == "" || p.UserID == "" {
		return errs.ErrBadPayload.WithDetail("token and userId required")
	}

	subject, verr := ctx.S.Verifier().Verify(p.Token)
	if verr != nil {
		logger.Warn("[auth] token rejected", zap.String("conn_id", conn.ID), zap.Error(verr))
		return &errs.ErrBadToken
	}
	if subject != p.UserID {
		logger.Warn("[auth] subject mismatch",
			zap.String("conn_id", conn.ID), zap.String("claimed", p.UserID), zap.String("subject", subject))
		return errs.ErrBadToken.WithDetail("token subject mismatch")
	}

	first, aerr := ctx.S.Registry().Authenticate(conn.ID, subject)
	if aerr != nil {
		return aerr
	}

	ctx.S.Ack(conn, realtime.EvtAuthenticated, realtime.BuildAuthAck(subject, conn.ID))
	ctx.S.Presence().HandleAuthenticated(subject, first)
	return nil
}
