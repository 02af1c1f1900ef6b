package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/relay"
)

// WSHandler upgrades HTTP connections and bridges them to relay.Client.
type WSHandler struct {
	hub             *relay.Hub
	log             *zerolog.Logger
	maxMessageBytes int64
	rateLimit       int
	sendBuffer      int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *relay.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:             hub,
		log:             logger,
		maxMessageBytes: cfg.MaxMessageBytes,
		rateLimit:       cfg.RateLimitPerMinute,
		sendBuffer:      cfg.SendBuffer,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	client := relay.NewClient(uuid.NewString(), h.sendBuffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	h.log.Info().Str("client_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *relay.Client) error {
	limiter := newRateLimiter(h.rateLimit, time.Minute, time.Now)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			if err := h.reply(ctx, conn, relay.ErrCodeRateLimited, "too many messages"); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("malformed ws frame")
			if err := h.reply(ctx, conn, relay.ErrCodeInvalidMessage, "malformed frame"); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.log.Debug().Str("client_id", client.ID).Str("code", protoErr.Code).Msg(protoErr.Msg)
			if err := h.reply(ctx, conn, protoErr.Code, protoErr.Msg); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *relay.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			outbound, err := outboundFromEvent(event)
			if err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("encode ws event")
				continue
			}
			if err := wsjson.Write(ctx, conn, outbound); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) reply(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.NewError(code, msg))
}
