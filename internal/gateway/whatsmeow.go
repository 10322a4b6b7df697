// Package gateway adapts the whatsmeow client to the narrow transport
// surface the rest of the system consumes.
package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/mattn/go-sqlite3"
)

// EventHandler receives the transport lifecycle and message events.
type EventHandler interface {
	OnPairingChallenge(code string)
	OnAuthenticated()
	OnReady()
	OnDisconnected(reason string)
	OnMessage(contactID, name, body string)
}

// Gateway owns the whatsmeow client and its sqlite-backed device
// store. It implements the responder's Sender interface.
type Gateway struct {
	client  *whatsmeow.Client
	handler EventHandler
	log     zerolog.Logger
}

// New opens the device store at dbPath and builds the client. The
// event handler must be set before Connect.
func New(ctx context.Context, dbPath string, log zerolog.Logger) (*Gateway, error) {
	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New(ctx, "sqlite3", dbPath, dbLog)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	g := &Gateway{
		client: whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "ERROR", true)),
		log:    log.With().Str("component", "gateway").Logger(),
	}
	g.client.AddEventHandler(g.handleEvent)
	return g, nil
}

// SetHandler wires the event consumer. Must be called before Connect.
func (g *Gateway) SetHandler(h EventHandler) {
	g.handler = h
}

// Paired reports whether the device store already holds credentials.
func (g *Gateway) Paired() bool {
	return g.client.Store.ID != nil
}

// Connect dials the transport. On an unpaired device it first starts
// draining the QR channel, forwarding each fresh code as a pairing
// challenge; whatsmeow requires the channel to be requested before the
// socket connects.
func (g *Gateway) Connect() error {
	if !g.Paired() {
		qrChan, err := g.client.GetQRChannel(context.Background())
		if err != nil {
			g.log.Warn().Err(err).Msg("QR channel unavailable")
		} else {
			go func() {
				for evt := range qrChan {
					if evt.Event == "code" {
						g.handler.OnPairingChallenge(evt.Code)
					}
				}
			}()
		}
	}
	if err := g.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect closes the socket.
func (g *Gateway) Disconnect() {
	g.client.Disconnect()
}

// SendTyping shows the "composing" chat presence to the contact.
func (g *Gateway) SendTyping(ctx context.Context, contactID string) error {
	jid, err := types.ParseJID(contactID)
	if err != nil {
		return fmt.Errorf("parse jid %q: %w", contactID, err)
	}
	return g.client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

// SendText delivers a plain text message to the contact.
func (g *Gateway) SendText(ctx context.Context, contactID, body string) error {
	jid, err := types.ParseJID(contactID)
	if err != nil {
		return fmt.Errorf("parse jid %q: %w", contactID, err)
	}
	_, err = g.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &body,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (g *Gateway) handleEvent(evt interface{}) {
	if g.handler == nil {
		return
	}
	switch v := evt.(type) {
	case *events.PairSuccess:
		g.handler.OnAuthenticated()
	case *events.Connected:
		// On an already-paired device there is no PairSuccess; the
		// socket coming up is the authentication signal.
		g.handler.OnAuthenticated()
		g.handler.OnReady()
	case *events.Disconnected:
		g.handler.OnDisconnected("disconnected")
	case *events.LoggedOut:
		g.handler.OnDisconnected(fmt.Sprintf("logout: %v", v.Reason))
	case *events.StreamError:
		g.handler.OnDisconnected(fmt.Sprintf("stream error: %s", v.Code))
	case *events.Message:
		g.handleMessage(v)
	}
}

func (g *Gateway) handleMessage(v *events.Message) {
	if v.Info.IsFromMe || v.Info.Chat.User == "status" || v.Info.IsGroup {
		return
	}

	var text string
	if v.Message.GetConversation() != "" {
		text = v.Message.GetConversation()
	} else if v.Message.GetExtendedTextMessage() != nil {
		text = v.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return
	}

	g.handler.OnMessage(v.Info.Chat.String(), v.Info.PushName, text)
}

