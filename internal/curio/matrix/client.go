// Package matrix connects Curio to Matrix report rooms.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Config holds Matrix client configuration
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string
	// Rooms are the room IDs where Curio answers report requests.
	Rooms []string
	// SyncState persists the sync token across restarts. When nil, an
	// in-memory store is used and room history replays on every restart.
	SyncState SyncState
}

// Client is Curio's connection to the homeserver.
type Client struct {
	client     *mautrix.Client
	config     *Config
	stopCh     chan struct{}
	msgHandler MessageHandler
}

// MessageHandler processes one incoming text message.
type MessageHandler func(ctx context.Context, roomID, senderID, body string)

// New creates a new Matrix client
func New(config *Config) (*Client, error) {
	client, err := mautrix.NewClient(config.Homeserver, id.UserID(config.UserID), config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Matrix client: %w", err)
	}

	if config.SyncState != nil {
		client.Store = NewSyncPosition(config.SyncState)
		slog.Info("Matrix sync store: using persistent SQLite store")
	} else {
		slog.Warn("Matrix sync store: no DB configured, using in-memory store (history will replay on restart)")
	}

	return &Client{
		client: client,
		config: config,
		stopCh: make(chan struct{}),
	}, nil
}

// Start joins the report rooms and begins syncing in the background.
func (c *Client) Start(ctx context.Context, handler MessageHandler) error {
	c.msgHandler = handler

	syncer := c.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, c.handleMessage)

	for _, roomID := range c.config.Rooms {
		if err := c.joinRoom(ctx, id.RoomID(roomID)); err != nil {
			return fmt.Errorf("failed to join room %s: %w", roomID, err)
		}
	}

	// Reconnect with exponential back-off; a transient homeserver error must
	// not leave the bot deaf.
	go func() {
		const (
			backoffMin = 2 * time.Second
			backoffMax = 5 * time.Minute
		)
		backoff := backoffMin
		for {
			err := c.client.Sync()
			if err == nil {
				return
			}
			select {
			case <-c.stopCh:
				return
			default:
			}
			slog.Error("Matrix sync stopped; reconnecting", "err", err, "backoff", backoff)
			select {
			case <-c.stopCh:
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, backoffMax)
		}
	}()

	return nil
}

// Stop ends the sync loop.
func (c *Client) Stop() {
	close(c.stopCh)
	c.client.StopSync()
}

// SendMessage posts plain text to a room.
func (c *Client) SendMessage(roomID, message string) error {
	return c.send(roomID, &event.MessageEventContent{MsgType: event.MsgText, Body: message})
}

// SendFormattedMessage posts HTML with a plain-text fallback.
func (c *Client) SendFormattedMessage(roomID, html, plaintext string) error {
	return c.send(roomID, &event.MessageEventContent{
		MsgType:       event.MsgText,
		Body:          plaintext,
		Format:        event.FormatHTML,
		FormattedBody: html,
	})
}

// SendNotice posts an m.notice, which clients render less prominently and
// bots do not answer.
func (c *Client) SendNotice(roomID, message string) error {
	return c.send(roomID, &event.MessageEventContent{MsgType: event.MsgNotice, Body: message})
}

func (c *Client) send(roomID string, content *event.MessageEventContent) error {
	if _, err := c.client.SendMessageEvent(context.Background(), id.RoomID(roomID), event.EventMessage, content); err != nil {
		return fmt.Errorf("send %s to %s: %w", content.MsgType, roomID, err)
	}
	return nil
}

// SetTyping sets the typing indicator
func (c *Client) SetTyping(roomID string, typing bool, timeout time.Duration) error {
	_, err := c.client.UserTyping(context.Background(), id.RoomID(roomID), typing, timeout)
	if err != nil {
		return fmt.Errorf("failed to set typing: %w", err)
	}
	return nil
}

// IsReportRoom reports whether roomID is one of the configured rooms.
func (c *Client) IsReportRoom(roomID string) bool {
	return slices.Contains(c.config.Rooms, roomID)
}

// UserID returns the bot's user ID
func (c *Client) UserID() string {
	return c.config.UserID
}

func (c *Client) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == id.UserID(c.config.UserID) {
		return
	}
	msg := evt.Content.AsMessage()
	if msg == nil || msg.MsgType != event.MsgText {
		return
	}
	if !c.IsReportRoom(evt.RoomID.String()) {
		return
	}
	if c.msgHandler != nil {
		c.msgHandler(ctx, evt.RoomID.String(), evt.Sender.String(), msg.Body)
	}
}

func (c *Client) joinRoom(ctx context.Context, roomID id.RoomID) error {
	_, err := c.client.JoinRoomByID(ctx, roomID)
	if err != nil {
		// M_FORBIDDEN is returned when the bot is already a member.
		if errors.Is(err, mautrix.MForbidden) {
			slog.Warn("joinRoom: already a member or access denied, continuing", "room", roomID)
			return nil
		}
		return err
	}
	return nil
}
