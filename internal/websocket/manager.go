package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notes-api/internal/domain"
	"notes-api/pkg/logger"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type Options struct {
	MaxConnPerUser int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// Manager tracks live connections per user and fans note events out to them.
// Registration and inbound messages are serialized through Run.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	registerCh     chan *Client
	unregisterCh   chan *Client
	inbound        chan *ClientMessage
	done           chan struct{}
	maxConnPerUser int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

func NewManager(opts Options) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		registerCh:     make(chan *Client),
		unregisterCh:   make(chan *Client),
		inbound:        make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnPerUser: opts.MaxConnPerUser,
		maxMessageSize: opts.MaxMessageSize,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run serves registrations and inbound messages until ctx is cancelled,
// then closes every connection.
func (m *Manager) Run(ctx context.Context) {
	defer m.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.registerCh:
			m.registerClient(client)

		case client := <-m.unregisterCh:
			m.unregisterClient(client)

		case clientMsg := <-m.inbound:
			m.processMessage(clientMsg)
		}
	}
}

// Register adds client. Once Run has stopped the client is closed instead.
func (m *Manager) Register(client *Client) {
	select {
	case m.registerCh <- client:
	case <-m.done:
		close(client.Send)
	}
}

func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregisterCh <- client:
	case <-m.done:
	}
}

func (m *Manager) handleMessage(msg *ClientMessage) {
	select {
	case m.inbound <- msg:
	case <-m.done:
	}
}

func (m *Manager) closeAll() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	close(m.done)
	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.userIndex = make(map[string]map[string]bool)
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if m.maxConnPerUser > 0 && len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		logger.Log.Warn().Str("user_id", client.UserID).Msg("max websocket connections reached")
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	logger.Log.Debug().Str("client_id", client.ID).Str("user_id", client.UserID).Msg("websocket client registered")
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		logger.Log.Debug().Str("client_id", client.ID).Msg("websocket client unregistered")
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		logger.Log.Debug().Err(err).Str("client_id", clientMsg.Client.ID).Msg("malformed websocket message")
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
			logger.Log.Warn().Err(err).Str("client_id", clientMsg.Client.ID).Msg("websocket message failed")
		}
	}
}

// BroadcastToUsers queues message for every connection of every user in
// userIDs. A client whose buffer is full is disconnected.
func (m *Manager) BroadcastToUsers(userIDs []string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client

	m.clientsMutex.RLock()
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		for clientID := range m.userIndex[userID] {
			client := m.clients[clientID]
			select {
			case client.Send <- messageBytes:
			default:
				slow = append(slow, client)
			}
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		logger.Log.Warn().Str("client_id", client.ID).Msg("websocket send buffer full, closing connection")
		go m.Unregister(client)
	}

	return nil
}

// Send queues message for a single client without blocking.
func (m *Manager) Send(client *Client, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if _, ok := m.clients[client.ID]; !ok {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		logger.Log.Warn().Str("client_id", client.ID).Msg("websocket send buffer full")
	}
	return nil
}

// NotifyNote publishes a note event to recipients.
func (m *Manager) NotifyNote(event domain.NoteEvent, note *domain.Note, recipients []string) {
	payload := NotePayload{NoteID: note.ID}
	if event != domain.NoteEventDeleted {
		payload.Note = note.ToResponse()
	}

	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		logger.Log.Error().Err(err).Str("note_id", note.ID).Msg("failed to encode note event")
		return
	}

	if err := m.BroadcastToUsers(recipients, msg); err != nil {
		logger.Log.Error().Err(err).Str("note_id", note.ID).Msg("failed to broadcast note event")
	}
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}
