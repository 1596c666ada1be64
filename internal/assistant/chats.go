package assistant

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"civicvoice/api/internal/store"
	"civicvoice/api/internal/util"
)

// DefaultDelay is how long the bot waits before answering.
const DefaultDelay = 800 * time.Millisecond

const (
	RoleBot  = "bot"
	RoleUser = "user"
)

var (
	ErrChatNotFound = &store.Error{Kind: store.KindNotFound, Code: "CHAT_NOT_FOUND", Message: "chat not found"}
	ErrEmptyMessage = &store.Error{Kind: store.KindValidation, Code: "EMPTY_MESSAGE", Message: "message text is required"}

	// ErrShutDown is returned by Open and Send once Shutdown has run.
	ErrShutDown = errors.New("assistant: chats are shut down")
)

type Message struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func() bool)

func timerScheduler(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// Chats owns every open chat transcript. Bot replies are scheduled per chat
// and cancelled when the chat closes, so a reply never lands in a closed or
// reopened transcript.
type Chats struct {
	mu       sync.Mutex
	delay    time.Duration
	schedule Scheduler
	now      func() time.Time
	chats    map[string]*chat
	closed   bool
}

type chat struct {
	ownerID  string
	messages []Message
	pending  map[uint64]func() bool
	nextSeq  uint64
}

func NewChats(delay time.Duration) *Chats {
	return NewChatsWithScheduler(delay, timerScheduler)
}

func NewChatsWithScheduler(delay time.Duration, schedule Scheduler) *Chats {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Chats{
		delay:    delay,
		schedule: schedule,
		now:      time.Now,
		chats:    make(map[string]*chat),
	}
}

// Open starts a chat for ownerID and returns its id and greeting transcript.
func (c *Chats) Open(ownerID string) (string, []Message, error) {
	id := util.NewID("chat")
	greeting := Message{Role: RoleBot, Text: Greeting, At: c.now().UTC()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", nil, ErrShutDown
	}
	c.chats[id] = &chat{
		ownerID:  ownerID,
		messages: []Message{greeting},
		pending:  make(map[uint64]func() bool),
	}
	return id, []Message{greeting}, nil
}

// Send appends the user's message and schedules the bot reply. Blank text is
// rejected with ErrEmptyMessage.
func (c *Chats) Send(ctx context.Context, chatID, ownerID, text string) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Message{}, ErrShutDown
	}
	current, err := c.lookupLocked(chatID, ownerID)
	if err != nil {
		return Message{}, err
	}
	msg := Message{Role: RoleUser, Text: text, At: c.now().UTC()}
	current.messages = append(current.messages, msg)

	reply := Respond(text)
	seq := current.nextSeq
	current.nextSeq++
	current.pending[seq] = c.schedule(c.delay, func() {
		c.deliver(chatID, current, seq, reply)
	})
	return msg, nil
}

func (c *Chats) deliver(chatID string, target *chat, seq uint64, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A closed or reopened chat no longer maps to target.
	if c.chats[chatID] != target {
		return
	}
	if _, ok := target.pending[seq]; !ok {
		return
	}
	delete(target.pending, seq)
	target.messages = append(target.messages, Message{Role: RoleBot, Text: reply, At: c.now().UTC()})
}

// Transcript returns a copy of the chat's messages in order.
func (c *Chats) Transcript(chatID, ownerID string) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.lookupLocked(chatID, ownerID)
	if err != nil {
		return nil, err
	}
	return append([]Message(nil), current.messages...), nil
}

// Pending reports how many replies are still scheduled for the chat.
func (c *Chats) Pending(chatID, ownerID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.lookupLocked(chatID, ownerID)
	if err != nil {
		return 0, err
	}
	return len(current.pending), nil
}

// Close cancels pending replies and discards the transcript.
func (c *Chats) Close(chatID, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.lookupLocked(chatID, ownerID)
	if err != nil {
		return err
	}
	current.cancelAll()
	delete(c.chats, chatID)
	return nil
}

// Shutdown cancels every pending reply and drops all chats.
func (c *Chats) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, current := range c.chats {
		current.cancelAll()
		delete(c.chats, id)
	}
	log.Printf("assistant: chats shut down")
}

func (c *Chats) lookupLocked(chatID, ownerID string) (*chat, error) {
	current, ok := c.chats[chatID]
	if !ok || current.ownerID != ownerID {
		return nil, ErrChatNotFound
	}
	return current, nil
}

func (ch *chat) cancelAll() {
	for seq, cancel := range ch.pending {
		cancel()
		delete(ch.pending, seq)
	}
}
