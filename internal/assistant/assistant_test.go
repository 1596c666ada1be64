package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestRespond(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		input string
		want  string
	}{
		{input: "How do I REPORT a pothole?", want: rules[0].reply},
		{input: "can I vote twice", want: rules[1].reply},
		{input: "I need support", want: rules[1].reply},
		{input: "track my issue", want: rules[2].reply},
		{input: "which Category fits?", want: rules[3].reply},
		{input: "help", want: rules[4].reply},
		{input: "who do I contact", want: rules[5].reply},
		{input: "hello there", want: DefaultReply},
		{input: "", want: DefaultReply},
	}
	for _, tt := range tests {
		c.Run(tt.input, func(c *qt.C) {
			c.Assert(Respond(tt.input), qt.Equals, tt.want)
		})
	}
}

func TestRespondCategoriesMatchKnownCategories(t *testing.T) {
	c := qt.New(t)
	c.Assert(Respond("category"), qt.Not(qt.Contains), "Vandalism")
}

type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	fn      func()
	stopped bool
}

func (m *manualScheduler) schedule(_ time.Duration, fn func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{fn: fn}
	m.tasks = append(m.tasks, task)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		wasPending := !task.stopped
		task.stopped = true
		return wasPending
	}
}

// fireAll runs every task as if its timer had expired, including stopped
// ones, to simulate a timer racing with cancellation.
func (m *manualScheduler) fireAll() {
	m.mu.Lock()
	tasks := append([]*manualTask(nil), m.tasks...)
	m.tasks = nil
	m.mu.Unlock()
	for _, task := range tasks {
		task.fn()
	}
}

func TestChatReplyArrivesAfterScheduledDelay(t *testing.T) {
	c := qt.New(t)
	sched := &manualScheduler{}
	chats := NewChatsWithScheduler(DefaultDelay, sched.schedule)

	id, transcript, err := chats.Open("usr_priya")
	c.Assert(err, qt.IsNil)
	c.Assert(transcript, qt.HasLen, 1)
	c.Assert(transcript[0].Text, qt.Equals, Greeting)

	_, err = chats.Send(context.Background(), id, "usr_priya", "how do I vote?")
	c.Assert(err, qt.IsNil)

	transcript, err = chats.Transcript(id, "usr_priya")
	c.Assert(err, qt.IsNil)
	c.Assert(transcript, qt.HasLen, 2)
	c.Assert(transcript[1].Role, qt.Equals, RoleUser)

	sched.fireAll()

	transcript, err = chats.Transcript(id, "usr_priya")
	c.Assert(err, qt.IsNil)
	c.Assert(transcript, qt.HasLen, 3)
	c.Assert(transcript[2].Role, qt.Equals, RoleBot)
	c.Assert(transcript[2].Text, qt.Equals, rules[1].reply)

	pending, err := chats.Pending(id, "usr_priya")
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.Equals, 0)
}

func TestClosedChatNeverReceivesReply(t *testing.T) {
	c := qt.New(t)
	sched := &manualScheduler{}
	chats := NewChatsWithScheduler(DefaultDelay, sched.schedule)

	id, _, err := chats.Open("usr_amit")
	c.Assert(err, qt.IsNil)
	_, err = chats.Send(context.Background(), id, "usr_amit", "report")
	c.Assert(err, qt.IsNil)
	c.Assert(chats.Close(id, "usr_amit"), qt.IsNil)

	sched.fireAll()

	_, err = chats.Transcript(id, "usr_amit")
	c.Assert(err, qt.ErrorIs, ErrChatNotFound)
}

func TestChatRejectsBlankAndForeignAccess(t *testing.T) {
	c := qt.New(t)
	chats := NewChatsWithScheduler(DefaultDelay, (&manualScheduler{}).schedule)
	id, _, err := chats.Open("usr_sneha")
	c.Assert(err, qt.IsNil)

	_, err = chats.Send(context.Background(), id, "usr_sneha", "   ")
	c.Assert(err, qt.ErrorIs, ErrEmptyMessage)

	_, err = chats.Send(context.Background(), id, "usr_rajesh", "hello")
	c.Assert(err, qt.ErrorIs, ErrChatNotFound)

	c.Assert(chats.Close(id, "usr_rajesh"), qt.ErrorIs, ErrChatNotFound)
}

func TestShutdownCancelsRealTimers(t *testing.T) {
	c := qt.New(t)
	chats := NewChats(20 * time.Millisecond)
	id, _, err := chats.Open("usr_admin")
	c.Assert(err, qt.IsNil)
	_, err = chats.Send(context.Background(), id, "usr_admin", "status")
	c.Assert(err, qt.IsNil)

	chats.Shutdown()
	time.Sleep(60 * time.Millisecond)

	_, err = chats.Transcript(id, "usr_admin")
	c.Assert(err, qt.ErrorIs, ErrChatNotFound)
}

func TestShutdownRefusesNewWork(t *testing.T) {
	c := qt.New(t)
	sched := &manualScheduler{}
	chats := NewChatsWithScheduler(DefaultDelay, sched.schedule)
	id, _, err := chats.Open("usr_priya")
	c.Assert(err, qt.IsNil)

	chats.Shutdown()

	_, _, err = chats.Open("usr_priya")
	c.Assert(err, qt.ErrorIs, ErrShutDown)
	_, err = chats.Send(context.Background(), id, "usr_priya", "hello")
	c.Assert(err, qt.ErrorIs, ErrShutDown)
	c.Assert(sched.tasks, qt.HasLen, 0)
}
