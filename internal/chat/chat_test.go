package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestRegistryRegisterAndList(t *testing.T) {
	r := NewRegistry()

	alice := r.Register("c1", "alice", epoch)
	r.Register("c2", "bob", epoch.Add(time.Second))
	r.Register("c3", "alice", epoch.Add(2*time.Second))

	assert.Equal(t, "c1", alice.ID)
	assert.True(t, alice.IsOnline)
	assert.Equal(t, epoch, alice.JoinedAt)

	users := r.List()
	require.Len(t, users, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{users[0].ID, users[1].ID, users[2].ID})
	assert.Equal(t, "alice", users[2].Username, "duplicate usernames are allowed")
}

func TestRegistryReRegisterOverwritesInPlace(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "alice", epoch)
	r.Register("c2", "bob", epoch)
	r.Register("c1", "alicia", epoch.Add(time.Minute))

	users := r.List()
	require.Len(t, users, 2)
	assert.Equal(t, "c1", users[0].ID)
	assert.Equal(t, "alicia", users[0].Username)
	assert.Equal(t, epoch.Add(time.Minute), users[0].JoinedAt)
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "alice", epoch)
	r.Register("c2", "bob", epoch)

	user, ok := r.Unregister("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)

	_, ok = r.Unregister("c1")
	assert.False(t, ok, "second unregister must report absence")

	_, ok = r.Unregister("never-joined")
	assert.False(t, ok)

	users := r.List()
	require.Len(t, users, 1)
	assert.Equal(t, "c2", users[0].ID)
	assert.Equal(t, 1, r.Len())
}

func TestLogKeepsMostRecent(t *testing.T) {
	l := NewLog(HistoryLimit)
	for i := 1; i <= 101; i++ {
		l.Append(Message{ID: fmt.Sprint(i), Text: fmt.Sprintf("msg %d", i)})
	}

	snapshot := l.Snapshot()
	require.Len(t, snapshot, HistoryLimit)
	assert.Equal(t, "msg 2", snapshot[0].Text)
	assert.Equal(t, "msg 101", snapshot[len(snapshot)-1].Text)
	for i, msg := range snapshot {
		assert.Equal(t, fmt.Sprint(i+2), msg.ID)
	}
}

func TestLogNeverExceedsLimit(t *testing.T) {
	l := NewLog(5)
	for i := 0; i < 50; i++ {
		l.Append(Message{Text: fmt.Sprint(i)})
		assert.LessOrEqual(t, l.Len(), 5)
	}
	assert.Equal(t, []string{"45", "46", "47", "48", "49"}, texts(l.Snapshot()))
}

func TestLogSnapshotIsIsolated(t *testing.T) {
	l := NewLog(3)
	l.Append(Message{Text: "a"})
	l.Append(Message{Text: "b"})

	snapshot := l.Snapshot()
	snapshot[0].Text = "mutated"
	l.Append(Message{Text: "c"})
	l.Append(Message{Text: "d"})

	assert.Equal(t, []string{"mutated", "b"}, texts(snapshot))
	assert.Equal(t, []string{"b", "c", "d"}, texts(l.Snapshot()))
}

func TestNewLogDefaultsLimit(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < HistoryLimit+10; i++ {
		l.Append(Message{})
	}
	assert.Equal(t, HistoryLimit, l.Len())
}

func TestNewMessage(t *testing.T) {
	user := User{ID: "c1", Username: "alice"}
	msg := NewMessage(user, "hi", epoch)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, "c1", msg.UserID)
	assert.Equal(t, epoch, msg.Timestamp)
	assert.True(t, msg.Delivered)
	assert.False(t, msg.IsNotice())
}

func TestNewNotice(t *testing.T) {
	msg := NewNotice("alice joined the chat", epoch)
	assert.True(t, msg.IsNotice())
	assert.Equal(t, SystemUserID, msg.UserID)
	assert.Equal(t, SystemUsername, msg.Username)
}

func TestMessageIDsAreTimeOrdered(t *testing.T) {
	first := NewMessageID()
	time.Sleep(2 * time.Millisecond)
	second := NewMessageID()

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestTypingStartStop(t *testing.T) {
	s := NewTypingSet()
	s.Start("bob")

	before := s.List()
	s.Start("alice")
	s.Stop("alice")
	assert.Equal(t, before, s.List(), "start then stop leaves the set unchanged")

	s.Start("bob")
	assert.Equal(t, []string{"bob"}, s.List(), "start is idempotent")

	s.Stop("carol")
	assert.Equal(t, []string{"bob"}, s.List(), "stop on an absent name is a no-op")

	assert.True(t, s.Contains("bob"))
	s.Stop("bob")
	assert.False(t, s.Contains("bob"))
	assert.Empty(t, s.List())
}

func TestTypingListOrder(t *testing.T) {
	s := NewTypingSet()
	s.Start("carol")
	s.Start("alice")
	s.Start("bob")
	s.Stop("alice")

	list := s.List()
	assert.Equal(t, []string{"carol", "bob"}, list)

	list[0] = "mutated"
	assert.Equal(t, []string{"carol", "bob"}, s.List())
}

func texts(messages []Message) []string {
	out := make([]string, len(messages))
	for i, msg := range messages {
		out[i] = msg.Text
	}
	return out
}
