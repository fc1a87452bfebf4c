package pop3

import (
	"context"
	"strings"
	"testing"

	"github.com/driftmail/popd/internal/metrics"
)

func noop() metrics.Collector {
	return &metrics.NoopCollector{}
}

func TestListCommand(t *testing.T) {
	cmd := &listCommand{collector: noop()}

	t.Run("rejected outside Transaction", func(t *testing.T) {
		resp, _ := cmd.Execute(context.Background(), NewSession(), testLogger{}, nil)
		if resp.OK || resp.Message != "Session not in Transaction state" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("lists all messages", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, err := cmd.Execute(context.Background(), sess, testLogger{}, nil)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !resp.OK || resp.Message != "3 messages (600 octets)" {
			t.Errorf("resp = %+v", resp)
		}
		want := []string{"1 200", "2 300", "3 100"}
		if !stringSlicesEqual(resp.Lines, want) {
			t.Errorf("Lines = %v, want %v", resp.Lines, want)
		}
	})

	t.Run("single message", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"2"})
		if !resp.OK || resp.Message != "2 300" {
			t.Errorf("resp = %+v", resp)
		}
		if len(resp.Lines) != 0 {
			t.Errorf("single-message LIST must not be multi-line, got %v", resp.Lines)
		}
	})

	t.Run("deleted messages are filtered", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		if err := sess.Mailbox().MarkDeleted(1); err != nil {
			t.Fatalf("MarkDeleted: %v", err)
		}

		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, nil)
		if !resp.OK || resp.Message != "2 messages (400 octets)" {
			t.Errorf("resp = %+v", resp)
		}
		want := []string{"2 300", "3 100"}
		if !stringSlicesEqual(resp.Lines, want) {
			t.Errorf("Lines = %v, want %v", resp.Lines, want)
		}

		single, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		if single.OK {
			t.Errorf("LIST of deleted message must fail, got %+v", single)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		for _, arg := range []string{"0", "4"} {
			resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{arg})
			if resp.OK || resp.Message != "No such message" {
				t.Errorf("LIST %s: resp = %+v", arg, resp)
			}
		}
	})

	t.Run("non-numeric argument", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"abc"})
		if resp.OK || !strings.HasPrefix(resp.Message, "error parsing ID:") {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestRetrCommand(t *testing.T) {
	store := newMockMailStore()
	cmd := &retrCommand{store: store, collector: noop()}

	t.Run("rejected outside Transaction", func(t *testing.T) {
		resp, _ := cmd.Execute(context.Background(), NewSession(), testLogger{}, []string{"1"})
		if resp.OK || resp.Message != "Session not in Transaction state" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("retrieves message content", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, err := cmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !resp.OK || resp.Message != "200 octets" {
			t.Errorf("resp = %+v", resp)
		}
		want := []string{"Subject: Test 1", "", "Body line 1", "Body line 2"}
		if !stringSlicesEqual(resp.Lines, want) {
			t.Errorf("Lines = %v, want %v", resp.Lines, want)
		}
	})

	t.Run("leading-dot lines reach the formatter unstuffed", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"2"})
		if !resp.OK {
			t.Fatalf("resp = %+v", resp)
		}
		if resp.Lines[2] != ".starts with dot" {
			t.Errorf("Lines[2] = %q, stuffing belongs to the formatter", resp.Lines[2])
		}
		if !strings.Contains(resp.String(), "\r\n..starts with dot\r\n") {
			t.Error("formatted response must dot-stuff the payload")
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, nil)
		if resp.OK || resp.Message != "RETR requires mail id" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("deleted message", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		_ = sess.Mailbox().MarkDeleted(1)
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		if resp.OK || resp.Message != "Message already deleted" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("store read failure keeps the session alive", func(t *testing.T) {
		broken := newMockMailStore()
		broken.readErr = context.DeadlineExceeded
		brokenCmd := &retrCommand{store: broken, collector: noop()}

		sess := transactionSession(t, NewLockTable())
		resp, err := brokenCmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		if err != nil {
			t.Fatalf("store errors must become -ERR replies, got %v", err)
		}
		if resp.OK {
			t.Errorf("resp = %+v, want -ERR", resp)
		}
		if sess.State() != StateTransaction {
			t.Errorf("State = %v, session must survive a RETR failure", sess.State())
		}
	})
}

func TestDeleCommand(t *testing.T) {
	cmd := &deleCommand{collector: noop()}

	t.Run("marks message deleted", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		if !resp.OK || resp.Message != "message 1 deleted" {
			t.Errorf("resp = %+v", resp)
		}
		if sess.Mailbox().Count() != 2 {
			t.Errorf("Count = %d, want 2", sess.Mailbox().Count())
		}
	})

	t.Run("double delete", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		_, _ = cmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		if resp.OK || resp.Message != "Message already deleted" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("zero ordinal is out of range", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"0"})
		if resp.OK || resp.Message != "No such message" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, nil)
		if resp.OK || resp.Message != "DELE requires mail id" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("huge ordinal is out of range", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, []string{"18446744073709551615"})
		if resp.OK || resp.Message != "No such message" {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestRsetCommand(t *testing.T) {
	cmd := &rsetCommand{}
	list := &listCommand{collector: noop()}

	t.Run("rejected outside Transaction", func(t *testing.T) {
		resp, _ := cmd.Execute(context.Background(), NewSession(), testLogger{}, nil)
		if resp.OK || resp.Message != "Session not in Transaction state" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("restores the snapshot listing", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())

		before, _ := list.Execute(context.Background(), sess, testLogger{}, nil)

		dele := &deleCommand{collector: noop()}
		_, _ = dele.Execute(context.Background(), sess, testLogger{}, []string{"1"})
		_, _ = dele.Execute(context.Background(), sess, testLogger{}, []string{"2"})

		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, nil)
		if !resp.OK {
			t.Errorf("resp = %+v", resp)
		}

		after, _ := list.Execute(context.Background(), sess, testLogger{}, nil)
		if before.Message != after.Message || !stringSlicesEqual(before.Lines, after.Lines) {
			t.Errorf("LIST after RSET = %+v, want %+v", after, before)
		}
	})
}

func TestNoopCommand(t *testing.T) {
	cmd := &noopCommand{}

	t.Run("rejected outside Transaction", func(t *testing.T) {
		resp, _ := cmd.Execute(context.Background(), NewSession(), testLogger{}, nil)
		if resp.OK || resp.Message != "Session not in Transaction state" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("replies OK in Transaction", func(t *testing.T) {
		sess := transactionSession(t, NewLockTable())
		resp, _ := cmd.Execute(context.Background(), sess, testLogger{}, nil)
		if !resp.OK || resp.Message != "NOOP" {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestSplitMessageLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "CRLF endings",
			content: "a\r\nb\r\n",
			want:    []string{"a", "b"},
		},
		{
			name:    "bare LF endings",
			content: "a\nb\n",
			want:    []string{"a", "b"},
		},
		{
			name:    "no trailing newline",
			content: "a\nb",
			want:    []string{"a", "b"},
		},
		{
			name:    "empty interior line",
			content: "a\n\nb\n",
			want:    []string{"a", "", "b"},
		},
		{
			name:    "empty content",
			content: "",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessageLines(tt.content)
			if !stringSlicesEqual(got, tt.want) {
				t.Errorf("splitMessageLines(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
