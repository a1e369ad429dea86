// ABOUTME: Unit tests for Gmail filtering logic
// ABOUTME: Tests query building, message filtering, and address parsing
package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func message(headers map[string]string) *gmail.Message {
	part := &gmail.MessagePart{}
	for name, value := range headers {
		part.Headers = append(part.Headers, &gmail.MessagePartHeader{Name: name, Value: value})
	}
	return &gmail.Message{Id: "m-" + headers["Subject"], Payload: part}
}

func TestBuildHighSignalQuery(t *testing.T) {
	tests := []struct {
		since time.Time
		want  string
	}{
		{
			since: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:  "(from:me is:replied) OR (to:me is:replied) OR is:starred after:2024/01/15 -in:spam -in:trash",
		},
		{
			since: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
			want:  "(from:me is:replied) OR (to:me is:replied) OR is:starred after:2024/03/05 -in:spam -in:trash",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildHighSignalQuery(tt.since))
	}
}

func TestIsHighSignalEmail(t *testing.T) {
	tests := []struct {
		name    string
		message *gmail.Message
		wantOk  bool
		wantMsg string
	}{
		{"nil message", nil, false, "nil message"},
		{
			name: "automated sender",
			message: message(map[string]string{
				"From": "noreply@zillow.com", "To": "me@example.com", "Subject": "New listing",
			}),
			wantMsg: "automated sender",
		},
		{
			name: "group email",
			message: message(map[string]string{
				"From":    "agent@example.com",
				"To":      "a@x.com, b@x.com, c@x.com",
				"Cc":      "d@x.com, e@x.com",
				"Subject": "Open house",
			}),
			wantMsg: "group email (5 recipients)",
		},
		{
			name: "calendar invite",
			message: message(map[string]string{
				"From": "buyer@example.com", "To": "me@example.com", "Subject": "Invitation: Showing at 12 Elm",
			}),
			wantMsg: "calendar invite",
		},
		{
			name: "auto-generated subject",
			message: message(map[string]string{
				"From": "buyer@example.com", "To": "me@example.com", "Subject": "Out of office: back Monday",
			}),
			wantMsg: "auto-generated subject",
		},
		{
			name: "real conversation",
			message: message(map[string]string{
				"From": "Jane Buyer <jane@example.com>", "To": "me@example.com", "Subject": "Offer on Elm St",
			}),
			wantOk: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := IsHighSignalEmail(tt.message, "me@example.com")
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantMsg, reason)
		})
	}
}

func TestParseHeadersHandlesNil(t *testing.T) {
	assert.Empty(t, parseHeaders(nil))
	assert.Empty(t, parseHeaders(&gmail.MessagePart{Headers: []*gmail.MessagePartHeader{nil}}))
}

func TestIsAutomatedSender(t *testing.T) {
	assert.True(t, isAutomatedSender(""))
	assert.True(t, isAutomatedSender("NOREPLY@EXAMPLE.COM"))
	assert.True(t, isAutomatedSender("support@notifications-service.com"))
	assert.False(t, isAutomatedSender("Jane Smith <jane@example.com>"))
}

func TestCountRecipients(t *testing.T) {
	assert.Equal(t, 0, countRecipients(""))
	assert.Equal(t, 3, countRecipients("Alice <a@x.com>, Bob <b@x.com>,  c@x.com"))
	assert.Equal(t, 2, countRecipients("a@x.com,,,b@x.com, "))
}

func TestIsCalendarInvite(t *testing.T) {
	assert.True(t, isCalendarInvite("Meeting", &gmail.Message{Payload: &gmail.MessagePart{MimeType: "text/calendar"}}))
	assert.True(t, isCalendarInvite("Canceled event: Walkthrough", &gmail.Message{Payload: &gmail.MessagePart{}}))
	assert.False(t, isCalendarInvite("Please see invitation below", &gmail.Message{Payload: &gmail.MessagePart{}}))
	assert.False(t, isCalendarInvite("Invitation: x", &gmail.Message{}))
}

func TestIsAutoGeneratedSubject(t *testing.T) {
	assert.True(t, isAutoGeneratedSubject("  "))
	assert.True(t, isAutoGeneratedSubject("Re"))
	assert.False(t, isAutoGeneratedSubject("Hey"))
	assert.True(t, isAutoGeneratedSubject("Delivery Status Notification (Failure)"))
	assert.False(t, isAutoGeneratedSubject("The automatic system is broken"))
}

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		input      string
		wantName   string
		wantEmail  string
		wantDomain string
	}{
		{"", "", "", ""},
		{"user@example.com", "", "user@example.com", "example.com"},
		{`"Jane Smith" <jane@example.com>`, "Jane Smith", "jane@example.com", "example.com"},
		{"Alice < alice@example.com >", "Alice", "alice@example.com", "example.com"},
		{"user@EXAMPLE.COM", "", "user@EXAMPLE.COM", "example.com"},
		{"invaliduser", "", "invaliduser", ""},
		{"user@@example.com", "", "user@@example.com", ""},
		{"Just Name <>", "Just Name", "", ""},
	}
	for _, tt := range tests {
		name, email, domain := ExtractEmailAddress(tt.input)
		assert.Equal(t, tt.wantName, name, tt.input)
		assert.Equal(t, tt.wantEmail, email, tt.input)
		assert.Equal(t, tt.wantDomain, domain, tt.input)
	}
}

func TestParseEmailDate(t *testing.T) {
	got := parseEmailDate("Mon, 1 Jan 2024 12:00:00 +0000", 0)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), got)

	fallback := parseEmailDate("not a date", 1704110400000)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), fallback)

	assert.True(t, parseEmailDate("", 0).IsZero())
}

func TestCounterparties(t *testing.T) {
	inbound := map[string]string{"From": "Jane <jane@example.com>", "To": "me@example.com"}
	assert.Equal(t, []string{"jane@example.com"}, counterparties(inbound, "me@example.com"))

	outbound := map[string]string{"From": "Me <ME@example.com>", "To": "a@x.com, me@example.com", "Cc": "b@x.com"}
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, counterparties(outbound, "me@example.com"))
}
