// ABOUTME: High-signal filtering for Gmail messages
// ABOUTME: Drops automated mail, mass sends, calendar traffic, and bounce subjects
package sync

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// groupThreshold is the recipient count at which mail counts as a broadcast.
const groupThreshold = 5

var automatedMarkers = []string{
	"noreply", "no-reply", "donotreply", "do-not-reply",
	"notifications", "notify", "mailer-daemon", "postmaster",
	"bounces", "unsubscribe", "newsletter", "marketing",
}

var calendarPrefixes = []string{
	"invitation:", "invite:", "calendar:", "updated invitation:",
	"canceled event:", "cancelled event:",
}

var autoSubjectPrefixes = []string{
	"automatic reply", "out of office", "delivery status notification",
	"returned mail", "failure notice", "undelivered mail",
}

// BuildHighSignalQuery builds the Gmail search for real conversations since
// the given day.
func BuildHighSignalQuery(since time.Time) string {
	return fmt.Sprintf(
		"(from:me is:replied) OR (to:me is:replied) OR is:starred after:%s -in:spam -in:trash",
		since.Format("2006/01/02"),
	)
}

// IsHighSignalEmail reports whether msg looks like a real exchange. When it
// does not, the reason names the rule that rejected it.
func IsHighSignalEmail(msg *gmail.Message, userEmail string) (bool, string) {
	if msg == nil {
		return false, "nil message"
	}
	headers := parseHeaders(msg.Payload)

	if isAutomatedSender(headers["From"]) {
		return false, "automated sender"
	}

	recipients := countRecipients(headers["To"]) + countRecipients(headers["Cc"])
	if recipients >= groupThreshold {
		return false, fmt.Sprintf("group email (%d recipients)", recipients)
	}

	subject := headers["Subject"]
	if isCalendarInvite(subject, msg) {
		return false, "calendar invite"
	}
	if isAutoGeneratedSubject(subject) {
		return false, "auto-generated subject"
	}
	return true, ""
}

func parseHeaders(payload *gmail.MessagePart) map[string]string {
	headers := make(map[string]string)
	if payload == nil {
		return headers
	}
	for _, h := range payload.Headers {
		if h != nil {
			headers[h.Name] = h.Value
		}
	}
	return headers
}

func isAutomatedSender(from string) bool {
	if strings.TrimSpace(from) == "" {
		return true
	}
	lower := strings.ToLower(from)
	for _, marker := range automatedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func countRecipients(header string) int {
	n := 0
	for _, part := range strings.Split(header, ",") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func isCalendarInvite(subject string, msg *gmail.Message) bool {
	if msg == nil || msg.Payload == nil {
		return false
	}
	if strings.HasPrefix(msg.Payload.MimeType, "text/calendar") {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(subject))
	for _, prefix := range calendarPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func isAutoGeneratedSubject(subject string) bool {
	trimmed := strings.TrimSpace(subject)
	if len(trimmed) < 3 {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range autoSubjectPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ExtractEmailAddress splits a header address like `"Jane" <jane@x.com>`
// into its display name, address, and lowercased domain. Malformed input
// yields whatever parts could be recovered.
func ExtractEmailAddress(header string) (name, email, domain string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "", ""
	}

	open := strings.LastIndex(header, "<")
	closeIdx := strings.LastIndex(header, ">")
	if open >= 0 && closeIdx > open {
		name = strings.Trim(strings.TrimSpace(header[:open]), `"`)
		name = strings.TrimSpace(name)
		email = strings.TrimSpace(header[open+1 : closeIdx])
	} else {
		email = header
	}

	if at := strings.Index(email, "@"); at > 0 && strings.Count(email, "@") == 1 {
		domain = strings.ToLower(strings.TrimSpace(email[at+1:]))
	}
	return name, email, domain
}

// parseEmailDate reads a Date header, falling back to the Gmail internal
// date in milliseconds.
func parseEmailDate(header string, internalMillis int64) time.Time {
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
		"2 Jan 2006 15:04:05 -0700",
	}
	header = strings.TrimSpace(header)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, header); err == nil {
			return t.UTC()
		}
	}
	if internalMillis > 0 {
		return time.UnixMilli(internalMillis).UTC()
	}
	return time.Time{}
}

// counterparties returns the addresses on the other side of the exchange:
// the recipients when the user sent it, otherwise the sender.
func counterparties(headers map[string]string, userEmail string) []string {
	user := normalizeEmail(userEmail)
	_, from, _ := ExtractEmailAddress(headers["From"])

	if normalizeEmail(from) != user {
		return []string{from}
	}

	var out []string
	for _, field := range []string{"To", "Cc"} {
		for _, part := range strings.Split(headers[field], ",") {
			_, addr, _ := ExtractEmailAddress(part)
			if addr != "" && normalizeEmail(addr) != user {
				out = append(out, addr)
			}
		}
	}
	return out
}
