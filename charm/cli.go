// ABOUTME: Link and status reports for the Charm KV backend
// ABOUTME: Charm authenticates with SSH keys, so linking is a first sync

package charm

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Link syncs once to register this device and prints the account id.
func Link(w io.Writer, c *Client) error {
	cfg := c.Config()
	_, _ = fmt.Fprintf(w, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	_, _ = fmt.Fprintln(w, "Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		_, _ = fmt.Fprintln(w, "✓ Device linked (ID unavailable)")
	} else {
		_, _ = fmt.Fprintf(w, "✓ Linked to account: %s\n", id)
	}
	_, _ = fmt.Fprintf(w, "✓ Auto-sync: %v\n", cfg.AutoSync)
	_, _ = fmt.Fprintln(w, "\nDismissed and accepted insights now follow you across devices.")
	return nil
}

// Status prints the server, connection state, and stored exclusion owners.
func Status(w io.Writer, c *Client) error {
	cfg := c.Config()
	_, _ = fmt.Fprintln(w, "Charm Sync Status")
	_, _ = fmt.Fprintln(w, "─────────────────")
	_, _ = fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if last := c.LastSync(); last.IsZero() {
		_, _ = fmt.Fprintln(w, "Last sync: never")
	} else {
		_, _ = fmt.Fprintf(w, "Last sync: %s\n", humanize.Time(last))
	}

	id, err := c.ID()
	if err != nil {
		_, _ = fmt.Fprintln(w, "\nStatus: Not connected")
		_, _ = fmt.Fprintln(w, "\nCharm uses SSH keys for authentication - no login required!")
		return nil //nolint:nilerr // not connected is a state, not a failure
	}
	_, _ = fmt.Fprintln(w, "\nStatus: Connected to Charm Cloud")
	_, _ = fmt.Fprintf(w, "ID:        %s\n", id)

	owners, err := NewExclusionStore(c).Owners()
	if err != nil {
		return fmt.Errorf("failed to list exclusion owners: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Owners:    %d\n", len(owners))
	return nil
}
