// Package ui renders session state for a terminal and parses what the user types.
// It never changes session state itself.
package ui

import (
	"fmt"
	"io"
	"lan-chat/domain"
	"lan-chat/observability"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const selfName = "You"

var (
	ownStyle    = color.New(color.FgGreen, color.OpBold)
	peerStyle   = color.New(color.FgCyan, color.OpBold)
	clockStyle  = color.New(color.FgGray)
	headerStyle = color.New(color.BgBlack, color.FgGreen)
	noticeStyle = color.New(color.FgYellow)
	errorStyle  = color.New(color.FgRed)
)

// FormatMessage renders one chat line. Messages from username show as "You".
func FormatMessage(msg domain.ChatMessage, username string) string {
	name := peerStyle.Render(msg.SenderName)
	if msg.SenderName == username {
		name = ownStyle.Render(selfName)
	}
	return fmt.Sprintf("%s %s: %s", clockStyle.Render("["+msg.SentAt+"]"), name, msg.Text)
}

// Header summarises who we are and where we are.
func Header(state domain.SessionState, username string) string {
	room := "no room"
	switch state.Mode {
	case domain.Hosting:
		room = fmt.Sprintf("hosting room %s", state.RoomID)
	case domain.Joined:
		room = fmt.Sprintf("in room %s", state.RoomID)
	}
	return headerStyle.Render(fmt.Sprintf(" %s @ %s | %s ", username, state.LocalAddress, room))
}

func Notice(format string, args ...any) string {
	return noticeStyle.Render(fmt.Sprintf(format, args...))
}

func Error(err error) string {
	return errorStyle.Render("error: " + err.Error())
}

// RenderRooms prints the rooms advertised nearby.
func RenderRooms(w io.Writer, rooms []domain.PeerRecord, now time.Time) {
	if len(rooms) == 0 {
		_, _ = fmt.Fprintln(w, Notice("No rooms nearby. Use /create to host one."))
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PIN", "Host", "Address", "Seen"})
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.AppendBulk(lo.Map(rooms, func(r domain.PeerRecord, _ int) []string {
		return []string{r.RoomID.String(), r.DisplayName, r.Address, seenAgo(now.Sub(r.LastSeen))}
	}))
	table.Render()
}

func seenAgo(d time.Duration) string {
	if d < time.Second {
		return "just now"
	}
	return strconv.Itoa(int(d.Seconds())) + "s ago"
}

// RenderStats prints relay counters as a two-column table.
func RenderStats(w io.Writer, s observability.StatsSnapshot) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	rows := [][]string{
		{"announcements sent", strconv.FormatUint(s.AnnouncementsSent, 10)},
		{"announcements received", strconv.FormatUint(s.AnnouncementsReceived, 10)},
		{"datagrams dropped", strconv.FormatUint(s.DatagramsDropped, 10)},
		{"connections accepted", strconv.FormatUint(s.ConnectionsAccepted, 10)},
		{"connections closed", strconv.FormatUint(s.ConnectionsClosed, 10)},
		{"open connections", strconv.Itoa(s.OpenConnections)},
		{"messages received", strconv.FormatUint(s.MessagesReceived, 10)},
		{"messages relayed", strconv.FormatUint(s.MessagesRelayed, 10)},
		{"frames dropped", strconv.FormatUint(s.FramesDropped, 10)},
		{"inbound queue", strconv.FormatInt(s.InboundQueueDepth, 10)},
	}
	table.AppendBulk(rows)
	table.Render()
}

// HelpText lists the available commands.
func HelpText() string {
	lines := []string{
		"/create              host a new room",
		"/join <pin> [ip]     join a room, the address is looked up when omitted",
		"/rooms               list rooms nearby",
		"/leave               leave the current room",
		"/stats               show network counters",
		"/help                show this help",
		"/quit                leave and exit",
		"anything else is sent to the room",
	}
	return strings.Join(lines, "\n")
}
