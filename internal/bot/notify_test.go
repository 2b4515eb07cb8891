package bot

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestBuildEventLogEmbed(t *testing.T) {
	h := newHarness(t, `{"eventTypes": []}`)
	h.bot.cfg.Embed.Footer = "Patrol Logger"
	at := time.Date(2026, 10, 19, 20, 30, 0, 0, time.UTC)

	embed := h.bot.buildEventLogEmbed(EventLog{
		Submitter:    &discordgo.User{ID: "u1", Username: "alice", Discriminator: "1234"},
		HostUsername: "bob",
		EventType:    "Raid",
		EventTime:    "8:30 PM EST",
		ProofURL:     "https://cdn.example/p.png",
		SubmittedAt:  at,
	})

	if embed.Title != "New Event Log Submitted" || embed.Color != 0x00AE86 {
		t.Fatalf("unexpected title/color %q %x", embed.Title, embed.Color)
	}
	if embed.Fields[0].Value != "<@u1> (alice#1234)" || !embed.Fields[0].Inline {
		t.Fatalf("unexpected submitter field %+v", embed.Fields[0])
	}
	if embed.Fields[3].Name != "Event Time" || embed.Fields[3].Inline {
		t.Fatalf("expected non-inline event time, got %+v", embed.Fields[3])
	}
	if embed.Timestamp != "2026-10-19T20:30:00Z" || embed.Footer.Text != "Patrol Logger" {
		t.Fatalf("unexpected timestamp/footer %q %q", embed.Timestamp, embed.Footer.Text)
	}
}

func TestUserTag(t *testing.T) {
	if got := userTag(&discordgo.User{Username: "alice", Discriminator: "0"}); got != "alice" {
		t.Fatalf("unexpected tag %q", got)
	}
	if got := userTag(&discordgo.User{Username: "alice", Discriminator: "0042"}); got != "alice#0042" {
		t.Fatalf("unexpected tag %q", got)
	}
}

func TestModalValueAcceptsValueComponents(t *testing.T) {
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{discordgo.TextInput{CustomID: fieldHost, Value: "bob"}}},
	}
	if got := modalValue(components, fieldHost); got != "bob" {
		t.Fatalf("expected bob, got %q", got)
	}
	if got := modalValue(components, fieldEventTime); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestFilterEventTypes(t *testing.T) {
	got := FilterEventTypes([]string{"Raid", "Meeting", "RAID night"}, "raid")
	if len(got) != 2 || got[0] != "Raid" || got[1] != "RAID night" {
		t.Fatalf("unexpected filter result %v", got)
	}
	if got := FilterEventTypes(nil, "x"); len(got) != 0 {
		t.Fatalf("expected empty result")
	}
}

func TestSweepInterval(t *testing.T) {
	if got := sweepInterval(30 * time.Second); got != time.Minute {
		t.Fatalf("expected floor of one minute, got %s", got)
	}
	if got := sweepInterval(time.Hour); got != 30*time.Minute {
		t.Fatalf("expected half the ttl, got %s", got)
	}
}
