package patch

import (
	"strings"
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

const sampleResponse = "Here is the fix.\n\n" +
	"📍001 PARTIAL_EDIT src/main.go\n" +
	"```\n" +
	" func main() {\n" +
	"-\tfmt.Println(\"old\")\n" +
	"+\tfmt.Println(\"new\")\n" +
	" }\n" +
	"```\n\n" +
	"📍002 NEW_FILE src/helper.go\n" +
	"```\n" +
	"package main\n" +
	"```\n"

func TestParseTickets(t *testing.T) {
	tickets, err := ParseTickets(sampleResponse)
	if err != nil {
		t.Fatalf("ParseTickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("len(tickets) = %d, want 2", len(tickets))
	}
	if tickets[0].ID != "001" || tickets[0].Action != chatmsg.ActionPartialEdit {
		t.Errorf("ticket[0] = %+v", tickets[0])
	}
	if tickets[1].ID != "002" || tickets[1].Action != chatmsg.ActionNewFile {
		t.Errorf("ticket[1] = %+v", tickets[1])
	}
	if !strings.Contains(tickets[0].Code, "fmt.Println") {
		t.Errorf("ticket[0].Code missing expected content: %q", tickets[0].Code)
	}
}

func TestParseTickets_MalformedHeader(t *testing.T) {
	_, err := ParseTickets("📍abc BOGUS file.go\n```\nx\n```\n")
	if err == nil {
		t.Fatal("expected error for malformed ticket header")
	}
}

func TestValidateTicket(t *testing.T) {
	good := chatmsg.PatchTicket{ID: "001", Action: chatmsg.ActionNewFile, Filename: "a.go"}
	if err := ValidateTicket(&good); err != nil {
		t.Fatalf("ValidateTicket: %v", err)
	}
	if good.State != chatmsg.TicketCorrected {
		t.Errorf("State = %q, want corrected", good.State)
	}

	bad := chatmsg.PatchTicket{ID: "1", Action: chatmsg.ActionNewFile, Filename: "a.go"}
	if err := ValidateTicket(&bad); err == nil {
		t.Fatal("expected error for non-3-digit id")
	}
	if bad.State != chatmsg.TicketFailed {
		t.Errorf("State = %q, want failed", bad.State)
	}
}

func TestFallbackAction(t *testing.T) {
	if got := FallbackAction(chatmsg.ActionRewriteSymbol); got != chatmsg.ActionPartialEdit {
		t.Errorf("fallback for REWRITE_SYMBOL = %q, want PARTIAL_EDIT", got)
	}
	if got := FallbackAction(chatmsg.ActionPartialEdit); got != chatmsg.ActionRewriteWholeFile {
		t.Errorf("fallback for PARTIAL_EDIT = %q, want REWRITE_WHOLE_FILE", got)
	}
	if got := FallbackAction(chatmsg.ActionNewFile); got != "" {
		t.Errorf("fallback for NEW_FILE = %q, want empty", got)
	}
}
