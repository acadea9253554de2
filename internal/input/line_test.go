package input

import "testing"

func TestParseLineAnswers(t *testing.T) {
	cases := []struct {
		in     string
		player int
		option string
	}{
		{"P1:A", 0, "A"},
		{"p2:b", 1, "B"},
		{"player 3 c", 2, "C"},
		{"4-D", 3, "D"},
		{"P5,d", 4, "D"},
		{"  P2 : B  ", 1, "B"},
	}
	for _, c := range cases {
		cmd, ok := ParseLine(c.in)
		if !ok || cmd.Kind != KindSubmitAnswer {
			t.Errorf("ParseLine(%q) not recognized as answer", c.in)
			continue
		}
		if cmd.Player != c.player || cmd.Option != c.option {
			t.Errorf("ParseLine(%q) = player %d option %q, want %d %q", c.in, cmd.Player, cmd.Option, c.player, c.option)
		}
	}
}

func TestParseLineVerbs(t *testing.T) {
	for _, in := range []string{"next", "NEXT", "advance"} {
		if cmd, ok := ParseLine(in); !ok || cmd.Kind != KindAdvance {
			t.Errorf("ParseLine(%q) should advance", in)
		}
	}
	if cmd, ok := ParseLine("reset"); !ok || cmd.Kind != KindReset {
		t.Errorf("reset not recognized")
	}
	if cmd, ok := ParseLine("join 2"); !ok || cmd.Kind != KindMarkActive || cmd.Player != 1 {
		t.Errorf("join not recognized: %+v", cmd)
	}
	if cmd, ok := ParseLine("hint 4"); !ok || cmd.Kind != KindRequestHint || cmd.Player != 3 {
		t.Errorf("hint not recognized: %+v", cmd)
	}
	if cmd, ok := ParseLine("H1"); !ok || cmd.Kind != KindRequestHint || cmd.Player != 0 {
		t.Errorf("short hint form not recognized: %+v", cmd)
	}
}

func TestParseLineRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "P:A", "P0:A", "PX:B", "P1:E", "answer please", "12"} {
		if cmd, ok := ParseLine(in); ok {
			t.Errorf("ParseLine(%q) unexpectedly accepted: %+v", in, cmd)
		}
	}
}

func TestNormalize(t *testing.T) {
	got, ok := Normalize("player 2 b")
	if !ok || got != "P2:B" {
		t.Fatalf("Normalize = %q (%v), want P2:B", got, ok)
	}
	if _, ok := Normalize("next"); ok {
		t.Fatalf("Normalize should only accept answer lines")
	}
}
