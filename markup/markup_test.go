package markup

import (
	"errors"
	"testing"

	"svgdx/element"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `<svg><rect class="a b" x="1"/><!-- c --><text>a &amp; b</text></svg>`,
			`<svg><rect class="a b" x="1"/><!-- c --><text>a &amp; b</text></svg>`},
		{"declaration dropped", `<?xml version="1.0"?>` + "\n" + `<svg/>`, "\n<svg/>"},
		{"cdata kept", `<style><![CDATA[rect{fill:red}]]></style>`, `<style><![CDATA[rect{fill:red}]]></style>`},
		{"namespaced attr", `<use xlink:href="#a"/>`, `<use xlink:href="#a"/>`},
		{"id before class", `<rect class="x" id="r"/>`, `<rect id="r" class="x"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := ReadString(tt.in)
			if err != nil {
				t.Fatalf("ReadString() error = %v", err)
			}
			got, err := WriteString(events)
			if err != nil {
				t.Fatalf("WriteString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("round trip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadEvents(t *testing.T) {
	events, err := ReadString(`<g id="a"><rect/>txt</g>`)
	if err != nil {
		t.Fatalf("ReadString() error = %v", err)
	}
	kinds := []element.EventKind{element.EventStart, element.EventEmpty, element.EventText, element.EventEnd}
	if len(events) != len(kinds) {
		t.Fatalf("ReadString() = %d events, want %d", len(events), len(kinds))
	}
	for i, k := range kinds {
		if events[i].Kind != k {
			t.Errorf("event %d kind = %v, want %v", i, events[i].Kind, k)
		}
	}
	if events[0].Element.ID() != "a" {
		t.Errorf("start element id = %q, want a", events[0].Element.ID())
	}
}

func TestReadMalformed(t *testing.T) {
	if _, err := ReadString(`<svg><rect></svg>`); err == nil {
		t.Error("ReadString() accepted mismatched tags")
	}
}

func TestWriteMismatched(t *testing.T) {
	events := []element.Event{element.Start(element.New("g")), element.End(element.New("svg"))}
	if _, err := WriteString(events); !errors.Is(err, element.ErrMismatchedTag) {
		t.Errorf("WriteString() error = %v, want mismatched tag", err)
	}
}
