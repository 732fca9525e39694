package widget

import (
	"context"
	"regexp"
	"strings"
	"testing"
)

func TestClock24HourNoDate(t *testing.T) {
	mount := NewMount("c1")
	c := newClock(mount, map[string]any{"format": "24h", "showDate": false}, &Env{})

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Destroy()

	html := mount.HTML()
	if !regexp.MustCompile(`>\d{1,2}:\d{2}:\d{2}<`).MatchString(html) {
		t.Errorf("no 24h time in %q", html)
	}
	if strings.Contains(html, "AM") || strings.Contains(html, "PM") {
		t.Errorf("24h clock must not carry a meridiem: %q", html)
	}
	if strings.Contains(html, "clock-date") {
		t.Errorf("showDate=false must omit the date: %q", html)
	}
}

func TestClock12HourWithDate(t *testing.T) {
	mount := NewMount("c1")
	c := newClock(mount, map[string]any{"format": "12h", "showDate": true}, &Env{})

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Destroy()

	html := mount.HTML()
	if !strings.Contains(html, "AM") && !strings.Contains(html, "PM") {
		t.Errorf("12h clock should carry a meridiem: %q", html)
	}
	if !strings.Contains(html, "clock-date") {
		t.Errorf("showDate=true must render the date: %q", html)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	mount := NewMount("c1")
	c := newClock(mount, nil, &Env{})
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	c.Destroy()
	c.Destroy() // must not panic or hang
}

func TestMountUpdateCallback(t *testing.T) {
	mount := NewMount("m1")
	var gotID, gotHTML string
	mount.OnUpdate(func(id, html string) {
		gotID, gotHTML = id, html
	})

	mount.SetHTML("<p>hi</p>")
	if gotID != "m1" || gotHTML != "<p>hi</p>" {
		t.Errorf("callback got %q/%q", gotID, gotHTML)
	}
}

func TestMountErrorEscapes(t *testing.T) {
	mount := NewMount("m1")
	mount.SetError("Load failed", `<script>alert("x")</script>`)
	if strings.Contains(mount.HTML(), "<script>") {
		t.Errorf("error message not escaped: %q", mount.HTML())
	}
}
