package main

import "testing"

func TestBumpTopicID(t *testing.T) {
	cases := map[string]string{
		"T000000": "T000001",
		"T000042": "T000043",
		"T999999": "T1000000",
	}
	for in, want := range cases {
		if got := bumpTopicID(in); got != want {
			t.Errorf("bumpTopicID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBumpTopicIDUnparsableIsUnchanged(t *testing.T) {
	if got := bumpTopicID("not-a-topic-id"); got != "not-a-topic-id" {
		t.Errorf("bumpTopicID(unparsable) = %q, want input unchanged", got)
	}
}
