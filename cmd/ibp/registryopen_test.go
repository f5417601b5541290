package main

import (
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func TestNextTopicIDSkipsGaps(t *testing.T) {
	topics := []ibptypes.Topic{
		{TopicID: "T000000"},
		{TopicID: "T000003"},
		{TopicID: "T000001"},
	}
	if got := nextTopicID(topics); got != "T000004" {
		t.Fatalf("nextTopicID() = %q, want %q", got, "T000004")
	}
}

func TestNextTopicIDEmptyRegistry(t *testing.T) {
	if got := nextTopicID(nil); got != "T000001" {
		t.Fatalf("nextTopicID(nil) = %q, want %q", got, "T000001")
	}
}
