package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storyhub/pkg/models"
)

func TestFormat(t *testing.T) {
	assert.Contains(t, format(models.ActivityEvent{Type: "announcement", Message: "hi"}), "[announcement] hi")
	assert.Contains(t, format(models.ActivityEvent{Type: "story.created", Username: "ana", Message: "Dragons"}), "ana: Dragons")
	assert.Contains(t, format(models.ActivityEvent{Type: "comment.created", StoryID: 3, UserID: 9}), "story=3 user=9")
}
