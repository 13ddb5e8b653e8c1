package coverletter

import (
	"fmt"
	"time"
)

// QueueName is the durable work queue for generation jobs.
const QueueName = "cover-letter.generate"

// Status is the lifecycle state of a generation job. Status only moves
// forward: pending -> processing -> completed | failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Tone selects the writing style of the generated letter.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneConcise      Tone = "concise"
)

// ParseTone validates a client-supplied tone. The empty string maps to the
// professional default.
func ParseTone(s string) (Tone, error) {
	switch Tone(s) {
	case "":
		return ToneProfessional, nil
	case ToneProfessional, ToneFriendly, ToneConcise:
		return Tone(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTone, s)
	}
}

// Input is the immutable payload required to perform the work.
type Input struct {
	JobDescription string `json:"jobDescription"`
	CVText         string `json:"cvText"`
}

// Message is the wire format published to the work queue.
type Message struct {
	JobID     string    `json:"jobId"`
	OwnerID   int64     `json:"ownerId"`
	Input     Input     `json:"input"`
	Tone      Tone      `json:"tone"`
	CreatedAt time.Time `json:"createdAt"`
}
