// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package msgboard shows messages received on a channel on a character
// display, one line per row.
//
// Producers never block on the display:
//
//	msgs := make(chan msgboard.Message, 10)
//	h := msgboard.NewHandler(lcd, msgs)
//	go h.Run(ctx)
//	msgboard.Send(msgs, "Status", "OK")
package msgboard

import (
	"context"

	"github.com/golang/glog"
)

// Display is the part of hd44780.Dev used by a Handler.
type Display interface {
	Clear() error
	SetCursor(col, row int) error
	Print(text string) error
	Cols() int
	Rows() int
}

// Message is one screenful. Lines past the last row are dropped and every
// line is cut to the width of the display.
type Message struct {
	Lines []string
}

// Handler writes messages from a channel to a display.
type Handler struct {
	dev      Display
	messages <-chan Message
}

// NewHandler returns a handler showing messages on dev.
func NewHandler(dev Display, messages <-chan Message) *Handler {
	return &Handler{dev: dev, messages: messages}
}

// Run shows every message received until the channel is closed, in which
// case it returns nil, or ctx is done.
//
// A message that fails to display is logged and skipped.
func (h *Handler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-h.messages:
			if !ok {
				return nil
			}
			if err := h.Show(msg); err != nil {
				glog.Warningf("msgboard: %v", err)
			}
		}
	}
}

// Show clears the display and writes msg.
func (h *Handler) Show(msg Message) error {
	if err := h.dev.Clear(); err != nil {
		return err
	}
	cols := h.dev.Cols()
	for row, line := range msg.Lines {
		if row >= h.dev.Rows() {
			glog.V(1).Infof("msgboard: dropped %d lines", len(msg.Lines)-row)
			break
		}
		if len(line) > cols {
			line = line[:cols]
		}
		if err := h.dev.SetCursor(0, row); err != nil {
			return err
		}
		if err := h.dev.Print(line); err != nil {
			return err
		}
	}
	return nil
}

// Send queues a message without blocking. It reports false when the
// channel is full and the message was dropped.
func Send(ch chan<- Message, lines ...string) bool {
	select {
	case ch <- Message{Lines: lines}:
		return true
	default:
		glog.V(1).Infof("msgboard: channel full, dropped %q", lines)
		return false
	}
}
