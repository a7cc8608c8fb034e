// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"

	"github.com/tochemey/warden/errors"
)

// Delivery tells how a message reached a child
type Delivery int

const (
	// Direct messages were sent to a single child
	Direct Delivery = iota
	// Broadcast messages were fanned out to several children
	Broadcast
)

// String returns the string representation of the delivery kind
func (d Delivery) String() string {
	switch d {
	case Direct:
		return "Direct"
	case Broadcast:
		return "Broadcast"
	default:
		return ""
	}
}

// Cloner is implemented by payloads that need a deep copy when a message is
// delivered to several children or re-delivered after a restart.
type Cloner interface {
	Clone() any
}

// Message is the immutable envelope carried by mailboxes.
//
// The payload is opaque to the runtime. Payloads implementing proto.Message are
// copied with proto.Clone and payloads implementing Cloner with their Clone
// method; any other payload is treated as a value and shared between copies.
type Message struct {
	payload   any
	sender    ID
	hasSender bool
	delivery  Delivery
}

// MessageOption configures a Message
type MessageOption func(*Message)

// WithSender sets the sender of the message
func WithSender(sender ID) MessageOption {
	return func(m *Message) {
		m.sender = sender
		m.hasSender = !sender.IsZero()
	}
}

// WithDelivery sets the delivery kind of the message
func WithDelivery(delivery Delivery) MessageOption {
	return func(m *Message) {
		m.delivery = delivery
	}
}

// NewMessage creates a direct message wrapping the payload
func NewMessage(payload any, opts ...MessageOption) *Message {
	msg := &Message{payload: payload, delivery: Direct}
	for _, opt := range opts {
		opt(msg)
	}
	return msg
}

// Payload returns the message payload
func (m *Message) Payload() any {
	return m.payload
}

// Sender returns the sender ID when one was set
func (m *Message) Sender() (ID, bool) {
	return m.sender, m.hasSender
}

// Delivery returns how the message was delivered
func (m *Message) Delivery() Delivery {
	return m.delivery
}

// Tag returns the type name of the payload
func (m *Message) Tag() string {
	if m.payload == nil {
		return "<nil>"
	}
	return reflect.TypeOf(m.payload).String()
}

// Clone returns a copy of the envelope with a copy of the payload
func (m *Message) Clone() *Message {
	return &Message{
		payload:   clonePayload(m.payload),
		sender:    m.sender,
		hasSender: m.hasSender,
		delivery:  m.delivery,
	}
}

// withDelivery returns a copy of the message carrying the given delivery kind
func (m *Message) withDelivery(delivery Delivery) *Message {
	clone := m.Clone()
	clone.delivery = delivery
	return clone
}

func clonePayload(payload any) any {
	switch p := payload.(type) {
	case proto.Message:
		return proto.Clone(p)
	case Cloner:
		return p.Clone()
	default:
		return payload
	}
}

// As returns the payload of the message as a T.
// The boolean is false when the payload is not a T.
func As[T any](msg *Message) (T, bool) {
	if msg == nil {
		var zero T
		return zero, false
	}
	value, ok := msg.payload.(T)
	return value, ok
}

// MustAs returns the payload of the message as a T or an error wrapping
// ErrTypeMismatch when the payload is of another type.
func MustAs[T any](msg *Message) (T, error) {
	value, ok := As[T](msg)
	if !ok {
		var zero T
		tag := "<nil>"
		if msg != nil {
			tag = msg.Tag()
		}
		return zero, fmt.Errorf("%w: expected %T, got %s", errors.ErrTypeMismatch, zero, tag)
	}
	return value, nil
}
