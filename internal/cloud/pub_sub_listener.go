// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud
// services. This file defines a reusable Pub/Sub listener that delegates
// each received message to an attached workflow command.
//
// Logic Flow:
//
//  1. A listener is created per configured subscription at startup; the
//     command is attached later, once the workflows are assembled.
//  2. Listen launches a goroutine that blocks in subscription.Receive.
//  3. Each message gets its own trace span and its own workflow context,
//     with the raw message body as the initial chain input.
//  4. The message is Ack'd only when the whole chain ran without recording
//     an error. On failure the message is left to redeliver under the
//     subscription's retry policy.
//  5. The workflow context is always closed, so scratch files from a failed
//     run do not accumulate between redeliveries.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mediawatch/gcp-go-video-recap/internal/core/cor"
)

// PubSubListener connects one Pub/Sub subscription to one processing
// command. Listeners outlive individual API requests, so they live in the
// cloud package rather than with the request handlers.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for the given subscription ID. The
// command may be nil at construction time and attached later with
// SetCommand.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches the processing command. A command that is already set
// is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Canceling the
// context stops the listener.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("starting subscription listener", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))
			defer span.End()

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}

			span.SetStatus(codes.Error, "failed")
			for name, e := range chainCtx.GetErrors() {
				slog.Error("workflow command failed", "command", name, "error", e)
			}
			// No Ack and no Nack: the message redelivers after the ack
			// deadline per the subscription's retry policy.
		})
		if err != nil {
			slog.Error("subscription receive terminated", "subscription", m.subscription.String(), "error", err)
		}
	}()
}
