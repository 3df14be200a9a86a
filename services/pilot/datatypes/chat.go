// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Chat request and response types for the digest assistant endpoint.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a chat message.
	// Byte length, not rune count: mitigates memory exhaustion with
	// oversized payloads.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxActionIDBytes bounds the optional quick-action identifier.
	MaxActionIDBytes = 64
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length against MaxMessageContentBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Types
// =============================================================================

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one entry in the assistant conversation. The log is held
// per session in memory; messages are never persisted server-side.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ActionID  string    `json:"actionId,omitempty"`
}

// QuickAction is a canned prompt offered by the chat panel.
type QuickAction struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
}

// ChatRequest is the POST /v1/chat body.
type ChatRequest struct {
	Message  string `json:"message" validate:"maxbytes"`
	ActionID string `json:"actionId" validate:"max=64"`
}

// Validate enforces size limits on a chat request. The presence check for
// Message is handled by the handler so it can return the exact contract
// error body.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ChatResponse is the POST /v1/chat reply: the assistant message plus the
// digests it was grounded on.
type ChatResponse struct {
	Reply      ChatMessage   `json:"reply"`
	References []DigestEntry `json:"references"`
}

// TriggerDigestRequest is the POST /v1/digests body.
type TriggerDigestRequest struct {
	ProductID string `json:"productId"`
	DryRun    bool   `json:"dryRun"`
}
