// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/validation"
)

// pushHandler applies one decoded push message.
type pushHandler func(ctx context.Context, raw json.RawMessage) error

// PushHandlers dispatches push messages to the handler for their action.
type PushHandlers struct {
	cache      *Cache
	reconciler *Reconciler
	handlers   map[models.ActionKind]pushHandler
}

// NewPushHandlers builds the action dispatch table.
func NewPushHandlers(cache *Cache, reconciler *Reconciler) *PushHandlers {
	h := &PushHandlers{cache: cache, reconciler: reconciler}
	h.handlers = map[models.ActionKind]pushHandler{
		models.ActionRegister:      h.handleRegister,
		models.ActionDelete:        h.handleDelete,
		models.ActionDiscordSwitch: h.handleDiscordSwitch,
		models.ActionUpdate:        h.handleUpdate,
	}
	return h
}

// Handle applies msg. A panic inside a handler is turned into an error so a
// bad message cannot take the engine down.
func (h *PushHandlers) Handle(ctx context.Context, msg *models.PushMessage) (err error) {
	handler, ok := h.handlers[msg.Action]
	if !ok {
		metrics.RecordPushMessage(string(msg.Action), "invalid")
		return fmt.Errorf("%w: no handler for action %q", ErrValidation, msg.Action)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("push handler %s panicked: %v", msg.Action, rec)
		}
		result := "handled"
		if err != nil {
			result = "failed"
		}
		metrics.RecordPushMessage(string(msg.Action), result)
	}()

	return handler(ctx, msg.Raw)
}

// decodePayload unmarshals raw into dst and validates it.
func decodePayload(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return fmt.Errorf("%w: %w", ErrValidation, verr)
	}
	return nil
}

// handleRegister caches the new record, syncs it and announces it once.
func (h *PushHandlers) handleRegister(ctx context.Context, raw json.RawMessage) error {
	var p models.RegisterPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	r := p.Registrant()
	h.cache.Set(r)
	h.reconciler.SyncOne(ctx, r, false)

	if err := h.reconciler.Announce(ctx, r); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("discord_id", r.DiscordID).Msg("Failed to announce registration")
	}
	return nil
}

// handleDelete strips the member back to unregistered, then forgets them.
func (h *PushHandlers) handleDelete(ctx context.Context, raw json.RawMessage) error {
	var p models.DeletePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	id := *p.DiscordID
	h.reconciler.SyncOne(ctx, models.BlankRegistrant(id), true)
	h.cache.Delete(id)
	return nil
}

// handleDiscordSwitch re-keys the record and syncs both accounts. The old
// account is always stripped, even when the record was not cached.
func (h *PushHandlers) handleDiscordSwitch(ctx context.Context, raw json.RawMessage) error {
	var p models.DiscordSwitchPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	oldID, newID := *p.OldDiscordID, *p.NewDiscordID

	if moved, ok := h.cache.Move(oldID, newID); ok {
		h.reconciler.SyncOne(ctx, moved, false)
	} else {
		logging.Ctx(ctx).Warn().Str("old_discord_id", oldID).Str("new_discord_id", newID).Msg("Switched account was not cached")
	}
	h.reconciler.SyncOne(ctx, models.BlankRegistrant(oldID), true)
	return nil
}

// handleUpdate replaces the cached record and syncs it without announcing.
func (h *PushHandlers) handleUpdate(ctx context.Context, raw json.RawMessage) error {
	var p models.RegistrantPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	r := p.Registrant()
	h.cache.Set(r)
	h.reconciler.SyncOne(ctx, r, false)
	return nil
}
