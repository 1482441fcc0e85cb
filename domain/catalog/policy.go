package catalog

import (
	"context"
	"fmt"

	"travel-cms/pkg/logger"
)

// applyReplacementPolicy enforces the content type's exclusivity rule
// before a create. When a conflicting record exists, its remote media is
// best-effort deleted and the row removed so the new record takes the
// slot. Updates never run the policy; they replace the target record's
// own media directly.
func (h *Handler) applyReplacementPolicy(ctx context.Context, d *Descriptor, in *SaveInput) error {
	var prior *Record
	var err error

	switch d.Policy {
	case PolicyCategoryExclusive:
		prior, err = h.store.FindByCategory(ctx, d, *in.Category)
	case PolicyHeroSingleton:
		// Only an incoming hero claims the singleton slot. Gallery
		// records may coexist freely.
		if in.Slot == nil || *in.Slot != SlotHero {
			return nil
		}
		prior, err = h.store.FindHero(ctx, d)
	default:
		return nil
	}

	if err != nil {
		return fmt.Errorf("locating conflicting record: %w", err)
	}
	if prior == nil {
		return nil
	}

	h.log.Info("Replacing prior record for exclusivity slot",
		logger.ContentType(d.Name),
		logger.RecordID(prior.ID),
	)

	h.discardRecordMedia(ctx, d, prior)

	if d.Mode == AttachmentMulti {
		if err := h.store.DeleteAttachments(ctx, d, prior.ID); err != nil {
			return fmt.Errorf("deleting prior attachments: %w", err)
		}
	}
	if err := h.store.Delete(ctx, d, prior.ID); err != nil {
		return fmt.Errorf("deleting prior record: %w", err)
	}
	return nil
}

// discardRecordMedia best-effort deletes every remote object the record
// references. Failures are logged and never block the local mutation; a
// dangling remote object is an acceptable failure mode.
func (h *Handler) discardRecordMedia(ctx context.Context, d *Descriptor, rec *Record) {
	if d.Mode == AttachmentSingle {
		if rec.RemoteID != nil {
			h.discardRemote(ctx, d, *rec.RemoteID)
		}
		return
	}

	atts := rec.Attachments
	if atts == nil {
		var err error
		atts, err = h.store.AttachmentsByParent(ctx, d, rec.ID)
		if err != nil {
			h.log.Warn("Failed to list attachments for media cleanup",
				logger.ContentType(d.Name),
				logger.RecordID(rec.ID),
				logger.Err(err),
			)
			return
		}
	}
	for _, att := range atts {
		h.discardRemote(ctx, d, att.RemoteID)
	}
}

// discardRemote best-effort deletes one remote object.
func (h *Handler) discardRemote(ctx context.Context, d *Descriptor, remoteID string) {
	if remoteID == "" {
		return
	}
	if err := h.media.Delete(ctx, remoteID); err != nil {
		h.log.Warn("Failed to delete remote media, continuing",
			logger.ContentType(d.Name),
			logger.RemoteID(remoteID),
			logger.Err(err),
		)
	}
}
