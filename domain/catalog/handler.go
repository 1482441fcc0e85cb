package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"travel-cms/pkg/apperrors"
	"travel-cms/pkg/logger"
	"travel-cms/pkg/mediastore"
)

// Handler serves the uniform list/create-or-update/toggle/delete surface
// for every content type, parameterized by a Descriptor. Multi-step
// flows (replace-then-create, delete-children-then-parent) are
// best-effort sequential, not transactional; a crash mid-sequence can
// leave an orphaned remote object, which is acceptable for an admin CMS.
type Handler struct {
	store Store
	media mediastore.Store
	log   logger.Logger
	html  *bluemonday.Policy
}

// NewHandler wires the handler with its collaborators. The media store
// is injected so tests can substitute a double.
func NewHandler(store Store, media mediastore.Store) *Handler {
	return &Handler{
		store: store,
		media: media,
		log:   logger.Get().WithComponent("catalog"),
		html:  bluemonday.UGCPolicy(),
	}
}

// List returns all records of the content type, attachments embedded,
// ordered by creation time. Unbounded: the admin dashboards render the
// full table.
func (h *Handler) List(d *Descriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		records, err := h.store.List(c.Request().Context(), d)
		if err != nil {
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to list records.", err))
		}
		return apperrors.RespondWithSuccess(c, records)
	}
}

// Save handles the multipart create-or-update form. A missing id field
// creates, a present one updates.
func (h *Handler) Save(d *Descriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		in, appErr := h.parseSaveInput(c, d)
		if appErr != nil {
			return apperrors.RespondWithError(c, appErr)
		}

		if in.ID == nil {
			return h.create(c, d, in)
		}
		return h.update(c, d, in)
	}
}

func (h *Handler) create(c echo.Context, d *Descriptor, in *SaveInput) error {
	ctx := c.Request().Context()

	if appErr := h.validateCreate(d, in); appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	if err := h.applyReplacementPolicy(ctx, d, in); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewStore("Failed to replace prior record.", err))
	}

	uploads, appErr := h.uploadAll(ctx, d, in.Files)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	rec := &Record{
		Title:       *in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Slot:        in.Slot,
		IsActive:    true,
	}
	if d.Mode == AttachmentSingle && len(uploads) > 0 {
		rec.ImageURL = &uploads[0].URL
		rec.RemoteID = &uploads[0].RemoteID
	}

	if err := h.store.Insert(ctx, d, rec); err != nil {
		// Do not leave remote objects referenced by nothing.
		h.discardUploads(ctx, d, uploads)
		return apperrors.RespondWithError(c, apperrors.NewStore("Failed to create record.", err))
	}

	if d.Mode == AttachmentMulti {
		atts := make([]Attachment, len(uploads))
		for i, obj := range uploads {
			atts[i] = Attachment{URL: obj.URL, RemoteID: obj.RemoteID}
		}
		if err := h.store.ReplaceAttachments(ctx, d, rec.ID, atts); err != nil {
			h.discardUploads(ctx, d, uploads)
			if delErr := h.store.Delete(ctx, d, rec.ID); delErr != nil {
				h.log.Warn("Failed to remove record after attachment insert failure",
					logger.ContentType(d.Name), logger.RecordID(rec.ID), logger.Err(delErr))
			}
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to store attachments.", err))
		}
		rec.Attachments = atts
	}

	h.log.Info("Record created",
		logger.ContentType(d.Name),
		logger.RecordID(rec.ID),
		logger.Count(len(uploads)),
	)
	return apperrors.RespondWithCreated(c, rec)
}

func (h *Handler) update(c echo.Context, d *Descriptor, in *SaveInput) error {
	ctx := c.Request().Context()

	if appErr := h.validateUpdate(d, in); appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	rec, err := h.store.GetByID(ctx, d, *in.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodeRecordNotFound, "Record not found."))
		}
		return apperrors.RespondWithError(c, apperrors.NewStore("Failed to load record.", err))
	}

	fields := h.updateFields(d, in)

	// New files wholesale-replace the record's media: upload first, then
	// best-effort discard the old remote objects once the new ones exist.
	if len(in.Files) > 0 {
		uploads, appErr := h.uploadAll(ctx, d, in.Files)
		if appErr != nil {
			return apperrors.RespondWithError(c, appErr)
		}

		if d.Mode == AttachmentSingle {
			if rec.RemoteID != nil {
				h.discardRemote(ctx, d, *rec.RemoteID)
			}
			fields["image_url"] = uploads[0].URL
			fields["remote_id"] = uploads[0].RemoteID
		} else {
			old := rec.Attachments
			atts := make([]Attachment, len(uploads))
			for i, obj := range uploads {
				atts[i] = Attachment{URL: obj.URL, RemoteID: obj.RemoteID}
			}
			if err := h.store.ReplaceAttachments(ctx, d, rec.ID, atts); err != nil {
				h.discardUploads(ctx, d, uploads)
				return apperrors.RespondWithError(c, apperrors.NewStore("Failed to replace attachments.", err))
			}
			for _, att := range old {
				h.discardRemote(ctx, d, att.RemoteID)
			}
		}
	}

	if len(fields) > 0 {
		if err := h.store.Update(ctx, d, rec.ID, fields); err != nil {
			if errors.Is(err, ErrNotFound) {
				return apperrors.RespondWithError(c, apperrors.NewNotFound(
					apperrors.ErrCodeRecordNotFound, "Record not found."))
			}
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to update record.", err))
		}
	}

	updated, err := h.store.GetByID(ctx, d, rec.ID)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewStore("Failed to reload record.", err))
	}

	h.log.Info("Record updated",
		logger.ContentType(d.Name),
		logger.RecordID(rec.ID),
		logger.Count(len(in.Files)),
	)
	return apperrors.RespondWithSuccess(c, updated)
}

// Toggle flips only the visibility flag. No cascading effects.
func (h *Handler) Toggle(d *Descriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(ToggleRequest)
		if err := c.Bind(req); err != nil {
			return apperrors.RespondWithError(c, apperrors.NewValidation(
				apperrors.ErrCodeValidationFailed, "Invalid request payload."))
		}
		if req.ID == 0 || req.IsActive == nil {
			return apperrors.RespondWithError(c, apperrors.NewValidation(
				apperrors.ErrCodeMissingField, "Both id and isActive are required."))
		}

		ctx := c.Request().Context()
		if err := h.store.SetActive(ctx, d, req.ID, *req.IsActive); err != nil {
			if errors.Is(err, ErrNotFound) {
				return apperrors.RespondWithError(c, apperrors.NewNotFound(
					apperrors.ErrCodeRecordNotFound, "Record not found."))
			}
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to toggle record.", err))
		}

		rec, err := h.store.GetByID(ctx, d, req.ID)
		if err != nil {
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to reload record.", err))
		}
		return apperrors.RespondWithSuccess(c, rec)
	}
}

// Delete removes the record, its attachment rows and, best-effort, their
// remote media. Tolerates records without attachments.
func (h *Handler) Delete(d *Descriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		idStr := c.QueryParam("id")
		if idStr == "" {
			return apperrors.RespondWithError(c, apperrors.NewValidation(
				apperrors.ErrCodeMissingField, "Query parameter id is required."))
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return apperrors.RespondWithError(c, apperrors.NewValidation(
				apperrors.ErrCodeValidationFailed, "Query parameter id must be an integer."))
		}

		ctx := c.Request().Context()
		rec, err := h.store.GetByID(ctx, d, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return apperrors.RespondWithError(c, apperrors.NewNotFound(
					apperrors.ErrCodeRecordNotFound, "Record not found."))
			}
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to load record.", err))
		}

		h.discardRecordMedia(ctx, d, rec)

		if d.Mode == AttachmentMulti {
			if err := h.store.DeleteAttachments(ctx, d, rec.ID); err != nil {
				return apperrors.RespondWithError(c, apperrors.NewStore("Failed to delete attachments.", err))
			}
		}
		if err := h.store.Delete(ctx, d, rec.ID); err != nil {
			return apperrors.RespondWithError(c, apperrors.NewStore("Failed to delete record.", err))
		}

		h.log.Info("Record deleted", logger.ContentType(d.Name), logger.RecordID(rec.ID))
		return apperrors.RespondWithSuccess(c, map[string]string{
			"message": fmt.Sprintf("%s record deleted successfully", d.Name),
		})
	}
}

// --- input parsing and validation ---

// parseSaveInput reads the multipart form into a typed input. Only the
// fields the descriptor carries are read; nil means the field was absent
// from the form.
func (h *Handler) parseSaveInput(c echo.Context, d *Descriptor) (*SaveInput, *apperrors.AppError) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidation(
			apperrors.ErrCodeValidationFailed, "Request must be multipart/form-data.")
	}

	in := &SaveInput{}

	if idStr := formField(form, "id"); idStr != nil {
		id, err := strconv.ParseInt(*idStr, 10, 64)
		if err != nil {
			return nil, apperrors.NewValidation(
				apperrors.ErrCodeValidationFailed, "Field id must be an integer.")
		}
		in.ID = &id
	}

	in.Title = formField(form, "title")
	if desc := formField(form, "description"); desc != nil {
		sanitized := h.html.Sanitize(*desc)
		in.Description = &sanitized
	}
	if d.HasPrice {
		in.Price = formField(form, "price")
	}
	if d.HasCategory {
		in.Category = formField(form, "category")
	}
	if d.HasSlot {
		in.Slot = formField(form, "slot")
	}

	in.Files = append(in.Files, form.File["file"]...)
	in.Files = append(in.Files, form.File["files"]...)

	if d.Mode == AttachmentSingle && len(in.Files) > 1 {
		return nil, apperrors.NewValidation(
			apperrors.ErrCodeValidationFailed,
			fmt.Sprintf("Content type %s accepts a single file.", d.Name))
	}

	// Payload validation happens here, before any side effect; the media
	// store itself performs none.
	for _, fh := range in.Files {
		if fh.Size == 0 {
			return nil, apperrors.NewValidation(
				apperrors.ErrCodeEmptyFile, fmt.Sprintf("File %s is empty.", fh.Filename))
		}
		contentType := fh.Header.Get("Content-Type")
		if !d.allowsMedia(contentType) {
			return nil, apperrors.NewValidation(
				apperrors.ErrCodeInvalidFileType,
				fmt.Sprintf("File type %s is not allowed for %s.", contentType, d.Name))
		}
	}

	return in, nil
}

func (h *Handler) validateCreate(d *Descriptor, in *SaveInput) *apperrors.AppError {
	if in.Title == nil || *in.Title == "" {
		return apperrors.NewValidation(apperrors.ErrCodeMissingField, "Field title is required.")
	}
	if d.HasPrice && (in.Price == nil || *in.Price == "") {
		return apperrors.NewValidation(apperrors.ErrCodeMissingField, "Field price is required.")
	}
	if d.HasCategory {
		if in.Category == nil || *in.Category == "" {
			return apperrors.NewValidation(apperrors.ErrCodeMissingField, "Field category is required.")
		}
		if !ValidCategories[*in.Category] {
			return apperrors.NewValidation(apperrors.ErrCodeInvalidCategory,
				"Category must be one of Economic, Standard, Premium.")
		}
	}
	if d.HasSlot {
		if in.Slot == nil || *in.Slot == "" {
			slot := SlotGallery
			in.Slot = &slot
		} else if !ValidSlots[*in.Slot] {
			return apperrors.NewValidation(apperrors.ErrCodeInvalidSlot,
				"Slot must be hero or gallery.")
		}
	}
	if d.MediaRequired && len(in.Files) == 0 {
		return apperrors.NewValidation(apperrors.ErrCodeMissingFile,
			fmt.Sprintf("Content type %s requires at least one file.", d.Name))
	}
	return nil
}

func (h *Handler) validateUpdate(d *Descriptor, in *SaveInput) *apperrors.AppError {
	if in.Title != nil && *in.Title == "" {
		return apperrors.NewValidation(apperrors.ErrCodeMissingField, "Field title cannot be empty.")
	}
	if in.Category != nil && !ValidCategories[*in.Category] {
		return apperrors.NewValidation(apperrors.ErrCodeInvalidCategory,
			"Category must be one of Economic, Standard, Premium.")
	}
	if in.Slot != nil && !ValidSlots[*in.Slot] {
		return apperrors.NewValidation(apperrors.ErrCodeInvalidSlot, "Slot must be hero or gallery.")
	}
	return nil
}

// updateFields collects the text columns present in the request. Keys
// are fixed column names, never raw form keys.
func (h *Handler) updateFields(d *Descriptor, in *SaveInput) map[string]interface{} {
	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if d.HasPrice && in.Price != nil {
		fields["price"] = *in.Price
	}
	if d.HasCategory && in.Category != nil {
		fields["category"] = *in.Category
	}
	if d.HasSlot && in.Slot != nil {
		fields["slot"] = *in.Slot
	}
	return fields
}

// --- upload pipeline ---

// uploadAll transmits every attached file to the media store. Files are
// processed sequentially within the request; a large multi-file upload
// runs against whatever time budget the platform imposes. Any failure
// aborts the enclosing write: nothing is persisted referencing a failed
// upload, and no retry is attempted (retrying would duplicate remote
// objects).
func (h *Handler) uploadAll(ctx context.Context, d *Descriptor, files []*multipart.FileHeader) ([]mediastore.Object, *apperrors.AppError) {
	uploads := make([]mediastore.Object, 0, len(files))

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			h.discardUploads(ctx, d, uploads)
			return nil, apperrors.NewUpload("Failed to open uploaded file.", err)
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			h.discardUploads(ctx, d, uploads)
			return nil, apperrors.NewUpload("Failed to read uploaded file.", err)
		}

		obj, err := h.media.Upload(ctx, mediastore.Payload{
			Content:     content,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Folder:      d.Folder,
		})
		if err != nil {
			h.discardUploads(ctx, d, uploads)
			return nil, apperrors.NewUpload("Failed to upload file to media store.", err).
				WithDetail(err.Error())
		}
		uploads = append(uploads, *obj)
	}

	return uploads, nil
}

// discardUploads best-effort deletes remote objects created earlier in
// an aborted request.
func (h *Handler) discardUploads(ctx context.Context, d *Descriptor, uploads []mediastore.Object) {
	for _, obj := range uploads {
		h.discardRemote(ctx, d, obj.RemoteID)
	}
}

// formField returns the trimmed first value of a form field, or nil when
// the field was absent.
func formField(form *multipart.Form, name string) *string {
	vals, ok := form.Value[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := strings.TrimSpace(vals[0])
	return &v
}
