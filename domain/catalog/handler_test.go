package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-cms/domain/catalog"
	"travel-cms/pkg/mediastore"
)

// --- fakes ---

// fakeMedia records uploads and deletions instead of talking to S3.
type fakeMedia struct {
	seq        int
	uploaded   []string
	deleted    []string
	failUpload bool
	failDelete bool
}

func (f *fakeMedia) Upload(_ context.Context, p mediastore.Payload) (*mediastore.Object, error) {
	if f.failUpload {
		return nil, errors.New("remote store unavailable")
	}
	f.seq++
	id := fmt.Sprintf("%s/obj-%d", p.Folder, f.seq)
	f.uploaded = append(f.uploaded, id)
	return &mediastore.Object{
		URL:      "https://media.test/" + id,
		RemoteID: id,
	}, nil
}

func (f *fakeMedia) Delete(_ context.Context, remoteID string) error {
	f.deleted = append(f.deleted, remoteID)
	if f.failDelete {
		return errors.New("remote delete failed")
	}
	return nil
}

func (f *fakeMedia) hasDeleted(remoteID string) bool {
	for _, id := range f.deleted {
		if id == remoteID {
			return true
		}
	}
	return false
}

// memStore is an in-memory Store covering the handler contract.
type memStore struct {
	nextID  int64
	nextAtt int64
	base    time.Time
	records map[string][]catalog.Record
	atts    map[string][]catalog.Attachment
}

func newMemStore() *memStore {
	return &memStore{
		base:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		records: map[string][]catalog.Record{},
		atts:    map[string][]catalog.Attachment{},
	}
}

func (s *memStore) List(_ context.Context, d *catalog.Descriptor) ([]catalog.Record, error) {
	recs := append([]catalog.Record(nil), s.records[d.Table]...)
	sort.Slice(recs, func(i, j int) bool {
		if d.OrderAsc {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if d.Mode == catalog.AttachmentMulti {
		for i := range recs {
			recs[i].Attachments = s.attachmentsOf(d, recs[i].ID)
		}
	}
	return recs, nil
}

func (s *memStore) GetByID(_ context.Context, d *catalog.Descriptor, id int64) (*catalog.Record, error) {
	for _, rec := range s.records[d.Table] {
		if rec.ID == id {
			out := rec
			if d.Mode == catalog.AttachmentMulti {
				out.Attachments = s.attachmentsOf(d, id)
			}
			return &out, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *memStore) FindByCategory(_ context.Context, d *catalog.Descriptor, category string) (*catalog.Record, error) {
	for _, rec := range s.records[d.Table] {
		if rec.Category != nil && *rec.Category == category {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindHero(_ context.Context, d *catalog.Descriptor) (*catalog.Record, error) {
	for _, rec := range s.records[d.Table] {
		if rec.Slot != nil && *rec.Slot == catalog.SlotHero {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) Insert(_ context.Context, d *catalog.Descriptor, rec *catalog.Record) error {
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = s.base.Add(time.Duration(s.nextID) * time.Second)
	stored := *rec
	stored.Attachments = nil
	s.records[d.Table] = append(s.records[d.Table], stored)
	return nil
}

func (s *memStore) Update(_ context.Context, d *catalog.Descriptor, id int64, fields map[string]interface{}) error {
	recs := s.records[d.Table]
	for i := range recs {
		if recs[i].ID != id {
			continue
		}
		for col, val := range fields {
			switch col {
			case "title":
				recs[i].Title = val.(string)
			case "description":
				v := val.(string)
				recs[i].Description = &v
			case "price":
				v := val.(string)
				recs[i].Price = &v
			case "category":
				v := val.(string)
				recs[i].Category = &v
			case "slot":
				v := val.(string)
				recs[i].Slot = &v
			case "image_url":
				v := val.(string)
				recs[i].ImageURL = &v
			case "remote_id":
				v := val.(string)
				recs[i].RemoteID = &v
			}
		}
		return nil
	}
	return catalog.ErrNotFound
}

func (s *memStore) SetActive(_ context.Context, d *catalog.Descriptor, id int64, active bool) error {
	recs := s.records[d.Table]
	for i := range recs {
		if recs[i].ID == id {
			recs[i].IsActive = active
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, d *catalog.Descriptor, id int64) error {
	recs := s.records[d.Table]
	for i := range recs {
		if recs[i].ID == id {
			s.records[d.Table] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (s *memStore) AttachmentsByParent(_ context.Context, d *catalog.Descriptor, parentID int64) ([]catalog.Attachment, error) {
	return s.attachmentsOf(d, parentID), nil
}

func (s *memStore) ReplaceAttachments(ctx context.Context, d *catalog.Descriptor, parentID int64, atts []catalog.Attachment) error {
	if err := s.DeleteAttachments(ctx, d, parentID); err != nil {
		return err
	}
	for i := range atts {
		s.nextAtt++
		atts[i].ID = s.nextAtt
		atts[i].ParentID = parentID
		s.atts[d.AttachmentTable] = append(s.atts[d.AttachmentTable], atts[i])
	}
	return nil
}

func (s *memStore) DeleteAttachments(_ context.Context, d *catalog.Descriptor, parentID int64) error {
	kept := s.atts[d.AttachmentTable][:0]
	for _, a := range s.atts[d.AttachmentTable] {
		if a.ParentID != parentID {
			kept = append(kept, a)
		}
	}
	s.atts[d.AttachmentTable] = kept
	return nil
}

func (s *memStore) attachmentsOf(d *catalog.Descriptor, parentID int64) []catalog.Attachment {
	var out []catalog.Attachment
	for _, a := range s.atts[d.AttachmentTable] {
		if a.ParentID == parentID {
			out = append(out, a)
		}
	}
	return out
}

// --- request helpers ---

type testFile struct {
	field       string
	name        string
	contentType string
	content     []byte
}

func pngFile(field, name string) testFile {
	return testFile{field: field, name: name, contentType: "image/png", content: []byte("png-bytes")}
}

func multipartBody(t *testing.T, fields map[string]string, files ...testFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for key, val := range fields {
		require.NoError(t, w.WriteField(key, val))
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		hdr.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

type env struct {
	store *memStore
	media *fakeMedia
	h     *catalog.Handler
	e     *echo.Echo
}

func newEnv() *env {
	store := newMemStore()
	media := &fakeMedia{}
	return &env{
		store: store,
		media: media,
		h:     catalog.NewHandler(store, media),
		e:     echo.New(),
	}
}

func (te *env) save(t *testing.T, d *catalog.Descriptor, fields map[string]string, files ...testFile) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, "/"+d.Name, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := te.e.NewContext(req, rec)
	require.NoError(t, te.h.Save(d)(c))
	return rec
}

func (te *env) toggle(t *testing.T, d *catalog.Descriptor, payload string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPatch, "/"+d.Name, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := te.e.NewContext(req, rec)
	require.NoError(t, te.h.Toggle(d)(c))
	return rec
}

func (te *env) delete(t *testing.T, d *catalog.Descriptor, query string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, "/"+d.Name+query, nil)
	rec := httptest.NewRecorder()
	c := te.e.NewContext(req, rec)
	require.NoError(t, te.h.Delete(d)(c))
	return rec
}

func (te *env) list(t *testing.T, d *catalog.Descriptor) []map[string]interface{} {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/"+d.Name, nil)
	rec := httptest.NewRecorder()
	c := te.e.NewContext(req, rec)
	require.NoError(t, te.h.List(d)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func parseRecord(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func descByName(t *testing.T, name string) *catalog.Descriptor {
	t.Helper()

	for _, d := range catalog.Descriptors() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("unknown descriptor %s", name)
	return nil
}

// --- create ---

func TestCreatePackage_Success(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.save(t, d, map[string]string{
		"title":    "Premium Hajj",
		"price":    "5000",
		"category": "Premium",
	}, pngFile("file", "hero.png"))

	require.Equal(t, http.StatusCreated, rec.Code)

	got := parseRecord(t, rec)
	assert.Equal(t, "Premium Hajj", got["title"])
	assert.Equal(t, "Premium", got["category"])
	assert.Equal(t, true, got["isActive"])
	assert.Contains(t, got["imageUrl"], "https://media.test/hajj/")
	assert.NotEmpty(t, got["createdAt"])
}

func TestCreate_MissingTitle(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.save(t, d, map[string]string{
		"price":    "5000",
		"category": "Premium",
	}, pngFile("file", "hero.png"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, te.store.records[d.Table])
	assert.Empty(t, te.media.uploaded)
}

func TestCreate_InvalidCategory(t *testing.T) {
	te := newEnv()
	d := descByName(t, "umrah")

	rec := te.save(t, d, map[string]string{
		"title":    "Budget Umrah",
		"price":    "1200",
		"category": "Luxury",
	}, pngFile("file", "img.png"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, "VALIDATION_INVALID_CATEGORY", got["error"])
}

func TestCreate_MissingFileWhenRequired(t *testing.T) {
	te := newEnv()
	d := descByName(t, "why-choose-us")

	rec := te.save(t, d, map[string]string{"title": "Experienced guides"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, "VALIDATION_MISSING_FILE", got["error"])
}

func TestCreate_EmptyFileRejected(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.save(t, d, map[string]string{
		"title":    "Standard Hajj",
		"price":    "3000",
		"category": "Standard",
	}, testFile{field: "file", name: "empty.png", contentType: "image/png", content: nil})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, te.media.uploaded)
}

func TestCreate_WrongMediaTypeRejected(t *testing.T) {
	te := newEnv()
	d := descByName(t, "testimonials")

	rec := te.save(t, d, map[string]string{"title": "Ahmed"},
		testFile{field: "file", name: "cv.pdf", contentType: "application/pdf", content: []byte("pdf")})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, "VALIDATION_INVALID_FILE_TYPE", got["error"])
}

func TestCreate_OptionalPhotoMayBeOmitted(t *testing.T) {
	te := newEnv()
	d := descByName(t, "testimonials")

	rec := te.save(t, d, map[string]string{
		"title":       "Fatimah",
		"description": "A wonderful journey.",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	got := parseRecord(t, rec)
	assert.Nil(t, got["imageUrl"])
}

func TestCreate_UploadFailureAbortsWrite(t *testing.T) {
	te := newEnv()
	te.media.failUpload = true
	d := descByName(t, "hajj")

	rec := te.save(t, d, map[string]string{
		"title":    "Economic Hajj",
		"price":    "2000",
		"category": "Economic",
	}, pngFile("file", "img.png"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, te.store.records[d.Table], "no partial record may reference a failed upload")
}

func TestCreate_SanitizesDescription(t *testing.T) {
	te := newEnv()
	d := descByName(t, "testimonials")

	rec := te.save(t, d, map[string]string{
		"title":       "Yusuf",
		"description": `Great trip!<script>alert("x")</script>`,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, "Great trip!", got["description"])
}

// --- update ---

func TestUpdate_PreservesUnsuppliedFields(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	created := parseRecord(t, te.save(t, d, map[string]string{
		"title":       "Premium Hajj",
		"description": "Five star",
		"price":       "5000",
		"category":    "Premium",
	}, pngFile("file", "hero.png")))

	rec := te.save(t, d, map[string]string{
		"id":    fmt.Sprintf("%.0f", created["id"].(float64)),
		"title": "Premium Hajj 2026",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, "Premium Hajj 2026", got["title"])
	assert.Equal(t, "Five star", got["description"])
	assert.Equal(t, "5000", got["price"])
	assert.Equal(t, "Premium", got["category"])
	assert.Equal(t, created["imageUrl"], got["imageUrl"])
	assert.Empty(t, te.media.deleted, "no media replaced, nothing to clean up")
}

func TestUpdate_ReplacesAttachment(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	created := parseRecord(t, te.save(t, d, map[string]string{
		"title":    "Standard Hajj",
		"price":    "3000",
		"category": "Standard",
	}, pngFile("file", "old.png")))
	oldRemote := created["remoteId"].(string)

	rec := te.save(t, d, map[string]string{
		"id": fmt.Sprintf("%.0f", created["id"].(float64)),
	}, pngFile("file", "new.png"))

	require.Equal(t, http.StatusOK, rec.Code)
	got := parseRecord(t, rec)
	assert.NotEqual(t, created["imageUrl"], got["imageUrl"])
	assert.NotEqual(t, oldRemote, got["remoteId"])
	assert.True(t, te.media.hasDeleted(oldRemote), "prior remote object must be deleted")

	// The old remote id is no longer referenced anywhere.
	for _, r := range te.store.records[d.Table] {
		if r.RemoteID != nil {
			assert.NotEqual(t, oldRemote, *r.RemoteID)
		}
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	te := newEnv()
	d := descByName(t, "umrah")

	rec := te.save(t, d, map[string]string{"id": "99", "title": "Anything"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_RemoteCleanupFailureDoesNotBlock(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	created := parseRecord(t, te.save(t, d, map[string]string{
		"title":    "Economic Hajj",
		"price":    "2000",
		"category": "Economic",
	}, pngFile("file", "old.png")))

	te.media.failDelete = true
	rec := te.save(t, d, map[string]string{
		"id": fmt.Sprintf("%.0f", created["id"].(float64)),
	}, pngFile("file", "new.png"))

	assert.Equal(t, http.StatusOK, rec.Code, "cleanup failure is best-effort and must not block the update")
}

func TestUpdate_SlotSwitchClearsNothingStale(t *testing.T) {
	te := newEnv()
	d := descByName(t, "umrah-service")

	created := parseRecord(t, te.save(t, d, map[string]string{
		"title": "Ziyarah tours",
		"slot":  "gallery",
	}, pngFile("file", "g.png")))

	rec := te.save(t, d, map[string]string{
		"id":   fmt.Sprintf("%.0f", created["id"].(float64)),
		"slot": "hero",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, "hero", got["slot"])
	// Single slot discriminator: the record is hero-bearing now, with no
	// stale gallery counterpart left behind.
	assert.Len(t, te.store.records[d.Table], 1)
}

// --- toggle ---

func TestToggle_IdempotentUnderRepetition(t *testing.T) {
	te := newEnv()
	d := descByName(t, "international-tour")

	created := parseRecord(t, te.save(t, d, map[string]string{
		"title": "Istanbul Highlights",
	}, pngFile("file", "tour.png")))
	id := int64(created["id"].(float64))

	rec := te.toggle(t, d, fmt.Sprintf(`{"id":%d,"isActive":false}`, id))
	require.Equal(t, http.StatusOK, rec.Code)
	got := parseRecord(t, rec)
	assert.Equal(t, false, got["isActive"])

	rec = te.toggle(t, d, fmt.Sprintf(`{"id":%d,"isActive":true}`, id))
	require.Equal(t, http.StatusOK, rec.Code)
	got = parseRecord(t, rec)
	assert.Equal(t, true, got["isActive"])
	assert.Equal(t, created["title"], got["title"])
	assert.Equal(t, created["imageUrl"], got["imageUrl"])

	// Still listed after deactivation round-trip.
	assert.Len(t, te.list(t, d), 1)
}

func TestToggle_MissingFields(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.toggle(t, d, `{"id":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = te.toggle(t, d, `{"isActive":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggle_UnknownID(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.toggle(t, d, `{"id":42,"isActive":false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- delete ---

func TestDelete_CascadesAttachments(t *testing.T) {
	te := newEnv()
	d := descByName(t, "knowledge")

	created := parseRecord(t, te.save(t, d, map[string]string{
		"title": "Manasik guide",
	},
		pngFile("files", "a.png"),
		testFile{field: "files", name: "b.mp4", contentType: "video/mp4", content: []byte("vid")},
	))
	id := int64(created["id"].(float64))
	require.Len(t, te.store.atts[d.AttachmentTable], 2)

	rec := te.delete(t, d, fmt.Sprintf("?id=%d", id))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, te.store.atts[d.AttachmentTable], "no residual attachment rows")
	assert.Len(t, te.media.deleted, 2, "both remote objects deleted")
	assert.Empty(t, te.list(t, d))
}

func TestDelete_RecordWithoutAttachments(t *testing.T) {
	te := newEnv()
	d := descByName(t, "testimonials")

	created := parseRecord(t, te.save(t, d, map[string]string{"title": "Omar"}))
	id := int64(created["id"].(float64))

	rec := te.delete(t, d, fmt.Sprintf("?id=%d", id))
	require.Equal(t, http.StatusOK, rec.Code)

	got := parseRecord(t, rec)
	assert.Contains(t, got["message"], "deleted")
	assert.Empty(t, te.list(t, d))
}

func TestDelete_MissingID(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.delete(t, d, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_UnknownID(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	rec := te.delete(t, d, "?id=7")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- list ---

func TestList_OrderPerContentType(t *testing.T) {
	te := newEnv()

	tours := descByName(t, "international-tour")
	te.save(t, tours, map[string]string{"title": "First"}, pngFile("file", "1.png"))
	te.save(t, tours, map[string]string{"title": "Second"}, pngFile("file", "2.png"))

	listed := te.list(t, tours)
	require.Len(t, listed, 2)
	assert.Equal(t, "Second", listed[0]["title"], "default ordering is newest first")

	reviews := descByName(t, "testimonials")
	te.save(t, reviews, map[string]string{"title": "Early"})
	te.save(t, reviews, map[string]string{"title": "Late"})

	listed = te.list(t, reviews)
	require.Len(t, listed, 2)
	assert.Equal(t, "Early", listed[0]["title"], "testimonials list oldest first")
}
