package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-cms/domain/catalog"
)

func TestCategoryExclusivity_ReplacesPriorRecord(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	first := parseRecord(t, te.save(t, d, map[string]string{
		"title":    "Premium Hajj",
		"price":    "5000",
		"category": "Premium",
	}, pngFile("file", "one.png")))
	firstRemote := first["remoteId"].(string)

	rec := te.save(t, d, map[string]string{
		"title":    "Premium Hajj 2",
		"price":    "6000",
		"category": "Premium",
	}, pngFile("file", "two.png"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var premium []string
	for _, r := range te.store.records[d.Table] {
		if r.Category != nil && *r.Category == "Premium" {
			premium = append(premium, r.Title)
		}
	}
	require.Len(t, premium, 1, "exactly one Premium record may exist")
	assert.Equal(t, "Premium Hajj 2", premium[0])
	assert.True(t, te.media.hasDeleted(firstRemote), "replaced record's remote media must be deleted")
}

func TestCategoryExclusivity_OtherCategoriesUntouched(t *testing.T) {
	te := newEnv()
	d := descByName(t, "umrah")

	te.save(t, d, map[string]string{
		"title": "Economic Umrah", "price": "1500", "category": "Economic",
	}, pngFile("file", "a.png"))
	te.save(t, d, map[string]string{
		"title": "Standard Umrah", "price": "2500", "category": "Standard",
	}, pngFile("file", "b.png"))
	te.save(t, d, map[string]string{
		"title": "Economic Umrah v2", "price": "1600", "category": "Economic",
	}, pngFile("file", "c.png"))

	assert.Len(t, te.store.records[d.Table], 2)
	standard, err := te.store.FindByCategory(context.Background(), d, "Standard")
	require.NoError(t, err)
	require.NotNil(t, standard)
	assert.Equal(t, "Standard Umrah", standard.Title)
}

func TestCategoryExclusivity_NotAppliedOnUpdate(t *testing.T) {
	te := newEnv()
	d := descByName(t, "hajj")

	te.save(t, d, map[string]string{
		"title": "Premium Hajj", "price": "5000", "category": "Premium",
	}, pngFile("file", "one.png"))
	second := parseRecord(t, te.save(t, d, map[string]string{
		"title": "Economic Hajj", "price": "2000", "category": "Economic",
	}, pngFile("file", "two.png")))

	// Updating a record's text fields never triggers replacement of the
	// category sibling.
	rec := te.save(t, d, map[string]string{
		"id":    fmt.Sprintf("%.0f", second["id"].(float64)),
		"title": "Economic Hajj v2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, te.store.records[d.Table], 2)
}

func TestHeroSingleton_SecondHeroReplacesFirst(t *testing.T) {
	te := newEnv()
	d := descByName(t, "umrah-service")

	first := parseRecord(t, te.save(t, d, map[string]string{
		"title": "Old hero",
		"slot":  "hero",
	}, pngFile("file", "hero1.png")))
	firstRemote := first["remoteId"].(string)

	rec := te.save(t, d, map[string]string{
		"title": "New hero",
		"slot":  "hero",
	}, pngFile("file", "hero2.png"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var heroes []string
	for _, r := range te.store.records[d.Table] {
		if r.Slot != nil && *r.Slot == catalog.SlotHero {
			heroes = append(heroes, r.Title)
		}
	}
	require.Len(t, heroes, 1, "exactly one hero record may exist")
	assert.Equal(t, "New hero", heroes[0])
	assert.True(t, te.media.hasDeleted(firstRemote))
}

func TestHeroSingleton_GalleryRecordsUntouched(t *testing.T) {
	te := newEnv()
	d := descByName(t, "international-tour")

	te.save(t, d, map[string]string{"title": "Gallery A", "slot": "gallery"}, pngFile("file", "a.png"))
	te.save(t, d, map[string]string{"title": "Gallery B", "slot": "gallery"}, pngFile("file", "b.png"))
	te.save(t, d, map[string]string{"title": "Hero", "slot": "hero"}, pngFile("file", "h1.png"))
	te.save(t, d, map[string]string{"title": "Hero v2", "slot": "hero"}, pngFile("file", "h2.png"))

	assert.Len(t, te.store.records[d.Table], 3, "two galleries plus one hero")

	var galleries int
	for _, r := range te.store.records[d.Table] {
		if r.Slot != nil && *r.Slot == catalog.SlotGallery {
			galleries++
		}
	}
	assert.Equal(t, 2, galleries)
}

func TestHeroSingleton_GalleryCreateDoesNotReplaceHero(t *testing.T) {
	te := newEnv()
	d := descByName(t, "umrah-service")

	te.save(t, d, map[string]string{"title": "Hero", "slot": "hero"}, pngFile("file", "h.png"))
	te.save(t, d, map[string]string{"title": "Gallery", "slot": "gallery"}, pngFile("file", "g.png"))

	hero, err := te.store.FindHero(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, hero)
	assert.Equal(t, "Hero", hero.Title)
	assert.Empty(t, te.media.deleted)
}

func TestPolicy_CleanupFailureDoesNotBlockReplacement(t *testing.T) {
	te := newEnv()
	te.media.failDelete = true
	d := descByName(t, "hajj")

	te.save(t, d, map[string]string{
		"title": "Premium Hajj", "price": "5000", "category": "Premium",
	}, pngFile("file", "one.png"))

	rec := te.save(t, d, map[string]string{
		"title": "Premium Hajj 2", "price": "6000", "category": "Premium",
	}, pngFile("file", "two.png"))

	require.Equal(t, http.StatusCreated, rec.Code,
		"remote cleanup failure must not block the replacement create")
	assert.Len(t, te.store.records[d.Table], 1)
}
