package catalog

// AttachmentMode says how a content type stores uploaded media.
type AttachmentMode int

const (
	// AttachmentSingle keeps one url/remote_id pair inline on the record.
	AttachmentSingle AttachmentMode = iota
	// AttachmentMulti keeps any number of child rows in a separate table.
	AttachmentMulti
)

// Policy is the exclusivity rule applied when creating a record.
type Policy int

const (
	// PolicyNone allows any number of coexisting records.
	PolicyNone Policy = iota
	// PolicyCategoryExclusive keeps at most one record per category;
	// creating a record replaces the previous one in the same category.
	PolicyCategoryExclusive
	// PolicyHeroSingleton keeps at most one hero-bearing record across
	// the whole table. Gallery records are unaffected.
	PolicyHeroSingleton
)

// Descriptor parameterizes the generic handler and store for one content
// type: which table it lives in, which columns it carries, how its media
// is attached and which replacement policy guards creation.
type Descriptor struct {
	Name            string // route segment, e.g. "hajj"
	Table           string
	AttachmentTable string // only for AttachmentMulti
	Mode            AttachmentMode
	Policy          Policy
	HasPrice        bool
	HasCategory     bool
	HasSlot         bool
	MediaRequired   bool // create without any file is rejected
	OrderAsc        bool // list ordering by created_at
	Folder          string
	AllowedMedia    []string // accepted Content-Type prefixes
}

var imageOnly = []string{"image/"}

// descriptors lists every content type served by the admin console.
// Tables and attachment tables must match the goose migrations.
var descriptors = []*Descriptor{
	{
		Name:          "hajj",
		Table:         "hajj_packages",
		Mode:          AttachmentSingle,
		Policy:        PolicyCategoryExclusive,
		HasPrice:      true,
		HasCategory:   true,
		MediaRequired: true,
		Folder:        "hajj",
		AllowedMedia:  imageOnly,
	},
	{
		Name:          "umrah",
		Table:         "umrah_packages",
		Mode:          AttachmentSingle,
		Policy:        PolicyCategoryExclusive,
		HasPrice:      true,
		HasCategory:   true,
		MediaRequired: true,
		Folder:        "umrah",
		AllowedMedia:  imageOnly,
	},
	{
		Name:          "umrah-service",
		Table:         "umrah_services",
		Mode:          AttachmentSingle,
		Policy:        PolicyHeroSingleton,
		HasSlot:       true,
		MediaRequired: true,
		Folder:        "umrah-services",
		AllowedMedia:  imageOnly,
	},
	{
		Name:          "international-tour",
		Table:         "international_tours",
		Mode:          AttachmentSingle,
		Policy:        PolicyHeroSingleton,
		HasSlot:       true,
		MediaRequired: true,
		Folder:        "tours",
		AllowedMedia:  imageOnly,
	},
	{
		Name:            "knowledge",
		Table:           "knowledge_items",
		AttachmentTable: "knowledge_attachments",
		Mode:            AttachmentMulti,
		Policy:          PolicyNone,
		MediaRequired:   true,
		Folder:          "knowledge",
		AllowedMedia:    []string{"image/", "video/", "application/pdf"},
	},
	{
		Name:         "testimonials",
		Table:        "testimonials",
		Mode:         AttachmentSingle,
		Policy:       PolicyNone,
		OrderAsc:     true,
		Folder:       "testimonials",
		AllowedMedia: imageOnly,
	},
	{
		Name:          "why-choose-us",
		Table:         "why_choose_us",
		Mode:          AttachmentSingle,
		Policy:        PolicyNone,
		MediaRequired: true,
		Folder:        "why-choose-us",
		AllowedMedia:  imageOnly,
	},
}

// Descriptors returns every registered content type descriptor.
func Descriptors() []*Descriptor {
	return descriptors
}

// columns returns the table's column list in a stable order. Missing
// optional columns simply never appear in queries for that type.
func (d *Descriptor) columns() []string {
	cols := []string{"id", "title", "description"}
	if d.HasPrice {
		cols = append(cols, "price")
	}
	if d.HasCategory {
		cols = append(cols, "category")
	}
	if d.HasSlot {
		cols = append(cols, "slot")
	}
	if d.Mode == AttachmentSingle {
		cols = append(cols, "image_url", "remote_id")
	}
	return append(cols, "is_active", "created_at")
}

// allowsMedia reports whether the uploaded Content-Type is acceptable
// for this content type.
func (d *Descriptor) allowsMedia(contentType string) bool {
	for _, prefix := range d.AllowedMedia {
		if len(contentType) >= len(prefix) && contentType[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
