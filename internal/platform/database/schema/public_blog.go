package schema

// BlogTable represents the 'public.blogs' table
type BlogTable struct {
	Table         string
	ID            string
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	FeaturedImage string
	Published     string
	AuthorID      string
	CreatedAt     string
	UpdatedAt     string
}

// Blog is the schema definition for public.blogs
var Blog = BlogTable{
	Table:         "public.blogs",
	ID:            "id",
	Title:         "title",
	Slug:          "slug",
	Content:       "content",
	Excerpt:       "excerpt",
	FeaturedImage: "featured_image",
	Published:     "published",
	AuthorID:      "author_id",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
}

// Columns returns all standard column names
func (t BlogTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Content, t.Excerpt, t.FeaturedImage,
		t.Published, t.AuthorID, t.CreatedAt, t.UpdatedAt,
	}
}
