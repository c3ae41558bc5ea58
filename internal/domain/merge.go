package domain

// Merge copies the non-zero fields of src into b. It is used to fold a
// server response, which may omit fields, into a cached record.
func (b *Board) Merge(src Board) {
	if src.Name != "" {
		b.Name = src.Name
	}
	if src.Slug != "" {
		b.Slug = src.Slug
	}
	if src.Owner != nil {
		owner := *src.Owner
		b.Owner = &owner
	}
	if !src.CreatedAt.IsZero() {
		b.CreatedAt = src.CreatedAt
	}
	if src.UpdatedAt != nil {
		b.UpdatedAt = src.UpdatedAt
	}
}

// Merge copies the non-zero fields of src into l.
func (l *List) Merge(src List) {
	if src.BoardID != "" {
		l.BoardID = src.BoardID
	}
	if src.Name != "" {
		l.Name = src.Name
	}
	if src.Slug != "" {
		l.Slug = src.Slug
	}
	if src.Position != 0 {
		l.Position = src.Position
	}
	if !src.CreatedAt.IsZero() {
		l.CreatedAt = src.CreatedAt
	}
	if src.UpdatedAt != nil {
		l.UpdatedAt = src.UpdatedAt
	}
}

// Merge copies the non-zero fields of src into c.
func (c *Card) Merge(src Card) {
	if src.ListID != "" {
		c.ListID = src.ListID
	}
	if src.BoardID != "" {
		c.BoardID = src.BoardID
	}
	if src.Name != "" {
		c.Name = src.Name
	}
	if src.Slug != "" {
		c.Slug = src.Slug
	}
	if src.Description != "" {
		c.Description = src.Description
	}
	if src.Position != 0 {
		c.Position = src.Position
	}
	if !src.CreatedAt.IsZero() {
		c.CreatedAt = src.CreatedAt
	}
	if src.UpdatedAt != nil {
		c.UpdatedAt = src.UpdatedAt
	}
}
