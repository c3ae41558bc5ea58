package domain

// BoardPatch is a partial board update. Nil fields are left untouched.
type BoardPatch struct {
	Name *string `json:"name,omitempty"`
}

// Apply merges the patch into b.
func (p BoardPatch) Apply(b *Board) {
	if p.Name != nil {
		b.Name = *p.Name
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p BoardPatch) IsEmpty() bool {
	return p.Name == nil
}

// ListPatch is a partial list update. Nil fields are left untouched.
type ListPatch struct {
	Name     *string  `json:"name,omitempty"`
	Position *float64 `json:"position,omitempty"`
}

// Apply merges the patch into l.
func (p ListPatch) Apply(l *List) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p ListPatch) IsEmpty() bool {
	return p.Name == nil && p.Position == nil
}

// CardPatch is a partial card update. Nil fields are left untouched.
// A move across lists sets ListID, BoardID and Position together.
type CardPatch struct {
	ListID      *string  `json:"listID,omitempty"`
	BoardID     *string  `json:"boardID,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Position    *float64 `json:"position,omitempty"`
}

// Apply merges the patch into c.
func (p CardPatch) Apply(c *Card) {
	if p.ListID != nil {
		c.ListID = *p.ListID
	}
	if p.BoardID != nil {
		c.BoardID = *p.BoardID
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p CardPatch) IsEmpty() bool {
	return p.ListID == nil && p.BoardID == nil && p.Name == nil && p.Description == nil && p.Position == nil
}

// Snapshot patches restore every mutable field of a record. They are used to
// roll back optimistic writes, where an explicit empty value must win.

// BoardSnapshotPatch returns a patch restoring all mutable fields of b.
func BoardSnapshotPatch(b Board) BoardPatch {
	return BoardPatch{Name: Ptr(b.Name)}
}

// ListSnapshotPatch returns a patch restoring all mutable fields of l.
func ListSnapshotPatch(l List) ListPatch {
	return ListPatch{Name: Ptr(l.Name), Position: Ptr(l.Position)}
}

// CardSnapshotPatch returns a patch restoring all mutable fields of c.
func CardSnapshotPatch(c Card) CardPatch {
	return CardPatch{
		ListID:      Ptr(c.ListID),
		BoardID:     Ptr(c.BoardID),
		Name:        Ptr(c.Name),
		Description: Ptr(c.Description),
		Position:    Ptr(c.Position),
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
