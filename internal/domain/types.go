// Package domain defines the normalized domain types for pulpe boards.
// These types mirror the JSON documents served by the pulpe REST API and are
// shared by the store, the mutation coordinator and the TUI.
package domain

import (
	"strings"
	"time"
)

// User represents the owner of a board.
type User struct {
	ID       string `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Board is a container of lists.
type Board struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Owner     *User      `json:"owner,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// OwnerLogin returns the login of the board owner, or "" if unknown.
func (b Board) OwnerLogin() string {
	if b.Owner == nil {
		return ""
	}
	return b.Owner.Login
}

// List is a container of cards. Lists are ordered within a board by Position.
type List struct {
	ID        string     `json:"id"`
	BoardID   string     `json:"boardID"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Position  float64    `json:"position"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Card is a unit of information stored in a list. BoardID is denormalized
// from the owning list and must always agree with it.
type Card struct {
	ID          string     `json:"id"`
	ListID      string     `json:"listID"`
	BoardID     string     `json:"boardID"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Position    float64    `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// BoardSnapshot is a board together with all of its lists and cards, as
// returned by a board fetch.
type BoardSnapshot struct {
	Board
	Lists []List `json:"lists,omitempty"`
	Cards []Card `json:"cards,omitempty"`
}

// BoardRef identifies a board either by ID or by owner login and slug.
type BoardRef struct {
	ID    string
	Owner string
	Slug  string
}

// ParseBoardRef parses "owner/slug" or a bare board ID.
func ParseBoardRef(s string) BoardRef {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if owner, slug, ok := strings.Cut(s, "/"); ok {
		return BoardRef{Owner: owner, Slug: slug}
	}
	return BoardRef{ID: s}
}

// String returns the reference in the form accepted by ParseBoardRef.
func (r BoardRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Owner + "/" + r.Slug
}

// IsZero reports whether the reference is empty.
func (r BoardRef) IsZero() bool {
	return r.ID == "" && (r.Owner == "" || r.Slug == "")
}

// BoardCreate is used to create a board.
type BoardCreate struct {
	Name string `json:"name"`
}

// ListCreate is used to create a list.
type ListCreate struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Position float64 `json:"position"`
}

// CardCreate is used to create a card.
type CardCreate struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Position    float64 `json:"position"`
}

// EntityType names one of the normalized tables.
type EntityType string

// EntityType constants.
const (
	EntityBoard EntityType = "board"
	EntityList  EntityType = "list"
	EntityCard  EntityType = "card"
)
