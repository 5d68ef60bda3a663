package models

import "time"

// Credential is the ephemeral login triple. It is forwarded to the
// identity provider and never persisted server-side.
type Credential struct {
	SchoolCode string `validate:"required"`
	Username   string `validate:"required"`
	Password   string `validate:"required"`
}

// Profile is one student linked to a guardian account. Index is the only
// stable selector across the two-phase login: the upstream exposes no
// persistent profile IDs to the caller.
type Profile struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	School    string `json:"school"`
	AuthToken string `json:"-"`
}

// Student is the identity block of the login envelope.
type Student struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	School string `json:"school"`
}

// Session is returned to the client so it can run per-profile calls and
// later syncs. Nothing server-side outlives the request that built it.
type Session struct {
	SchoolCode     string `json:"schoolCode"`
	AuthToken      string `json:"authToken"`
	AccessToken    string `json:"accessToken"`
	UserName       string `json:"userName"`
	ProfileIndex   int    `json:"profileIndex"`
	TokenExpiresAt int64  `json:"tokenExpiresAt,omitempty"`
}

// Grade, Task and Announcement carry duplicate Italian/English JSON keys:
// older frontend builds read one set, newer ones the other, and the
// external contract requires both.

type Grade struct {
	ID      string `json:"id"`
	Materia string `json:"materia"`
	Valore  string `json:"valore"`
	Data    string `json:"data"`
	Tipo    string `json:"tipo"`
	Subject string `json:"subject"`
	Value   string `json:"value"`
	Date    string `json:"date"`
}

type Task struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Subject    string `json:"subject"`
	DueDate    string `json:"due_date"`
	DatCompito string `json:"datCompito"`
	Materia    string `json:"materia"`
	Done       bool   `json:"done"`
}

type Announcement struct {
	ID      string `json:"id"`
	Titolo  string `json:"titolo"`
	Testo   string `json:"testo"`
	Autore  string `json:"autore"`
	Data    string `json:"data"`
	URL     string `json:"url"`
	Oggetto string `json:"oggetto"`
}

// StoredProfile is the denormalized display record upserted into the
// profile store. Keyed by the opaque "school:user:index" string; used for
// display only, never as an authentication cache.
type StoredProfile struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Class      string    `db:"class" json:"class"`
	School     string    `db:"school" json:"school"`
	Avatar     *string   `db:"avatar" json:"avatar,omitempty"`
	LastActive time.Time `db:"last_active" json:"last_active"`
}
