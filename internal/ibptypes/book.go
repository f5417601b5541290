// Package ibptypes holds the data model of the heading recovery pipeline
// (§3): Book, Candidate, Score, OracleResult, Proposal, Approval, Chunk,
// Topic, Projection and Run. Types are plain structs with json tags; one
// small group per file, mirroring the teacher pipeline's internal/types
// layout.
package ibptypes

// Science enumerates the fixed set of subject classifications a Book may
// carry.
type Science string

const (
	ScienceFiqh           Science = "Fiqh"
	ScienceAqidah         Science = "Aqidah"
	ScienceUsulAlFiqh     Science = "Usul_al_Fiqh"
	ScienceImla           Science = "Imla"
	ScienceTajwid         Science = "Tajwid"
	ScienceSarf           Science = "Sarf"
	ScienceNahw           Science = "Nahw"
	ScienceBalaghah       Science = "Balaghah"
	ScienceIslamicHistory Science = "Islamic_History"
)

// ValidScience reports whether s is one of the fixed sciences.
func ValidScience(s Science) bool {
	switch s {
	case ScienceFiqh, ScienceAqidah, ScienceUsulAlFiqh, ScienceImla, ScienceTajwid,
		ScienceSarf, ScienceNahw, ScienceBalaghah, ScienceIslamicHistory:
		return true
	}
	return false
}

// SourceFile is one ingested file with its deterministic metadata.
type SourceFile struct {
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	SHA256     string `json:"sha256"`
	Encoding   string `json:"encoding"`
	OrderIndex int    `json:"order_index"`
}

// Book is immutable once manifested.
type Book struct {
	BookID  string       `json:"book_id"`
	Science Science      `json:"science"`
	Files   []SourceFile `json:"file_list"`
}

// BookProfile is the book_profile.json artifact (§6.4): the immutable Book
// plus descriptive metadata that plays no part in identity or hashing.
type BookProfile struct {
	Book   Book   `json:"book"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}
