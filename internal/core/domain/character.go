package domain

// CharacterRole classifies a character's function in the story.
type CharacterRole string

// Recognised character roles.
const (
	RoleProtagonist CharacterRole = "protagonist"
	RoleAntagonist  CharacterRole = "antagonist"
	RoleSupporting  CharacterRole = "supporting character"
)

// IsValid returns true if the role is recognised.
func (r CharacterRole) IsValid() bool {
	switch r {
	case RoleProtagonist, RoleAntagonist, RoleSupporting:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r CharacterRole) String() string {
	return string(r)
}

// Character is a finalized roster member, persisted after the analysis
// pass. Name is the natural key, unique within a book. The transient
// confidence score used during roster construction is deliberately
// absent: it lives only on RosterEntry.
type Character struct {
	// BookID links to the owning Book.
	BookID string

	// Name is the character's name, unique within the book.
	Name string

	// Role is the character's role in the story.
	Role CharacterRole

	// Age is the character's age as free text; empty when unknown.
	Age string

	// Gender is the character's gender; empty when unknown.
	Gender string

	// Personality describes the character's personality.
	Personality string

	// Appearance is a physical description detailed enough to
	// visualise the character from alone.
	Appearance string

	// Bio is a short biography.
	Bio string

	// ChaptersAppeared lists the chapter numbers the character was
	// observed in.
	ChaptersAppeared []int
}

// RosterEntry is the in-flight shape of a roster member during the
// chapter-by-chapter fold. It carries the model-assigned confidence
// score that drives eviction; the score is dropped when the roster is
// finalized into Character records.
type RosterEntry struct {
	Name             string
	Role             CharacterRole
	Age              string
	Gender           string
	Personality      string
	Appearance       string
	Bio              string
	ChaptersAppeared []int

	// Confidence is the model's relevance estimate in [0,1] for this
	// pass only. It is a control signal, never persisted.
	Confidence float64
}

// Character converts the entry to its persisted shape, discarding the
// confidence score.
func (e RosterEntry) Character(bookID string) Character {
	return Character{
		BookID:           bookID,
		Name:             e.Name,
		Role:             e.Role,
		Age:              e.Age,
		Gender:           e.Gender,
		Personality:      e.Personality,
		Appearance:       e.Appearance,
		Bio:              e.Bio,
		ChaptersAppeared: e.ChaptersAppeared,
	}
}

// Relationship is a labeled edge between two characters of the same
// book, keyed by character name. Direction follows source to target;
// when direction is unclear a single symmetric edge is stored. Derived
// once after roster finalization and immutable thereafter.
type Relationship struct {
	// BookID links to the owning Book.
	BookID string

	// Source is a character name present in the finalized roster.
	Source string

	// Target is a character name present in the finalized roster.
	Target string

	// Label is a short edge label, e.g. "friends", "rivals", "mentor".
	Label string
}
