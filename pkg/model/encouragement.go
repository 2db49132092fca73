package model

// Encouragement mirrors an encouragements document: one user nudging or
// making dua for another.
type Encouragement struct {
	Type    string  `firestore:"type"` // "dua", anything else is a plain encouragement
	To      UserID  `firestore:"to"`
	From    string  `firestore:"from"`
	GroupID GroupID `firestore:"groupId"`
}

// EventKind maps the document type to the semantic event variant.
func (e *Encouragement) EventKind() EventKind {
	if e.Type == "dua" {
		return EventDua
	}
	return EventEncouragement
}
