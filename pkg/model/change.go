package model

// ChangeKind classifies one document change delivered by the change feed.
type ChangeKind int

const (
	DocAdded ChangeKind = iota
	DocModified
	DocRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case DocAdded:
		return "added"
	case DocModified:
		return "modified"
	case DocRemoved:
		return "removed"
	default:
		return "unknown"
	}
}
