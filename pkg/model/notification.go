package model

// Destination is where a notification goes: a group broadcast topic or a
// single device token. Exactly one field is set.
type Destination struct {
	Topic string
	Token string
}

// Notification is a single delivery request for the push provider. Data
// values must all be strings (provider requirement).
type Notification struct {
	Destination Destination
	Title       string
	Body        string
	Data        map[string]string
}

// TopicOf returns the broadcast topic that fans out to every subscribed
// device of a group.
func TopicOf(groupID GroupID) string {
	return "family_" + string(groupID)
}
