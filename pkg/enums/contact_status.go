package enums

import "strings"

// ContactStatus is the triage state of a contact form submission.
type ContactStatus string

const (
	ContactStatusNew      ContactStatus = "new"
	ContactStatusRead     ContactStatus = "read"
	ContactStatusReplied  ContactStatus = "replied"
	ContactStatusArchived ContactStatus = "archived"
)

var contactStatuses = []ContactStatus{
	ContactStatusNew,
	ContactStatusRead,
	ContactStatusReplied,
	ContactStatusArchived,
}

func (c ContactStatus) String() string { return string(c) }

func (c ContactStatus) IsValid() bool { return oneOf(contactStatuses, c) }

// ParseContactStatus accepts the status names case-insensitively.
func ParseContactStatus(raw string) (ContactStatus, error) {
	return parse("contact status", contactStatuses, strings.ToLower(strings.TrimSpace(raw)))
}
