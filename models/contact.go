package models

import "encoding/json"

// Contact is a unified contact record shared between the authoritative
// desktop store and connected devices.
//
// Every field group carries its own version stamp, incremented by whichever
// replica last edited that group. VersionNumber is the aggregate: it must
// always equal the maximum of the group stamps. The merge engine relies on
// this invariant; code that mutates a group must recompute the aggregate via
// [Contact.HighestVersion].
type Contact struct {
	// ForeignID is the stable identity assigned by the authoritative-side
	// system. It correlates records across replicas and is never reassigned.
	ForeignID string `json:"foreign_id"`

	// VersionNumber is the aggregate version: max of all group stamps.
	VersionNumber int64 `json:"version"`

	Name      NameGroup    `json:"name"`
	Addresses AddressGroup `json:"addresses"`
	Emails    EmailGroup   `json:"emails"`
	Phones    PhoneGroup   `json:"phones"`
	Dates     DateGroup    `json:"dates"`
	Notes     NoteGroup    `json:"notes"`
}

// NameGroup holds the display name of the contact.
type NameGroup struct {
	Version     int64  `json:"version"`
	DisplayName string `json:"display_name"`
}

// AddressGroup holds the postal addresses of the contact.
type AddressGroup struct {
	Version int64     `json:"version"`
	Items   []Address `json:"items,omitempty"`
}

// Address is a single postal address. Kind distinguishes home, work and
// other addresses.
type Address struct {
	Kind       string `json:"kind"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// EmailGroup holds the email addresses of the contact.
type EmailGroup struct {
	Version int64   `json:"version"`
	Items   []Email `json:"items,omitempty"`
}

type Email struct {
	Kind    string `json:"kind"`
	Address string `json:"address"`
}

// PhoneGroup holds the phone numbers of the contact.
type PhoneGroup struct {
	Version int64   `json:"version"`
	Items   []Phone `json:"items,omitempty"`
}

type Phone struct {
	Kind   string `json:"kind"`
	Number string `json:"number"`
}

// DateGroup holds significant dates in "2006-01-02" form.
type DateGroup struct {
	Version     int64  `json:"version"`
	Birthday    string `json:"birthday,omitempty"`
	Anniversary string `json:"anniversary,omitempty"`
}

// NoteGroup holds the free-text fields of the contact.
type NoteGroup struct {
	Version           int64  `json:"version"`
	Nickname          string `json:"nickname,omitempty"`
	SignificantOthers string `json:"significant_others,omitempty"`
	Children          string `json:"children,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// HighestVersion returns the maximum of the contact's group version stamps.
// Callers that mutate any group must assign the result to VersionNumber.
func (c *Contact) HighestVersion() int64 {
	highest := c.Name.Version
	for _, v := range []int64{
		c.Addresses.Version,
		c.Emails.Version,
		c.Phones.Version,
		c.Dates.Version,
		c.Notes.Version,
	} {
		if v > highest {
			highest = v
		}
	}
	return highest
}

// VersionRef returns the lightweight (ForeignID, VersionNumber) pair used in
// change lists.
func (c *Contact) VersionRef() ContactVersionRef {
	return ContactVersionRef{ForeignID: c.ForeignID, Version: c.VersionNumber}
}

// ToJSON serializes the contact into the external record format carried by
// Contact/UpdateContact messages and stored at rest.
func (c *Contact) ToJSON() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseContact deserializes a contact from the external record format.
func ParseContact(raw string) (Contact, error) {
	var c Contact
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Contact{}, err
	}
	return c, nil
}
