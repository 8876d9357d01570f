package model

import "strings"

// ExtractionStatus is the outcome of the contact extraction stage.
type ExtractionStatus string

const (
	ExtractionSuccess   ExtractionStatus = "success"
	ExtractionNoContact ExtractionStatus = "no_contact"
	ExtractionFailed    ExtractionStatus = "failed"
	ExtractionSkipped   ExtractionStatus = "skipped"
)

// Venue is one licensed premises row. The first eight columns come from
// assembly; the rest are filled in by the enrichment stages.
type Venue struct {
	Name         string   `csv:"name" json:"name"`
	BusinessType string   `csv:"business_type" json:"business_type"`
	Website      string   `csv:"website" json:"website"`
	Lat          *float64 `csv:"lat" json:"lat"`
	Lon          *float64 `csv:"lon" json:"lon"`
	AddressLine1 string   `csv:"address_line1" json:"address_line1"`
	AddressLine2 string   `csv:"address_line2" json:"address_line2"`
	Postcode     string   `csv:"postcode" json:"postcode"`

	WebsiteSource string `csv:"website_source" json:"website_source,omitempty"`

	Email       string `csv:"email" json:"email,omitempty"`
	EmailStatus string `csv:"email_status" json:"email_status,omitempty"`
	EmailSource string `csv:"email_source" json:"email_source,omitempty"`
	OldEmail    string `csv:"old_email" json:"old_email,omitempty"`

	EmailFound          string           `csv:"email_found" json:"email_found,omitempty"`
	PhoneFound          string           `csv:"phone_found" json:"phone_found,omitempty"`
	AdditionalEmails    string           `csv:"additional_emails" json:"additional_emails,omitempty"`
	AdditionalPhones    string           `csv:"additional_phones" json:"additional_phones,omitempty"`
	WebsiteActual       string           `csv:"website_actual" json:"website_actual,omitempty"`
	ExtractionStatus    ExtractionStatus `csv:"extraction_status" json:"extraction_status,omitempty"`
	ExtractionNotes     string           `csv:"extraction_notes" json:"extraction_notes,omitempty"`
	ExtractionMethod    string           `csv:"extraction_method" json:"extraction_method,omitempty"`
	ExtractionTimestamp string           `csv:"extraction_timestamp" json:"extraction_timestamp,omitempty"`
}

// IdentityKey identifies a venue across sources.
type IdentityKey struct {
	Name     string
	Postcode string
}

// String renders the key the way the website cache stores it.
func (k IdentityKey) String() string {
	return k.Name + "|" + k.Postcode
}

// Key returns the venue's identity key: lowercased name plus postcode.
func (v Venue) Key() IdentityKey {
	return KeyFor(v.Name, v.Postcode)
}

// KeyFor builds an identity key from a raw name and postcode.
func KeyFor(name, postcode string) IdentityKey {
	return IdentityKey{Name: strings.ToLower(name), Postcode: postcode}
}

// HasContact reports whether the contact stage found an email or phone.
func (v Venue) HasContact() bool {
	return v.EmailFound != "" || v.PhoneFound != ""
}
