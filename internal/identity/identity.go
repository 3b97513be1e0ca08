// Package identity maps the caller's email header to the string key that selects
// a physical database file.
package identity

import "strings"

// Header is the only place an identity may be carried. Query strings and bodies
// are never consulted so identities cannot leak through URL caches or access logs.
const Header = "X-User-Email"

// Guest is the sentinel identity backing anonymous requests.
const Guest = "guest"

// FromHeader derives an identity from a raw header value. It is total over all
// inputs: an absent or junk value yields the guest sentinel, anything else yields
// the local part of the email (the whole value when no "@" is present).
//
// Note: two distinct addresses sharing a local part (a@x.com, a@y.com) map to the
// same identity and therefore the same database file.
func FromHeader(value string) string {
	value = strings.TrimSpace(value)
	switch value {
	case "", "null", "undefined", Guest:
		return Guest
	}
	if at := strings.Index(value, "@"); at >= 0 {
		local := value[:at]
		if local == "" {
			return Guest
		}
		return local
	}
	return value
}

// IsGuest reports whether id is the guest sentinel.
func IsGuest(id string) bool {
	return id == Guest
}

// ValidEmail reports whether a lifecycle endpoint's email parameter is
// well-formed enough to derive an identity from: a nonempty local part followed
// by "@" and a nonempty domain.
func ValidEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
