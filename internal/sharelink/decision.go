package sharelink

import "fmt"

// DenyReason classifies why an access attempt was refused. Deny is an
// expected, frequent outcome of evaluation, so reasons are values, not
// errors.
type DenyReason uint8

const (
	DenyNone DenyReason = iota
	DenyNotFound
	DenyRevoked
	DenyExpired
	DenyPasswordRequired
	DenyPasswordIncorrect
	DenyDownloadNotAllowed
)

// String returns the string representation of the deny reason.
func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "None"
	case DenyNotFound:
		return "NotFound"
	case DenyRevoked:
		return "Revoked"
	case DenyExpired:
		return "Expired"
	case DenyPasswordRequired:
		return "PasswordRequired"
	case DenyPasswordIncorrect:
		return "PasswordIncorrect"
	case DenyDownloadNotAllowed:
		return "DownloadNotAllowed"
	default:
		return fmt.Sprintf("DenyReason(%d)", r)
	}
}

// External maps an internal deny reason to the one an unauthenticated
// caller may see. Revoked and Expired collapse to NotFound so that the
// public surface never reveals which tokens exist versus which were
// merely revoked; the internal reason stays available for operator
// logging.
func (r DenyReason) External() DenyReason {
	switch r {
	case DenyRevoked, DenyExpired:
		return DenyNotFound
	default:
		return r
	}
}

// Decision is the outcome of evaluating a token against current policy
// and time. Link is populated only on Allow.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Link    *ShareLink
}

// Allow builds an allowing decision carrying the evaluated link.
func Allow(link *ShareLink) Decision {
	return Decision{Allowed: true, Link: link}
}

// Deny builds a refusing decision with the internal reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}
