package documents

import "time"

// Clock provides "now" for effective-status derivation. Injectable so tests
// can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// DeriveEffectiveStatus computes the read-time status of a document from its
// persisted status and date fields. The derived value is never written back:
// an APPROVED document whose expiry date has passed reads as EXPIRED, and one
// whose effective date has not yet arrived reads as PENDING_EFFECTIVE.
func DeriveEffectiveStatus(doc *Document, now time.Time) EffectiveStatus {
	if doc.Status == StatusApproved {
		if doc.ExpiryDate != nil && doc.ExpiryDate.Before(now) {
			return EffectiveExpired
		}
		if doc.EffectiveDate != nil && doc.EffectiveDate.After(now) {
			return EffectivePendingEffective
		}
	}
	return EffectiveStatus(doc.Status)
}
