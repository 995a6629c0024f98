package crypto

import "nostrdm/internal/domain"

// Fingerprint returns an abbreviated npub for logs and compact display.
//
// It keeps the "npub1" prefix plus the first 8 and last 6 data characters.
func Fingerprint(pk domain.PublicKey) string {
	npub := EncodeNpub(pk)
	return npub[:13] + "…" + npub[len(npub)-6:]
}
