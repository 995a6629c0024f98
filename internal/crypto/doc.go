// Package crypto handles identity key material for nostrdm.
//
// Contents
//
//   - secp256k1 identity generation and import (GenerateIdentity,
//     IdentityFromSecret, ParseSecret)
//   - NIP-19 bech32 encodings for keys (EncodeNpub, EncodeNsec, ParseNpub)
//   - Conversion to btcec key types for signing and ECDH (PrivateKey,
//     PublicKeyPoint)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Secrets are held in fixed-size arrays from internal/domain so they can be
// wiped with Identity.Wipe once the session ends.
package crypto
