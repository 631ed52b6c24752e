// Package fastrand provides the module's non-cryptographic randomness:
// seeding for newly allocated RTX sequence numbers, which needs no
// more than a spread of starting values and none of the guarantees of
// crypto/rand.
package fastrand

import "github.com/pion/randutil"

var generator = randutil.NewMathRandomGenerator()

// Uint32 returns a pseudo-random uint32, suitable for seeding an RTX SSRC's
// starting sequence number so two RTX streams started close together don't
// begin emitting identical sequence numbers.
func Uint32() uint32 {
	return generator.Uint32()
}
