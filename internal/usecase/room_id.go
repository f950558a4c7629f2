package usecase

import (
	"crypto/sha256"
	"encoding/hex"
)

const roomIDLength = 32

// RoomIDFor derives the stable chat room key for a pair of participants and a
// listing. The participant identifiers are sorted before hashing, so the key
// is the same no matter which side initiates. Hashing keeps the key at a
// fixed, storage-safe length regardless of how long the raw identifiers are;
// collisions are treated as cryptographically negligible.
func RoomIDFor(participantA, participantB, listingID string) string {
	a, b := participantA, participantB
	if b < a {
		a, b = b, a
	}

	sum := sha256.Sum256([]byte(a + "_" + b + "_" + listingID))
	return hex.EncodeToString(sum[:])[:roomIDLength]
}
