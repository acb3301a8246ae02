package audio

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Key derives the storage key for the pronunciation audio of text, scoped
// to one owner. The key is deterministic so repeated synthesis for the same
// logical entry overwrites instead of accumulating blobs.
func Key(ownerID, text string) string {
	h := md5.Sum([]byte(text))
	return fmt.Sprintf("audio/%s/%s.mp3", ownerID, hex.EncodeToString(h[:]))
}
