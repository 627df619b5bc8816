// ABOUTME: Corpus fingerprint used to skip rebuilding an unchanged document set
// ABOUTME: HighwayHash over every document path and text in path order
package ingest

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/minio/highwayhash"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

var fingerprintKey = []byte("naradmuni-corpus-fingerprint-key")

// Fingerprint hashes the documents so that any added, removed or edited file changes the result.
// The chunking settings are mixed in because they change the index as much as the text does.
func Fingerprint(docs []models.Document, settings string) (string, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}

	sorted := make([]models.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	writeField(h, []byte(settings))
	for _, doc := range sorted {
		writeField(h, []byte(doc.Path))
		writeField(h, []byte(doc.Text))
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// writeField length-prefixes each field so adjacent fields cannot run together
func writeField(h interface{ Write([]byte) (int, error) }, b []byte) {
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(b)))
	_, _ = h.Write(size[:])
	_, _ = h.Write(b)
}
