// internal/cropper/marker.go
package cropper

import (
	"strings"

	"github.com/pagetrim/pagetrim/internal/pdfdoc"
)

// MarkerSuffix is appended to the Producer metadata attribute of cropped
// output. Its presence tells a later run that the backup boxes belong to
// this tool, so undo-saves are not overwritten and restore is validated.
const MarkerSuffix = " (Cropped by pagetrim.)"

// HasMarker reports whether producer carries the marker.
func HasMarker(producer string) bool {
	return strings.HasSuffix(producer, MarkerSuffix)
}

// IsMarked reads the document's Producer attribute and reports whether it
// carries the marker. The document is not modified.
func IsMarked(doc pdfdoc.Document) (bool, error) {
	producer, err := doc.Producer()
	if err != nil {
		return false, err
	}
	return HasMarker(producer), nil
}

// MarkDocument appends the marker to the document's Producer attribute,
// at most once. It reports whether the marker was already present, in
// which case the attribute is left exactly as it was.
func MarkDocument(doc pdfdoc.Document) (alreadyMarked bool, err error) {
	producer, err := doc.Producer()
	if err != nil {
		return false, err
	}
	if HasMarker(producer) {
		return true, nil
	}
	return false, doc.SetProducer(producer + MarkerSuffix)
}
