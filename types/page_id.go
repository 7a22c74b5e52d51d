// this code is adapted from https://github.com/brunocalza/go-bustub (see
// licenses/go-bustub), dropping the broken cross-module sentinel-error
// import the teacher carried and replacing it with storageerr.

package types

import (
	"bytes"
	"encoding/binary"
)

// PageID is the stable on-disk identifier of a page.
type PageID int32

// InvalidPageID is the sentinel page id meaning "no page".
const InvalidPageID = PageID(-1)

// IsValid reports whether id is a real, allocated page id.
func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

// Serialize casts the page id to its little-endian wire form.
func (id PageID) Serialize() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, id)
	return buf.Bytes()
}

// NewPageIDFromBytes decodes a page id from its little-endian wire form.
func NewPageIDFromBytes(data []byte) (ret PageID) {
	_ = binary.Read(bytes.NewReader(data), binary.LittleEndian, &ret)
	return ret
}
