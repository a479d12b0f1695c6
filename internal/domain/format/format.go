// Package format enumerates the on-disk layouts a content domain can use.
package format

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ekn/internal/domain"
)

// MarkerFile is the per-domain file holding the layout version.
const MarkerFile = "EKN_VERSION"

// Version is the storage layout of a content domain.
type Version int

// Supported layouts.
const (
	// Legacy stores complete JSON documents inside the search index.
	Legacy Version = 1
	// Shard stores only identifiers in the index and content in a shard file.
	Shard Version = 2
)

// IsValid checks if the version is one of the supported layouts.
func (v Version) IsValid() bool {
	return v == Legacy || v == Shard
}

func (v Version) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Shard:
		return "shard"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// Parse reads a marker file body. An empty marker means Legacy.
func Parse(marker string) (Version, error) {
	switch strings.TrimSpace(marker) {
	case "", "1":
		return Legacy, nil
	case "2":
		return Shard, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedVersion, strings.TrimSpace(marker))
	}
}
