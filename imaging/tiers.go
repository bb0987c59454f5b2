// Package imaging implements the pixel-level half of PDF image
// recompression: quality tiers, raster decode for the stream encodings the
// engine rewrites, downscaling and JPEG re-encode. It also carries the
// standalone image file operations exposed by the service.
package imaging

// Tier pairs a JPEG quality with a resolution scale factor.
type Tier struct {
	Name    string
	Quality int
	Scale   float64
}

var tiers = map[string]Tier{
	"low":    {Name: "low", Quality: 30, Scale: 0.5},
	"medium": {Name: "medium", Quality: 60, Scale: 0.75},
	"high":   {Name: "high", Quality: 85, Scale: 1.0},
}

// DefaultTier is used when a caller names an unknown tier.
var DefaultTier = tiers["medium"]

// TierByName maps a tier name to its parameters. Unknown names fall back
// to the medium tier rather than failing.
func TierByName(name string) Tier {
	if t, ok := tiers[name]; ok {
		return t
	}
	return DefaultTier
}

// TierNames returns the recognized tier names.
func TierNames() []string {
	return []string{"low", "medium", "high"}
}
