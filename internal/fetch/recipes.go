package fetch

import "sort"

const assetThumbnail = "thumbnail"

// recipes maps asset keys to the image API's processing flags. The thumbnail
// asset is not listed; it is served from the catalog browse URL instead.
var recipes = map[string]map[string]string{
	// Raw product, no processing.
	"default": {},
	// Pansharpened true color with dynamic range adjustment.
	"rgb": {
		"pansharpen": "true",
		"dra":        "true",
	},
	// Pansharpened, atmospherically compensated, display ready.
	"visual": {
		"pansharpen": "true",
		"acomp":      "true",
		"dra":        "true",
	},
	// Atmospherically compensated full-band product, no display stretch.
	"analytic": {
		"acomp": "true",
		"dra":   "false",
	},
}

// AssetKeys lists the fetchable asset keys.
func AssetKeys() []string {
	keys := []string{assetThumbnail}
	for k := range recipes {
		keys = append(keys, k)
	}
	sort.Strings(keys[1:])
	return keys
}

// nodataFor returns the nodata value stamped on cropped outputs. The early
// sensors deliver unsigned integer products where zero marks fill pixels;
// everything later uses a large negative sentinel.
func nodataFor(instrument string) float64 {
	switch instrument {
	case "GEOEYE01", "QUICKBIRD02":
		return 0
	default:
		return -1e10
	}
}
