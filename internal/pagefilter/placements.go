package pagefilter

import (
	"github.com/rs/zerolog/log"
)

// Placements resolves the bounding boxes of every image on a page. Images whose
// bounding box cannot be determined are skipped; they contribute nothing. A
// page whose images cannot be listed at all (unreadable content stream) is
// treated as having none.
func Placements(src Source, page int) ([]ImagePlacement, error) {
	refs, err := src.Images(page)
	if err != nil {
		log.Warn().Err(err).Int("page", page).Msg("page images unreadable, classifying without them")
		return nil, nil
	}
	out := make([]ImagePlacement, 0, len(refs))
	for _, ref := range refs {
		bb, err := src.ImageBBox(page, ref)
		if err != nil {
			log.Debug().Err(err).Int("page", page).Str("image", string(ref)).Msg("image bbox unavailable, skipping")
			continue
		}
		out = append(out, bb)
	}
	return out, nil
}
