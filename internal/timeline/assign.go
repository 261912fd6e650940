package timeline

// Engine assigns batches of clips to tracks. It holds no state of its
// own beyond its injected dependencies and is safe to share across
// sectors, but a single sector must not be assigned to concurrently.
type Engine struct {
	tokens TokenSource
	labels Labeler
}

// Placement records where one clip landed during an assignment pass.
type Placement struct {
	Clip    *Clip
	Track   *Track
	Created bool // the track was created for this clip
}

// NewEngine builds an engine. Nil dependencies fall back to the
// production UUID token source and the fixed-locale labeler.
func NewEngine(tokens TokenSource, labels Labeler) *Engine {
	if tokens == nil {
		tokens = UUIDTokenSource{}
	}
	if labels == nil {
		labels = NewPrinterLabeler()
	}
	return &Engine{tokens: tokens, labels: labels}
}

// Assign places each video clip of the batch onto exactly one track of
// the sector, mutating the sector's track list in place. Clips are
// processed in batch order, so later clips see tracks created by earlier
// ones. Non-video clips are skipped and non-video tracks are never
// candidates; neither is an error.
//
// Per clip: derive the camera identity, then walk the sector's video
// tracks for one with the same cameraId whose existing clips all pass
// the overlap test against the new clip. The first such track wins. If
// none qualifies, a new track is created with the clip's identity, the
// next gap-skipping "Camera N" name, and the next sector index. Track
// bounds are refreshed on every insertion.
func (e *Engine) Assign(sector *Sector, clips []*Clip) []Placement {
	placements := make([]Placement, 0, len(clips))

	for _, clip := range clips {
		if clip == nil || clip.Type != ClipVideo {
			continue
		}

		cameraID := CameraIdentity(clip, e.tokens)

		var target *Track
		for _, t := range sector.Tracks {
			if t.Type != TrackVideo || t.CameraID != cameraID {
				continue
			}
			if trackAccepts(t, clip) {
				target = t
				break
			}
		}

		created := false
		if target == nil {
			target = &Track{
				ID:       NewID(),
				Name:     e.labels.Label(NextCameraNumber(sector.Tracks)),
				Type:     TrackVideo,
				Index:    NextTrackIndex(sector.Tracks),
				CameraID: cameraID,
			}
			sector.Tracks = append(sector.Tracks, target)
			created = true
		}

		target.Clips = append(target.Clips, clip)
		target.RefreshBounds()

		placements = append(placements, Placement{Clip: clip, Track: target, Created: created})
	}

	return placements
}

// trackAccepts reports whether the clip conflicts with none of the
// track's existing clips. A track without a clip list accepts anything.
func trackAccepts(t *Track, clip *Clip) bool {
	for _, existing := range t.Clips {
		if RangesConflict(existing.Start(), existing.End(), clip.Start(), clip.End()) {
			return false
		}
	}
	return true
}
