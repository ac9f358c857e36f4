package server

import "math/rand/v2"

// Target is the next location shown to a player. The answer stays
// server-side; only the QR scan can prove the player found the place.
type Target struct {
	LevelNumber int    `json:"levelNumber"`
	Place       string `json:"place"`
	Image       string `json:"image,omitempty"`
}

// newPath assigns one place per level, chosen uniformly at random, in
// ascending level order. The path is materialized once at game start so
// resume is idempotent and the time log validates against a stable
// sequence. Levels without places cannot be targets and are skipped.
func newPath(levels []trailLevelDoc) []pathEntryDoc {
	var path []pathEntryDoc
	for _, l := range levels {
		if len(l.Places) == 0 {
			continue
		}
		p := l.Places[rand.IntN(len(l.Places))]
		path = append(path, pathEntryDoc{
			LevelNumber: l.LevelNumber,
			Place:       p.Name,
			Answer:      p.Answer,
			Image:       p.Image,
		})
	}
	return path
}

// currentTarget returns the path entry at the cursor, or nil when the path
// is exhausted.
func currentTarget(p progressDoc) *Target {
	if p.PlaceIndex >= len(p.Path) {
		return nil
	}
	e := p.Path[p.PlaceIndex]
	return &Target{LevelNumber: e.LevelNumber, Place: e.Place, Image: e.Image}
}

// matchesTarget reports whether a scanned (levelNumber, place) pair equals
// the path entry exactly: numeric level, string place.
func matchesTarget(e pathEntryDoc, levelNumber int, place string) bool {
	return e.LevelNumber == levelNumber && e.Place == place
}

// advance records a successful scan and moves the cursor forward, keeping
// len(TimeLog) == PlaceIndex. When the path is exhausted the game flips to
// completed and the end time is stamped.
func advance(p *progressDoc, now string) {
	e := p.Path[p.PlaceIndex]
	p.TimeLog = append(p.TimeLog, timeLogDoc{
		Level:     e.LevelNumber,
		Place:     e.Place,
		ScannedAt: now,
	})
	p.PlaceIndex++
	p.CurrentLevelNumber = p.PlaceIndex + 1
	if p.PlaceIndex >= len(p.Path) {
		p.Completed = true
		p.EndTime = &now
	}
}
