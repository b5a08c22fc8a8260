// Package feeds ingests the learner, skills, progress and video feeds into
// the in-memory directories the portal renders from.
package feeds

import "context"

// Feed names one of the four tabular sources.
type Feed string

const (
	FeedLearners Feed = "learners"
	FeedSkills   Feed = "skills"
	FeedProgress Feed = "progress"
	FeedVideos   Feed = "videos"
)

// AllFeeds lists the feeds read on every ingestion, in a stable order.
var AllFeeds = []Feed{FeedLearners, FeedSkills, FeedProgress, FeedVideos}

// RowSource reads every row of a feed, header included.
type RowSource interface {
	Rows(ctx context.Context, feed Feed) ([][]string, error)
}

// EmptySource has no rows in any feed. It stands in when no spreadsheet is
// configured.
type EmptySource struct{}

func (EmptySource) Rows(ctx context.Context, feed Feed) ([][]string, error) {
	return nil, nil
}
