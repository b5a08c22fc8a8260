package feeds

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"learnerportal/internal/keys"
	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
	"learnerportal/internal/video"
)

// Column positions in each feed.
const (
	learnerEmailCol = 0
	learnerNameCol  = 1
	learnerRoleCol  = 2

	skillsEmailCol     = 0
	skillsPromptingCol = 3
	skillsToolsCol     = 4
	skillsAnalysisCol  = 5

	progressEmailCol     = 0
	progressCompletedCol = 5
	progressBlobCol      = 7

	videoWeekCol = 1
	videoDayCol  = 2
	videoURLCol  = 3
)

// Snapshot is the result of one ingestion pass. The zero value is not used;
// an empty Snapshot always has non-nil maps.
type Snapshot struct {
	Learners       []models.Learner
	Videos         video.Directory
	RemoteProgress map[string]ledger.Ledger
	Report         Report
}

// Report records what the tolerant decoders skipped or defaulted.
type Report struct {
	Failed          bool         // a feed could not be read; the snapshot is empty
	SkippedRows     map[Feed]int // rows without their key columns
	DefaultedFields map[Feed]int // integer cells that fell back to 0
	MalformedBlobs  []string     // learner emails whose progress blob was unreadable
	DroppedEntries  int          // non-boolean values removed from readable blobs
}

// EmptySnapshot returns a snapshot with no data and non-nil collections.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Learners:       []models.Learner{},
		Videos:         video.Directory{},
		RemoteProgress: map[string]ledger.Ledger{},
		Report:         newReport(),
	}
}

func newReport() Report {
	return Report{
		SkippedRows:     make(map[Feed]int),
		DefaultedFields: make(map[Feed]int),
	}
}

// Find returns the learner with exactly this email.
func (s Snapshot) Find(email string) (models.Learner, bool) {
	for _, l := range s.Learners {
		if l.Email == email {
			return l, true
		}
	}
	return models.Learner{}, false
}

// Ingestor reads all four feeds and normalizes them.
type Ingestor struct {
	source RowSource
	debug  bool
}

// NewIngestor creates an ingestor over source.
func NewIngestor(source RowSource, debug bool) *Ingestor {
	return &Ingestor{source: source, debug: debug}
}

// Ingest fetches the four feeds concurrently and builds a snapshot. It never
// fails: if any feed cannot be read the result is an empty snapshot with
// Report.Failed set, and malformed rows or cells are skipped or defaulted.
func (i *Ingestor) Ingest(ctx context.Context) Snapshot {
	tables := make(map[Feed][][]string, len(AllFeeds))
	results := make([][][]string, len(AllFeeds))

	// Plain group rather than WithContext: every fetch settles before we look
	// at the outcome, even when one fails early.
	var g errgroup.Group
	for idx, feed := range AllFeeds {
		g.Go(func() error {
			rows, err := i.source.Rows(ctx, feed)
			if err != nil {
				return err
			}
			results[idx] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("Error fetching feeds: %v", err)
		snap := EmptySnapshot()
		snap.Report.Failed = true
		return snap
	}
	for idx, feed := range AllFeeds {
		tables[feed] = results[idx]
	}

	snap := buildSnapshot(tables)
	if i.debug {
		log.Printf("[DEBUG] Ingested %d learners, %d videos, %d progress snapshots",
			len(snap.Learners), len(snap.Videos), len(snap.RemoteProgress))
	}
	logReport(snap.Report)
	return snap
}

// buildSnapshot normalizes already-fetched feed tables.
func buildSnapshot(tables map[Feed][][]string) Snapshot {
	snap := EmptySnapshot()
	report := &snap.Report

	skills := parseSkills(dataRows(tables[FeedSkills]), report)
	completed := parseProgress(dataRows(tables[FeedProgress]), snap.RemoteProgress, report)

	for _, row := range dataRows(tables[FeedLearners]) {
		email := rawCell(row, learnerEmailCol)
		name := cell(row, learnerNameCol)
		if email == "" || name == "" {
			report.SkippedRows[FeedLearners]++
			continue
		}
		snap.Learners = append(snap.Learners, models.NewLearner(
			email,
			name,
			cell(row, learnerRoleCol),
			skills[email],
			completed[email],
		))
	}

	for _, row := range dataRows(tables[FeedVideos]) {
		weekText := cell(row, videoWeekCol)
		day := cell(row, videoDayCol)
		if weekText == "" || day == "" {
			report.SkippedRows[FeedVideos]++
			continue
		}
		week, defaulted := parseInt(weekText)
		if defaulted {
			report.SkippedRows[FeedVideos]++
			continue
		}
		snap.Videos[keys.Content(week, day)] = cell(row, videoURLCol)
	}

	return snap
}

func parseSkills(rows [][]string, report *Report) map[string]models.Skills {
	out := make(map[string]models.Skills, len(rows))
	for _, row := range rows {
		email := rawCell(row, skillsEmailCol)
		if email == "" {
			report.SkippedRows[FeedSkills]++
			continue
		}
		prompting, d1 := intField(row, skillsPromptingCol)
		tools, d2 := intField(row, skillsToolsCol)
		analysis, d3 := intField(row, skillsAnalysisCol)
		report.DefaultedFields[FeedSkills] += countTrue(d1, d2, d3)

		out[email] = models.Skills{
			Prompting: clamp(prompting),
			Tools:     clamp(tools),
			Analysis:  clamp(analysis),
		}
	}
	return out
}

// parseProgress returns completion counts by email and fills remote with each
// learner's decoded ledger. When an email repeats, the last row sets the
// count and the last decodable blob sets the ledger; a malformed blob never
// replaces an earlier valid one.
func parseProgress(rows [][]string, remote map[string]ledger.Ledger, report *Report) map[string]int {
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		email := rawCell(row, progressEmailCol)
		if email == "" {
			report.SkippedRows[FeedProgress]++
			continue
		}
		completed, defaulted := intField(row, progressCompletedCol)
		if defaulted {
			report.DefaultedFields[FeedProgress]++
		}
		out[email] = completed

		blob := cell(row, progressBlobCol)
		if blob == "" {
			continue
		}
		l, dropped, err := ledger.Decode([]byte(blob))
		if err != nil {
			log.Printf("Warning: failed to parse progress JSON for %s: %v", email, err)
			report.MalformedBlobs = append(report.MalformedBlobs, email)
			continue
		}
		report.DroppedEntries += dropped
		remote[email] = l
	}
	return out
}

// dataRows drops the header row.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func logReport(r Report) {
	for _, feed := range AllFeeds {
		if n := r.SkippedRows[feed]; n > 0 {
			log.Printf("Skipped %d %s rows without key columns", n, feed)
		}
		if n := r.DefaultedFields[feed]; n > 0 {
			log.Printf("Defaulted %d unreadable integer cells in %s feed", n, feed)
		}
	}
	if r.DroppedEntries > 0 {
		log.Printf("Dropped %d non-boolean progress entries", r.DroppedEntries)
	}
}
