package feeds

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Default sheet ranges for each feed.
var DefaultRanges = map[Feed]string{
	FeedLearners: "Usuarios2",
	FeedSkills:   "Habilidades2",
	FeedProgress: "Progreso2",
	FeedVideos:   "Videos2",
}

// SheetsConfig configures access to the backing spreadsheet.
type SheetsConfig struct {
	SpreadsheetID   string
	APIKey          string
	CredentialsFile string // service-account JSON; takes precedence over APIKey
	Endpoint        string // overrides the API base URL
	Ranges          map[Feed]string
	HTTPClient      *http.Client
}

// SheetsSource reads feeds from a Google Sheets spreadsheet.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
	ranges        map[Feed]string
}

// NewSheetsSource creates a Sheets-backed row source.
func NewSheetsSource(ctx context.Context, cfg SheetsConfig) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("either an API key or a credentials file is required")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	ranges := make(map[Feed]string, len(DefaultRanges))
	for feed, rng := range DefaultRanges {
		ranges[feed] = rng
	}
	for feed, rng := range cfg.Ranges {
		if rng != "" {
			ranges[feed] = rng
		}
	}

	return &SheetsSource{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		ranges:        ranges,
	}, nil
}

// Rows fetches the configured range for feed.
func (s *SheetsSource) Rows(ctx context.Context, feed Feed) ([][]string, error) {
	rng, ok := s.ranges[feed]
	if !ok {
		return nil, fmt.Errorf("no range configured for feed %s", feed)
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s feed: %w", feed, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
