package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/stats"
)

// LinesFileProvider reads player lines from a local JSON file, keyed by date
// then player id. Used when no odds account is available, and for self-hosted
// leagues that maintain their own lines:
//
//	{
//	  "2024-01-05": {
//	    "2544": {"points": 25.5, "assists": 7.5}
//	  }
//	}
//
// The file is re-read on every call so it can be swapped out while the
// server runs.
type LinesFileProvider struct {
	path   string
	logger *logrus.Logger
}

func NewLinesFileProvider(path string, logger *logrus.Logger) *LinesFileProvider {
	return &LinesFileProvider{
		path:   path,
		logger: logger,
	}
}

func (p *LinesFileProvider) Name() string {
	return "lines_file"
}

func (p *LinesFileProvider) PlayerLines(ctx context.Context, playerID int64, playerName string, date time.Time) (*LineResult, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("lines file %s: %v: %w", p.path, err, stats.ErrSourceUnavailable)
	}

	var byDate map[string]map[string]map[string]float64
	if err := json.Unmarshal(data, &byDate); err != nil {
		return nil, fmt.Errorf("lines file %s: decode: %v: %w", p.path, err, stats.ErrSourceUnavailable)
	}

	players, ok := byDate[date.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	raw, ok := players[fmt.Sprintf("%d", playerID)]
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	lines := make(stats.Line, len(raw))
	for key, value := range raw {
		lines[stats.Category(key)] = value
	}

	info, err := os.Stat(p.path)
	updated := time.Now().UTC()
	if err == nil {
		updated = info.ModTime().UTC()
	}

	return &LineResult{
		Provider:    p.Name(),
		LastUpdated: updated,
		Lines:       lines,
	}, nil
}
