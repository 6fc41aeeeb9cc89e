package testraces

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/nircadb/pkg/logger"
)

const sheetFilePermission = 0600

// Run generates a synthetic result sheet, pushes it through the full
// import workflow, and prints the resulting team rankings.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get()

	sheet, err := GenerateSheet(cfg)
	if err != nil {
		return fmt.Errorf("generate sheet: %w", err)
	}
	log.Info(ctx, "sheet generated",
		logger.Int("teams", cfg.Teams),
		logger.Int("runnersPerTeam", cfg.RunnersPerTeam),
		logger.Int("bytes", len(sheet)),
	)

	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, sheet, sheetFilePermission); err != nil {
			return fmt.Errorf("write sheet: %w", err)
		}
		log.Info(ctx, "sheet written", logger.String("path", cfg.OutputFile))
	}

	c := newClient(cfg.BaseURL, cfg.Timeout)

	status, err := c.submitSheet(ctx, sheet, cfg.Division)
	if err != nil {
		return fmt.Errorf("submit sheet: %w", err)
	}
	log.Info(ctx, "import opened",
		logger.String("race", status.Race),
		logger.String("stage", status.Stage),
		logger.Int("pending", len(status.Pending)),
	)

	status, err = c.resolveAllNew(ctx, status)
	if err != nil {
		return fmt.Errorf("resolve names: %w", err)
	}
	log.Info(ctx, "all names resolved", logger.String("stage", status.Stage))

	report, err := c.commit(ctx)
	if err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	log.Info(ctx, "import committed",
		logger.Int("results", report.Results),
		logger.Int("newTeams", report.NewTeams),
		logger.Int("newRunners", report.NewRunners),
	)

	rows, err := c.teamRankings(ctx, cfg.Division)
	if err != nil {
		return fmt.Errorf("fetch rankings: %w", err)
	}
	for _, row := range rows {
		fmt.Printf("%3d  %-40s %5d\n", row.Rank, row.Team, row.Score)
	}
	if cfg.Verbose {
		log.Info(ctx, "rankings fetched", logger.Int("teams", len(rows)))
	}
	return nil
}
