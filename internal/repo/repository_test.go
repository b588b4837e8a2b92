package repo_test

import (
	"testing"

	"github.com/hamed0406/uptimeengine/internal/repo"
	"github.com/hamed0406/uptimeengine/internal/repo/memory"
	pg "github.com/hamed0406/uptimeengine/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.MonitorStore = memory.New()
	var _ repo.CheckStore = memory.New()
	var _ repo.StatsStore = memory.New()
	var _ repo.AlertStateStore = memory.New()

	var _ repo.MonitorStore = (*pg.Store)(nil)
	var _ repo.CheckStore = (*pg.Store)(nil)
	var _ repo.StatsStore = (*pg.Store)(nil)
	var _ repo.AlertStateStore = (*pg.Store)(nil)
}
