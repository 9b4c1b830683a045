package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cottarelease/internal/artifact"
)

func sourceForgeLayout() Layout {
	return Layout{
		BuildsDir:  "/home/groups/c/co/cotta/htdocs/builds",
		ReportsDir: "/home/groups/c/co/cotta/htdocs/reports",
		JavadocDir: "/home/groups/c/co/cotta/htdocs/javadoc",
	}
}

func TestPlanOrder(t *testing.T) {
	transfers := Plan(PlanInput{
		Layout:      sourceForgeLayout(),
		Artifacts:   artifact.Plan("/p/build/dist", "1.0b6"),
		ReportDir:   "/p/build/report",
		JavadocDirs: []string{"/p/build/dist/javadoc/asserts", "/p/build/dist/javadoc/core"},
		Number:      "1.0",
	})
	require.Len(t, transfers, 9)

	remotes := make([]string, len(transfers))
	for i, tr := range transfers {
		remotes[i] = tr.Remote
	}
	assert.Equal(t, []string{
		"/home/groups/c/co/cotta/htdocs/builds/cotta-1.0b6.jar",
		"/home/groups/c/co/cotta/htdocs/builds/cotta-1.0b6-src.zip",
		"/home/groups/c/co/cotta/htdocs/builds/cotta-testbase-1.0b6.jar",
		"/home/groups/c/co/cotta/htdocs/builds/cotta-testbase-1.0b6-src.zip",
		"/home/groups/c/co/cotta/htdocs/builds/cotta-asserts-1.0b6.jar",
		"/home/groups/c/co/cotta/htdocs/builds/cotta-asserts-1.0b6-src.zip",
		"/home/groups/c/co/cotta/htdocs/reports/1.0",
		"/home/groups/c/co/cotta/htdocs/javadoc/1.0",
		"/home/groups/c/co/cotta/htdocs/javadoc/1.0",
	}, remotes)

	assert.Equal(t, "/p/build/dist/cotta-1.0b6.jar", transfers[0].Local)
	assert.False(t, transfers[0].Dir)
	assert.Equal(t, "report", transfers[6].Label)
	assert.True(t, transfers[6].Dir)
	assert.Equal(t, "javadoc/asserts", transfers[7].Label)
	assert.Equal(t, "javadoc/core", transfers[8].Label)
}
