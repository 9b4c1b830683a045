package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseID(t *testing.T) {
	cases := []struct {
		v    Version
		want string
	}{
		{Version{Number: "1.3", Build: 42}, "1.3b42"},
		{Version{Number: "1.0", Build: 6}, "1.0b6"},
		{Version{Number: "2", Build: 0}, "2b0"},
		{Version{Number: "1.2.3", Build: 1000}, "1.2.3b1000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.ReleaseID())
		assert.Equal(t, c.want, c.v.String())
	}
}

func TestNaming(t *testing.T) {
	v := Version{Number: "1.0", Build: 6}
	assert.Equal(t, "version-1.0b6", v.TagName())
	assert.Equal(t, "releasing 1.0b6", v.CommitMessage())
}

func TestNext(t *testing.T) {
	v := Version{Number: "1.0", Build: 5}
	next := v.Next()
	assert.Equal(t, Version{Number: "1.0", Build: 6}, next)
	assert.Equal(t, 5, v.Build, "Next must not mutate the receiver")
}

func TestValidate(t *testing.T) {
	require.NoError(t, Version{Number: "1.2", Build: 3}.Validate())
	require.NoError(t, Version{Number: "1", Build: 0}.Validate())
	require.NoError(t, Version{Number: "1.2.3.4", Build: 7}.Validate())
	require.NoError(t, Version{Number: "2.0.0.0.1", Build: 1}.Validate())

	assert.Error(t, Version{Number: "", Build: 1}.Validate())
	assert.Error(t, Version{Number: "one.two", Build: 1}.Validate())
	for _, bad := range []string{"1.", ".1", "1..2", "v1.2", "1.2-rc1", "1.2 "} {
		assert.Error(t, Version{Number: bad, Build: 1}.Validate(), bad)
	}
	assert.Error(t, Version{Number: "1.2", Build: -1}.Validate())
}

func TestInfo(t *testing.T) {
	assert.Contains(t, Info(), "cottarelease")
}
