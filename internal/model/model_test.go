package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonValidity(t *testing.T) {
	ok := Lesson{Title: "Saluti", Description: "Greetings", Level: "Beginner"}
	assert.True(t, ok.Valid())

	cases := map[string]Lesson{
		"no title":       {Description: "d", Level: "beginner"},
		"blank title":    {Title: "  ", Description: "d", Level: "beginner"},
		"no description": {Title: "t", Level: "advanced"},
		"no level":       {Title: "t", Description: "d"},
		"bad level":      {Title: "t", Description: "d", Level: "expert"},
	}
	for name, l := range cases {
		assert.False(t, l.Valid(), name)
		assert.NotEmpty(t, l.Issues(), name)
	}
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" Intermediate ")
	assert.True(t, ok)
	assert.Equal(t, LevelIntermediate, l)
	_, ok = ParseLevel("")
	assert.False(t, ok)
}

func TestTopicsScan(t *testing.T) {
	var tp Topics
	require.NoError(t, tp.Scan([]byte(`["verbs","food"]`)))
	assert.Equal(t, Topics{"verbs", "food"}, tp)

	require.NoError(t, tp.Scan(`not json`))
	assert.Equal(t, Topics{}, tp)

	require.NoError(t, tp.Scan(nil))
	assert.Equal(t, Topics{}, tp)

	require.NoError(t, tp.Scan(`{"a":1}`))
	assert.Equal(t, Topics{}, tp)

	assert.Error(t, tp.Scan(42))
}

func TestTopicsValueAndJSON(t *testing.T) {
	v, err := Topics(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = Topics{"a"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, v)

	b, err := json.Marshal(Lesson{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"topics":[]`)
}

func TestProgressPatchEmpty(t *testing.T) {
	assert.True(t, ProgressPatch{}.Empty())
	done := true
	assert.False(t, ProgressPatch{Completed: &done}.Empty())
}
