package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDsCarryPrefix(t *testing.T) {
	cases := map[string]func() string{
		PrefixSnapshot: NewSnapshotID,
		PrefixRequest:  NewRequestID,
		PrefixSession:  NewSessionID,
		PrefixBookmark: NewBookmarkID,
	}

	for prefix, gen := range cases {
		id := gen()
		assert.True(t, strings.HasPrefix(id, prefix+"_"), id)
		require.NoError(t, Validate(id, prefix))
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	err := Validate(NewSessionID(), PrefixBookmark)
	assert.Error(t, err)

	err = Validate("not-a-typeid", PrefixBookmark)
	assert.Error(t, err)
}
