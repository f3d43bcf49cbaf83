package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-session-manager/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValueOr(t *testing.T) {
	require.Equal(t, "old", utils.ValueOr(nil, "old"))
	require.Equal(t, "old", utils.ValueOr(utils.Ptr(""), "old"))
	require.Equal(t, "new", utils.ValueOr(utils.Ptr("new"), "old"))
}

func TestValue(t *testing.T) {
	var s *string
	require.Equal(t, "", utils.Value(s))
	require.Equal(t, 42, utils.Value(utils.Ptr(42)))
}
