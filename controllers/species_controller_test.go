package controller_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	controller "treewatch/controllers"
	"treewatch/storage"
	"treewatch/testutil"
)

func TestNewSpeciesControllerLogger(t *testing.T) {
	sc := controller.NewSpeciesController(storage.New(testutil.NewDB(t)))
	require.NotNil(t, sc.Logger)
	assert.Equal(t, "species", sc.Logger.Data["component"])
}
