// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructorsAlwaysReturnUsableLogger(t *testing.T) {
	for _, logger := range []Logger{
		New(),
		NewWithLevel("debug"),
		NewWithLevel("not-a-level"),
		NewLogger("gateway"),
		NoOp(),
	} {
		require.NotNil(t, logger)
		logger.Debug("debug", String("k", "v"))
		logger.Info("info", Int("n", 1))
		logger.Warn("warn", Uint64("u", 2))
		logger.Error("error", Error(nil))
	}
}

func TestNoOpSync(t *testing.T) {
	require.NoError(t, NoOp().Sync())
}
