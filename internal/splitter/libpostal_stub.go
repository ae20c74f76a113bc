//go:build !libpostal

package splitter

import "go.uber.org/zap"

func newLibpostal(*zap.Logger) Splitter { return nil }
