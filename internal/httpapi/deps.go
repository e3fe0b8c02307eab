package httpapi

import (
	"sync/atomic"

	"github.com/Bartabas/job-tracker/internal/events"
	"github.com/Bartabas/job-tracker/internal/scanner"
	"github.com/Bartabas/job-tracker/internal/store"
)

type Deps struct {
	Store *store.Store

	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	Scanner *scanner.Scanner

	UserCfgPath string
}
