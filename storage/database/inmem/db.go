package inmemdb

import (
	"sync"

	"github.com/trezcool/videograder/core/telemetry"
)

type (
	DB struct {
		view *viewTable
	}

	viewTable struct {
		sync.RWMutex
		table []telemetry.View
		index map[viewKey]int
	}
)

func Open() (*DB, error) {
	db := &DB{
		view: &viewTable{index: make(map[viewKey]int)},
	}
	return db, nil
}
