// Package in_memdb keeps campuses, cards & folio counters in memory.
// It serves the allocator in tests & tools that must not touch a real database.
package in_memdb

import (
	"context"
	"sync"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
)

type (
	DB struct {
		campus *campusTable
		card   *cardTable
		seq    *sequenceTable
	}

	campusTable struct {
		t     map[int64]*campus.Campus
		pk    int64
		mutex sync.RWMutex
	}

	cardTable struct {
		t     map[int64]*campus.Card
		pk    int64
		mutex sync.RWMutex
	}

	sequenceTable struct {
		t     map[folio.SequenceKey]int64
		mutex sync.Mutex
	}
)

var (
	_ campus.Directory         = (*DB)(nil)
	_ campus.CardRegistry      = (*DB)(nil)
	_ folio.SequenceRepository = (*DB)(nil)
)

func Open() *DB {
	return &DB{
		campus: &campusTable{t: make(map[int64]*campus.Campus)},
		card:   &cardTable{t: make(map[int64]*campus.Card)},
		seq:    &sequenceTable{t: make(map[folio.SequenceKey]int64)},
	}
}

func (db *DB) AddCampus(name string) campus.Campus {
	db.campus.mutex.Lock()
	defer db.campus.mutex.Unlock()

	db.campus.pk++
	c := campus.Campus{ID: db.campus.pk, Name: name, IsActive: true}
	db.campus.t[c.ID] = &c
	return c
}

func (db *DB) AddCard(name string, sat bool) campus.Card {
	db.card.mutex.Lock()
	defer db.card.mutex.Unlock()

	db.card.pk++
	c := campus.Card{ID: db.card.pk, Name: name, Sat: sat, IsActive: true}
	db.card.t[c.ID] = &c
	return c
}

func (db *DB) GetCampusPrefixLetter(_ context.Context, id int64, _ ...core.DBExecutor) (string, error) {
	db.campus.mutex.RLock()
	defer db.campus.mutex.RUnlock()

	if c, ok := db.campus.t[id]; ok {
		return c.PrefixLetter(), nil
	}
	return "", campus.ErrCampusNotFound
}

// IsCardTaxExempt reports found=false for unknown cards.
func (db *DB) IsCardTaxExempt(_ context.Context, id int64, _ ...core.DBExecutor) (exempt, found bool, err error) {
	db.card.mutex.RLock()
	defer db.card.mutex.RUnlock()

	if c, ok := db.card.t[id]; ok {
		return c.Sat, true, nil
	}
	return false, false, nil
}

func (db *DB) NextValue(_ context.Context, key folio.SequenceKey, _ ...core.DBExecutor) (int64, error) {
	db.seq.mutex.Lock()
	defer db.seq.mutex.Unlock()

	db.seq.t[key]++
	return db.seq.t[key], nil
}

func (db *DB) ResetValue(_ context.Context, key folio.SequenceKey, value int64, _ ...core.DBExecutor) error {
	db.seq.mutex.Lock()
	defer db.seq.mutex.Unlock()

	db.seq.t[key] = value
	return nil
}
