// Package inmemdb provides map-backed repositories. They are used by the
// tests and carry no persistence.
package inmemdb

import (
	"sync"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users         map[string]*user.User
	classes       map[string]*school.Class
	announcements map[string]*school.Announcement
	assignments   map[string]*school.Assignment
	submissions   map[string]*school.Submission
	events        map[string]*school.Event
	media         map[string]*school.MediaItem
}

func NewDB() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		classes:       make(map[string]*school.Class),
		announcements: make(map[string]*school.Announcement),
		assignments:   make(map[string]*school.Assignment),
		submissions:   make(map[string]*school.Submission),
		events:        make(map[string]*school.Event),
		media:         make(map[string]*school.MediaItem),
	}
}

// classIDs gathers the classes the user belongs to. Callers must hold the lock.
func (db *DB) classIDs(userID string) []string {
	var ids []string
	for _, cls := range db.classes {
		if cls.HasMember(userID) {
			ids = append(ids, cls.ID)
		}
	}
	return ids
}
