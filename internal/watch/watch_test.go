package watch

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestShouldIgnore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"head write", fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Write}, false},
		{"ref create", fsnotify.Event{Name: "/repo/.git/refs/heads/main", Op: fsnotify.Create}, false},
		{"lock file", fsnotify.Event{Name: "/repo/.git/index.lock", Op: fsnotify.Create}, true},
		{"reflog", fsnotify.Event{Name: "/repo/.git/logs/HEAD", Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Chmod}, true},
		{"remove", fsnotify.Event{Name: "/repo/.git/refs/heads/main", Op: fsnotify.Remove}, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, shouldIgnore(tc.event))
		})
	}
}
