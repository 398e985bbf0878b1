package checksum

import (
	"testing"
	"time"

	"github.com/starford/notely/internal/models"
)

func TestSum_Known(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
}

func TestNote_ChangesWithUpdatedAt(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := &models.Note{ID: "n1", UpdatedAt: at}
	v1 := Note(n)
	if Note(n) != v1 {
		t.Fatal("version should be stable")
	}
	n.UpdatedAt = at.Add(time.Millisecond)
	if Note(n) == v1 {
		t.Error("version should change after a write")
	}
}
