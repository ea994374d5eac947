package db

import (
	"fmt"
	"os"
	"testing"

	"github.com/dustin/go-humanize"
)

// TestLiveDatabase opens the real history database and prints it.
// Skipped if the database doesn't exist.
func TestLiveDatabase(t *testing.T) {
	dbPath := DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}

	store, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	sessions, err := store.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions in database")
		return
	}

	for i, sess := range sessions {
		fmt.Printf("  %d. %s listened %.0fs of %.0fs, last played %s\n", i+1, sess.Name(),
			sess.Duration, sess.TotalLength, humanize.Time(sess.EndedAt))

		totals, err := store.DictationTotals(sess.AudioPath)
		if err != nil {
			t.Fatalf("DictationTotals: %v", err)
		}
		if totals.Attempts > 0 {
			fmt.Printf("     dictation: %d attempts, %.0f%% characters correct\n",
				totals.Attempts, totals.CharAccuracy()*100)
		}
	}
}
