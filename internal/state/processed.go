package state

import "fmt"

// maxProcessedItems caps the processed-item ledger at the most recent
// entries. Older entries are evicted on insert.
const maxProcessedItems = 500

// ProcessedStore is the append-only ledger of external item ids that
// have already been analyzed. It is global, not per-agent, and capped
// at the 500 most recent ids.
type ProcessedStore struct {
	db *DB
}

// NewProcessedStore creates a ProcessedStore over the given database.
func NewProcessedStore(db *DB) *ProcessedStore {
	return &ProcessedStore{db: db}
}

// Has reports whether an item id has already been processed.
func (s *ProcessedStore) Has(itemID string) (bool, error) {
	var n int
	row := s.db.QueryRow("SELECT COUNT(*) FROM processed_items WHERE item_id = ?", itemID)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return n > 0, nil
}

// Add appends item ids to the ledger and evicts the oldest entries
// beyond the cap. Re-adding a known id refreshes its position.
func (s *ProcessedStore) Add(itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	for _, id := range itemIDs {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO processed_items (item_id, seq)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM processed_items))
		`, id)
		if err != nil {
			return fmt.Errorf("add processed item: %w", err)
		}
	}

	_, err := s.db.Exec(`
		DELETE FROM processed_items WHERE item_id NOT IN (
			SELECT item_id FROM processed_items ORDER BY seq DESC LIMIT ?
		)
	`, maxProcessedItems)
	if err != nil {
		return fmt.Errorf("trim processed items: %w", err)
	}
	return nil
}

// Count returns the number of ids currently in the ledger.
func (s *ProcessedStore) Count() (int, error) {
	var n int
	row := s.db.QueryRow("SELECT COUNT(*) FROM processed_items")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count processed: %w", err)
	}
	return n, nil
}
