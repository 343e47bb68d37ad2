package shortcuts

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/vdfbinary"
)

// ErrCorruptStore is returned when shortcuts.vdf exists but cannot be parsed.
// The store refuses to proceed in that case: treating a corrupt file as empty
// and then writing would silently discard every existing shortcut.
var ErrCorruptStore = errors.New("shortcuts.vdf is corrupt")

// Store owns one shortcuts.vdf file. Every operation is a full
// read-modify-write cycle; there is no locking, so Steam must not be writing
// shortcuts concurrently. That precondition is on the caller.
type Store struct {
	logger *logging.Logger
	Path   string
}

func NewStore(path string) *Store {
	return &Store{Path: path, logger: logging.GetLogger()}
}

// List decodes the current file. A missing or zero-length file yields an
// empty list; anything unparseable is an ErrCorruptStore.
func (s *Store) List() ([]Record, error) {
	f, err := os.Open(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	root, err := vdfbinary.Parse(f)
	if errors.Is(err, vdfbinary.ErrEmpty) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.Path, err)
	}

	shortcutsObj, ok := root.Object("shortcuts")
	if !ok {
		return nil, fmt.Errorf("%w: %s: no shortcuts key", ErrCorruptStore, s.Path)
	}

	records := make([]Record, 0, shortcutsObj.Len())
	for _, index := range shortcutsObj.Keys() {
		entry, ok := shortcutsObj.Object(index)
		if !ok {
			return nil, fmt.Errorf("%w: %s: entry %q is not an object", ErrCorruptStore, s.Path, index)
		}
		records = append(records, decodeRecord(index, entry))
	}
	return records, nil
}

// Upsert adds the record or replaces an existing one matching on the
// name/exe/startdir triple. A replaced record keeps its index and AppID; a new
// one is appended with the next sequential index. The whole set is written
// back, so calling this twice with the same target leaves exactly one entry.
func (s *Store) Upsert(rec Record) (uint32, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}

	if rec.AppID == 0 {
		// Exe is stored quoted; the hash covers the raw path.
		rec.AppID = GenerateAppID(rec.AppName, Unquote(rec.Exe))
	}

	replaced := false
	for i := range records {
		if records[i].SameTarget(rec) {
			rec.Index = records[i].Index
			if records[i].AppID != 0 {
				rec.AppID = records[i].AppID
			}
			records[i] = rec
			replaced = true
			s.logger.Info(fmt.Sprintf("Updating existing shortcut %q at index %s", rec.AppName, rec.Index))
			break
		}
	}
	if !replaced {
		rec.Index = strconv.Itoa(len(records))
		records = append(records, rec)
		s.logger.Info(fmt.Sprintf("Adding shortcut %q at index %s (AppID %d)", rec.AppName, rec.Index, rec.AppID))
	}

	if err := s.Write(records); err != nil {
		return 0, err
	}
	return rec.AppID, nil
}

// Write backs up the current file and rewrites it with the full record set.
// Backups are timestamped and never pruned here; retention is the caller's
// concern. A failed backup is logged but does not block the write.
func (s *Store) Write(records []Record) error {
	s.backup()

	root := vdfbinary.NewObject()
	shortcutsObj := vdfbinary.NewObject()
	for _, rec := range records {
		shortcutsObj.SetObject(rec.Index, rec.encode())
	}
	root.SetObject("shortcuts", shortcutsObj)

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.Path, err)
	}
	if err := root.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.Path, err)
	}
	return nil
}

func (s *Store) backup() {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return
	}
	backupPath := fmt.Sprintf("%s.bak.%d", s.Path, time.Now().Unix())
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		s.logger.Warning(fmt.Sprintf("Failed to back up %s: %v", s.Path, err))
		return
	}
	s.logger.Info("Backed up shortcuts to " + backupPath)
}
