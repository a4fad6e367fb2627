package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/valter-silva-au/weekboard/pkg/models"
	"gopkg.in/yaml.v3"
)

// AlertLedgerFile is the top-level structure of the alert ledger YAML file.
type AlertLedgerFile struct {
	Version string               `yaml:"version"`
	Alerts  []models.AlertRecord `yaml:"alerts"`
}

// FileAlertLedger keeps fired and dismissed alert keys in a YAML file so
// dismissals survive restarts. It implements observability.AlertLedger.
type FileAlertLedger struct {
	path    string
	records map[string]models.AlertRecord
}

// NewFileAlertLedger creates a ledger backed by the file at path. Nothing is
// read until Load.
func NewFileAlertLedger(path string) *FileAlertLedger {
	return &FileAlertLedger{path: path, records: make(map[string]models.AlertRecord)}
}

func ledgerKey(kind models.AlertKind, key string) string {
	return string(kind) + "|" + key
}

// Load replaces the in-memory records with the file's contents. A missing
// file is an empty ledger.
func (l *FileAlertLedger) Load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.records = make(map[string]models.AlertRecord)
			return nil
		}
		return fmt.Errorf("loading alert ledger: %w", err)
	}

	var f AlertLedgerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("loading alert ledger: parsing YAML: %w", err)
	}
	l.records = make(map[string]models.AlertRecord, len(f.Alerts))
	for _, r := range f.Alerts {
		l.records[ledgerKey(r.Kind, r.Key)] = r
	}
	return nil
}

// Save writes the records, sorted by kind then key, holding an exclusive
// lock on the ledger's .lock file for the duration of the write.
func (l *FileAlertLedger) Save() (err error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("saving alert ledger: creating directory: %w", err)
	}
	unlock, err := lockFile(l.path + ".lock")
	if err != nil {
		return fmt.Errorf("saving alert ledger: %w", err)
	}
	defer func() {
		if uerr := unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("saving alert ledger: releasing lock: %w", uerr)
		}
	}()
	f := AlertLedgerFile{Version: "1.0", Alerts: l.Records()}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("saving alert ledger: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(l.path, data, 0o600); err != nil {
		return fmt.Errorf("saving alert ledger: writing file: %w", err)
	}
	return nil
}

func (l *FileAlertLedger) Get(kind models.AlertKind, key string) (models.AlertRecord, bool) {
	r, ok := l.records[ledgerKey(kind, key)]
	return r, ok
}

func (l *FileAlertLedger) Put(rec models.AlertRecord) {
	l.records[ledgerKey(rec.Kind, rec.Key)] = rec
}

func (l *FileAlertLedger) Delete(kind models.AlertKind, key string) {
	delete(l.records, ledgerKey(kind, key))
}

func (l *FileAlertLedger) Records() []models.AlertRecord {
	out := make([]models.AlertRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.AlertRecord) int {
		if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}
