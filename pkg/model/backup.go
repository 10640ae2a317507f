package model

import "time"

// BackupVersion is the current backup document version
const BackupVersion = 1

// Backup is the export/import document and the on-disk store layout
type Backup struct {
	Version      int           `json:"version"`
	ExportedAt   time.Time     `json:"exported_at"`
	Transactions []Transaction `json:"transactions"`
	Settings     *UserSettings `json:"settings,omitempty"`
}
