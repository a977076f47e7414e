package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no history row matches
var ErrNotFound = errors.New("transcript not found")

// TranscriptRecord is one finished request in the history table
type TranscriptRecord struct {
	JobID               string    `json:"job_id"`
	Filename            string    `json:"filename"`
	SourceType          string    `json:"source_type"`
	Status              string    `json:"status"`
	Transcript          string    `json:"transcript,omitempty"`
	Error               string    `json:"error,omitempty"`
	ChunkCount          int       `json:"chunk_count"`
	TotalProcessingTime float64   `json:"total_processing_time"`
	WordsPerSecond      float64   `json:"words_per_second"`
	FileSizeInBytes     int64     `json:"file_size_in_bytes"`
	CreatedAt           time.Time `json:"created_at"`
}

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB creates a new metadata database
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; request workers insert concurrently.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		source_type TEXT NOT NULL,
		status TEXT NOT NULL,
		transcript TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		chunk_count INTEGER NOT NULL DEFAULT 0,
		processing_time REAL NOT NULL DEFAULT 0,
		words_per_second REAL NOT NULL DEFAULT 0,
		file_size INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON transcripts(created_at);
	CREATE INDEX IF NOT EXISTS idx_status ON transcripts(status);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveTranscript inserts a finished request
func (mdb *MetadataDB) SaveTranscript(rec TranscriptRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO transcripts (job_id, filename, source_type, status, transcript, error,
		chunk_count, processing_time, words_per_second, file_size, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, rec.JobID, rec.Filename, rec.SourceType, rec.Status,
		rec.Transcript, rec.Error, rec.ChunkCount, rec.TotalProcessingTime,
		rec.WordsPerSecond, rec.FileSizeInBytes, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save transcript metadata: %w", err)
	}
	return nil
}

const selectColumns = `job_id, filename, source_type, status, transcript, error,
	chunk_count, processing_time, words_per_second, file_size, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (TranscriptRecord, error) {
	var rec TranscriptRecord
	err := row.Scan(&rec.JobID, &rec.Filename, &rec.SourceType, &rec.Status,
		&rec.Transcript, &rec.Error, &rec.ChunkCount, &rec.TotalProcessingTime,
		&rec.WordsPerSecond, &rec.FileSizeInBytes, &rec.CreatedAt)
	return rec, err
}

// GetTranscript retrieves one record by job ID
func (mdb *MetadataDB) GetTranscript(jobID string) (TranscriptRecord, error) {
	row := mdb.db.QueryRow(`SELECT `+selectColumns+` FROM transcripts WHERE job_id = ?`, jobID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TranscriptRecord{}, ErrNotFound
	}
	if err != nil {
		return TranscriptRecord{}, fmt.Errorf("failed to get transcript: %w", err)
	}
	return rec, nil
}

// ListTranscripts returns the newest records first, without transcript text
func (mdb *MetadataDB) ListTranscripts(limit int) ([]TranscriptRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := mdb.db.Query(`SELECT `+selectColumns+` FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	transcripts := make([]TranscriptRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		rec.Transcript = ""
		transcripts = append(transcripts, rec)
	}
	return transcripts, rows.Err()
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
