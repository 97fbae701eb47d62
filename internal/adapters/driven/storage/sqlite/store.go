package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexFile is the snapshot file name inside the index directory.
const IndexFile = "index.db"

// formatVersion is bumped when the snapshot layout changes incompatibly.
const formatVersion = "1"

// Meta keys.
const (
	metaFormat     = "format_version"
	metaDimensions = "dimensions"
	metaModel      = "model"
	metaSavedAt    = "saved_at"
)

// IndexStore reads and writes index snapshots. It holds no open handles
// between calls.
type IndexStore struct{}

// NewIndexStore creates a new snapshot store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Path returns the snapshot file path for dir.
func Path(dir string) string {
	return filepath.Join(dir, IndexFile)
}

// Exists reports whether a snapshot file is present at dir.
func (s *IndexStore) Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}

// Save writes the snapshot to dir atomically.
func (s *IndexStore) Save(ctx context.Context, dir string, snapshot *driven.IndexSnapshot) (err error) {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.db.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath) //nolint:errcheck
		}
	}()

	if err := writeSnapshot(ctx, tmpPath, snapshot); err != nil {
		return err
	}
	if err := syncFile(tmpPath); err != nil {
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, Path(dir)); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	// Directory sync makes the rename durable; not all platforms support it.
	syncFile(dir) //nolint:errcheck

	return nil
}

// Load reads the snapshot at dir.
func (s *IndexStore) Load(ctx context.Context, dir string) (*driven.IndexSnapshot, error) {
	path := Path(dir)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("index at %s: %w", dir, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", domain.ErrCorruptIndex, path)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrCorruptIndex, path, err)
	}
	defer db.Close()

	snapshot, err := readSnapshot(ctx, db)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptIndex, path, err)
	}
	return snapshot, nil
}

// writeSnapshot creates the schema in a fresh database and fills it in one transaction.
func writeSnapshot(ctx context.Context, path string, snapshot *driven.IndexSnapshot) error {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer db.Close()

	if err := migrate(db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	meta := map[string]string{
		metaFormat:     formatVersion,
		metaDimensions: strconv.Itoa(snapshot.Dimensions),
		metaModel:      snapshot.Model,
		metaSavedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("saving meta %s: %w", k, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (seq, id, document_id, source, position, start_offset, end_offset,
			overlap, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range snapshot.Chunks {
		chunk := &snapshot.Chunks[i]
		if len(chunk.Embedding) != snapshot.Dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, snapshot has %d",
				domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), snapshot.Dimensions)
		}

		metadataJSON := "{}"
		if len(chunk.Metadata) > 0 {
			data, err := json.Marshal(chunk.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata: %w", err)
			}
			metadataJSON = string(data)
		}

		if _, err := stmt.ExecContext(ctx, i, chunk.ID, chunk.DocumentID, chunk.Source, chunk.Position,
			chunk.Start, chunk.End, chunk.Overlap, chunk.Content, metadataJSON,
			float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// readSnapshot loads meta and chunks, validating every vector.
func readSnapshot(ctx context.Context, db *sql.DB) (*driven.IndexSnapshot, error) {
	meta := make(map[string]string)
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM index_meta`)
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}

	if meta[metaFormat] != formatVersion {
		return nil, fmt.Errorf("unsupported format version %q", meta[metaFormat])
	}
	dims, err := strconv.Atoi(meta[metaDimensions])
	if err != nil || dims < 0 {
		return nil, fmt.Errorf("invalid dimensions %q", meta[metaDimensions])
	}

	snapshot := &driven.IndexSnapshot{
		Dimensions: dims,
		Model:      meta[metaModel],
	}

	rows, err = db.QueryContext(ctx, `
		SELECT id, document_id, source, position, start_offset, end_offset, overlap,
			content, metadata, embedding
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON string
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Source, &chunk.Position,
			&chunk.Start, &chunk.End, &chunk.Overlap, &chunk.Content, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(blob) != dims*4 {
			return nil, fmt.Errorf("chunk %s embedding is %d bytes, want %d", chunk.ID, len(blob), dims*4)
		}
		chunk.Embedding = bytesToFloat32Slice(blob)
		if metadataJSON != "" && metadataJSON != "{}" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("chunk %s metadata: %w", chunk.ID, err)
			}
		}
		snapshot.Chunks = append(snapshot.Chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	return snapshot, nil
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys embed.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return []byte{}
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
