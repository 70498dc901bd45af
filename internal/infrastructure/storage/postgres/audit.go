package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"stockledger/internal/core/id"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID              id.ID           `db:"id"`
	Action          string          `db:"action"`
	EntityID        string          `db:"entity_id"`
	ActorID         string          `db:"actor_id"`
	Meta            json.RawMessage `db:"meta"`
	MetaCompressed  []byte          `db:"meta_compressed"`
	CompressionAlgo CompressionAlgo `db:"compression_algo"`
	CreatedAt       time.Time       `db:"created_at"`
}

// AuditService records an audit trail of movement postings and voids.
// Large metadata payloads are zstd-compressed before storage.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Record implements the movement engine's audit port.
func (s *AuditService) Record(ctx context.Context, action, entityID, actorID string, meta map[string]any) error {
	entry := AuditEntry{
		ID:              id.New(),
		Action:          action,
		EntityID:        entityID,
		ActorID:         actorID,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal audit meta: %w", err)
		}
		if len(raw) > s.compressThreshold {
			entry.MetaCompressed = s.encoder.EncodeAll(raw, nil)
			entry.CompressionAlgo = CompressionZstd
		} else {
			entry.Meta = raw
		}
	}

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO audit_log (id, action, entity_id, actor_id, meta, meta_compressed, compression_algo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Action, entry.EntityID, entry.ActorID,
		entry.Meta, entry.MetaCompressed, string(entry.CompressionAlgo), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// DecodeMeta returns the metadata payload of an entry, decompressing when needed.
func (s *AuditService) DecodeMeta(entry AuditEntry) (json.RawMessage, error) {
	if entry.CompressionAlgo != CompressionZstd {
		return entry.Meta, nil
	}
	raw, err := s.decoder.DecodeAll(entry.MetaCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress audit meta: %w", err)
	}
	return raw, nil
}
