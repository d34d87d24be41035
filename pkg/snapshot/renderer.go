package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/pkg/storage"
)

// Renderer produces an immutable rendered snapshot of a structured payload at
// approval time and returns the storage key it was persisted under.
// SnapshotURL resolves a stored key to a short-lived download link.
type Renderer interface {
	Render(ctx context.Context, tenantID, documentID, versionID uuid.UUID, payload []byte) (string, error)
	SnapshotURL(ctx context.Context, key string) (string, error)
}

// snapshotURLTTL bounds how long a handed-out snapshot link stays valid.
const snapshotURLTTL = 15 * time.Minute

// payloadDocument is the shape structured content is authored in. Unknown
// payloads fall back to a raw field dump.
type payloadDocument struct {
	Title    string `json:"title"`
	Sections []struct {
		Heading string `json:"heading"`
		Body    string `json:"body"`
	} `json:"sections"`
}

// PDFRenderer renders structured payloads to PDF and stores them in S3.
type PDFRenderer struct {
	store  storage.S3Client
	bucket string
	logger *zap.Logger
}

// NewPDFRenderer creates a PDF snapshot renderer.
func NewPDFRenderer(store storage.S3Client, bucket string, logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{store: store, bucket: bucket, logger: logger}
}

func (r *PDFRenderer) Render(ctx context.Context, tenantID, documentID, versionID uuid.UUID, payload []byte) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	var doc payloadDocument
	if err := json.Unmarshal(payload, &doc); err == nil && (doc.Title != "" || len(doc.Sections) > 0) {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, doc.Title, "", "L", false)
		pdf.Ln(4)
		for _, section := range doc.Sections {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 6, section.Heading, "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, section.Body, "", "L", false)
			pdf.Ln(3)
		}
	} else {
		// Payload does not match the authoring shape; dump the raw fields so
		// the snapshot is still a faithful record.
		var fields map[string]interface{}
		if err := json.Unmarshal(payload, &fields); err != nil {
			return "", fmt.Errorf("structured payload is not valid JSON: %w", err)
		}
		pdf.SetFont("Helvetica", "", 10)
		for k, v := range fields {
			pdf.MultiCell(0, 5, fmt.Sprintf("%s: %v", k, v), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("failed to render snapshot PDF: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/%s/%s.pdf", tenantID, documentID, versionID)
	if err := r.store.Upload(ctx, r.bucket, key, &buf); err != nil {
		return "", fmt.Errorf("failed to store snapshot: %w", err)
	}

	r.logger.Info("Rendered approval snapshot",
		zap.String("document_id", documentID.String()),
		zap.String("version_id", versionID.String()),
		zap.String("snapshot_key", key))
	return key, nil
}

func (r *PDFRenderer) SnapshotURL(ctx context.Context, key string) (string, error) {
	return r.store.GetPresignedURL(ctx, r.bucket, key, snapshotURLTTL)
}
