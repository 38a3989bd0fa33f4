package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

const (
	documentsTable = "documents"
	recordsTable   = "records"
)

// documentRow mirrors the documents table schema.
type documentRow struct {
	ID         string                 `bigquery:"document_id"`
	Filename   string                 `bigquery:"filename"`
	Format     string                 `bigquery:"format"`
	Status     string                 `bigquery:"status"`
	SizeBytes  int64                  `bigquery:"size_bytes"`
	StorageURI string                 `bigquery:"storage_uri"`
	Checksum   string                 `bigquery:"checksum_sha256"`
	OwnerID    string                 `bigquery:"owner_id"`
	UploadedAt bigquery.NullTimestamp `bigquery:"uploaded_at"`
}

// recordRow mirrors the records table schema.
type recordRow struct {
	DocumentID  string     `bigquery:"document_id"`
	AccountName string     `bigquery:"account_name"`
	AccountCode string     `bigquery:"account_code"`
	Period      string     `bigquery:"period"`
	Amount      float64    `bigquery:"amount"`
	Currency    string     `bigquery:"currency"`
	Category    string     `bigquery:"category"`
	Subcategory string     `bigquery:"subcategory"`
	RecordedAt  civil.Date `bigquery:"recorded_at"`
}

// BigQueryRepository implements DocumentRepository on top of BigQuery.
type BigQueryRepository struct {
	client  *bigquery.Client
	project string
	dataset string
}

// NewBigQueryRepository creates a repository and its client.
func NewBigQueryRepository(ctx context.Context, projectID, dataset string) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: bigquery client: %w", err)
	}
	return NewBigQueryRepositoryWithClient(client, projectID, dataset), nil
}

// NewBigQueryRepositoryWithClient wraps an existing client, which the tests
// and the API server (sharing one client across repositories) rely on.
func NewBigQueryRepositoryWithClient(client *bigquery.Client, projectID, dataset string) *BigQueryRepository {
	return &BigQueryRepository{client: client, project: projectID, dataset: dataset}
}

func (r *BigQueryRepository) Close() error {
	return r.client.Close()
}

func (r *BigQueryRepository) table(name string) *bigquery.Table {
	return r.client.DatasetInProject(r.project, r.dataset).Table(name)
}

func (r *BigQueryRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	row := &documentRow{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Format:     string(doc.Format),
		Status:     string(doc.Status),
		SizeBytes:  doc.SizeBytes,
		StorageURI: doc.StorageURI,
		Checksum:   doc.Checksum,
		OwnerID:    doc.OwnerID,
		UploadedAt: bigquery.NullTimestamp{Timestamp: doc.UploadedAt, Valid: true},
	}
	if err := r.table(documentsTable).Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("CreateDocument: inserting row: %w", err)
	}
	return nil
}

func (r *BigQueryRepository) UpdateDocumentStatus(ctx context.Context, docID string, status domain.DocumentStatus) error {
	current, err := r.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: %w", err)
	}
	if !current.Status.CanTransition(status) {
		return fmt.Errorf("UpdateDocumentStatus: illegal transition %s -> %s", current.Status, status)
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status
		WHERE document_id = @document_id
	`, r.dataset, documentsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: string(status)},
		{Name: "document_id", Value: docID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: query run: %w", err)
	}
	st, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: job wait: %w", err)
	}
	if err := st.Err(); err != nil {
		return fmt.Errorf("UpdateDocumentStatus: job status: %w", err)
	}
	return nil
}

func (r *BigQueryRepository) BulkInsertRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]*recordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &recordRow{
			DocumentID:  rec.DocumentID,
			AccountName: rec.AccountName,
			AccountCode: rec.AccountCode,
			Period:      rec.Period,
			Amount:      rec.Amount,
			Currency:    rec.Currency,
			Category:    rec.Category,
			Subcategory: rec.Subcategory,
			RecordedAt:  civil.DateOf(rec.RecordedAt),
		})
	}
	if err := r.table(recordsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("BulkInsertRecords: inserting rows: %w", err)
	}
	return nil
}

func (r *BigQueryRepository) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT document_id, filename, format, status, size_bytes,
		       storage_uri, checksum_sha256, owner_id, uploaded_at
		FROM %s.%s
		WHERE document_id = @document_id
		LIMIT 1
	`, r.dataset, documentsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: docID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: query read: %w", err)
	}
	var row documentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetDocument: iter next: %w", err)
	}
	return docFromRow(&row), nil
}

func (r *BigQueryRepository) GetDocumentRecords(ctx context.Context, docID string) ([]domain.Record, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT document_id, account_name, account_code, period, amount,
		       currency, category, subcategory, recorded_at
		FROM %s.%s
		WHERE document_id = @document_id
		ORDER BY account_name
	`, r.dataset, recordsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: docID},
	}
	return r.readRecords(ctx, q, "GetDocumentRecords")
}

func (r *BigQueryRepository) GetDocumentWithRecords(ctx context.Context, docID string) (*domain.Document, []domain.Record, error) {
	doc, err := r.GetDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	records, err := r.GetDocumentRecords(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	return doc, records, nil
}

func (r *BigQueryRepository) GetRecordsByPeriod(ctx context.Context, period string) ([]domain.Record, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT document_id, account_name, account_code, period, amount,
		       currency, category, subcategory, recorded_at
		FROM %s.%s
		WHERE period = @period
		ORDER BY account_name
	`, r.dataset, recordsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "period", Value: period},
	}
	return r.readRecords(ctx, q, "GetRecordsByPeriod")
}

func (r *BigQueryRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*domain.Document, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT document_id, filename, format, status, size_bytes,
		       storage_uri, checksum_sha256, owner_id, uploaded_at
		FROM %s.%s
		WHERE checksum_sha256 = @checksum
		LIMIT 1
	`, r.dataset, documentsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "checksum", Value: checksum},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: query read: %w", err)
	}
	var row documentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: iter next: %w", err)
	}
	return docFromRow(&row), nil
}

func (r *BigQueryRepository) readRecords(ctx context.Context, q *bigquery.Query, op string) ([]domain.Record, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}
	var records []domain.Record
	for {
		var row recordRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		records = append(records, domain.Record{
			DocumentID:  row.DocumentID,
			AccountName: row.AccountName,
			AccountCode: row.AccountCode,
			Period:      row.Period,
			Amount:      row.Amount,
			Currency:    row.Currency,
			Category:    row.Category,
			Subcategory: row.Subcategory,
			RecordedAt:  row.RecordedAt.In(time.UTC),
		})
	}
	return records, nil
}

func docFromRow(row *documentRow) *domain.Document {
	doc := &domain.Document{
		ID:         row.ID,
		Filename:   row.Filename,
		Format:     domain.Format(row.Format),
		Status:     domain.DocumentStatus(row.Status),
		SizeBytes:  row.SizeBytes,
		StorageURI: row.StorageURI,
		Checksum:   row.Checksum,
		OwnerID:    row.OwnerID,
	}
	if row.UploadedAt.Valid {
		doc.UploadedAt = row.UploadedAt.Timestamp
	}
	return doc
}

var _ DocumentRepository = (*BigQueryRepository)(nil)
