package implementation

import (
	"context"
	"errors"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/mapper"
	"doc-qa-be/internal/model"
	"doc-qa-be/internal/repository/contract"
	"doc-qa-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.DocumentChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	models := r.mapper.ToModels(chunks)

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Write generated ids back to the entities
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	var m model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

// readyChunkRow carries the joined document title alongside the chunk row.
type readyChunkRow struct {
	model.DocumentChunk
	DocumentTitle string
}

func (r *DocumentChunkRepositoryImpl) readyQuery(ctx context.Context, userId uuid.UUID) *gorm.DB {
	// Only chunks of READY, live documents owned by the user are candidates.
	return r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, documents.title as document_title").
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", userId).
		Where("documents.status = ?", constant.DocumentStatusReady).
		Where("document_chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")
}

func (r *DocumentChunkRepositoryImpl) ListReady(ctx context.Context, userId uuid.UUID, documentIds []uuid.UUID) ([]*contract.ReadyChunk, error) {
	var rows []readyChunkRow

	query := r.readyQuery(ctx, userId)
	if len(documentIds) > 0 {
		query = query.Where("document_chunks.document_id IN ?", documentIds)
	}

	err := query.
		Order("document_chunks.document_id").
		Order("document_chunks.sequence_index").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toReadyChunks(rows), nil
}

func (r *DocumentChunkRepositoryImpl) ListReadyNearest(ctx context.Context, userId uuid.UUID, queryEmbedding []float32, limit int) ([]*contract.ReadyChunk, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []readyChunkRow

	err := r.readyQuery(ctx, userId).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(queryEmbedding))).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toReadyChunks(rows), nil
}

func (r *DocumentChunkRepositoryImpl) toReadyChunks(rows []readyChunkRow) []*contract.ReadyChunk {
	chunks := make([]*contract.ReadyChunk, len(rows))
	for i := range rows {
		chunks[i] = &contract.ReadyChunk{
			Chunk:         r.mapper.ToEntity(&rows[i].DocumentChunk),
			DocumentTitle: rows[i].DocumentTitle,
		}
	}
	return chunks
}
