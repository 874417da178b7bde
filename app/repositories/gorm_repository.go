package repositories

import (
	"context"

	"quill/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository implements UserRepository on a relational database.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	return translateError(err, "email")
}

func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &user, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &user, nil
}

func (r *GormUserRepository) GetByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&user).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return saveAll(r.db.WithContext(ctx), user, "email")
}

// Delete relies on ON DELETE CASCADE to remove posts and comments.
func (r *GormUserRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(r.db.WithContext(ctx), &models.User{}, id)
}

// GormPostRepository implements PostRepository on a relational database.
type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
	return translateError(err, "slug")
}

func (r *GormPostRepository) GetByID(ctx context.Context, id int64, relations ...string) (*models.Post, error) {
	var post models.Post
	tx := preloadPost(r.db.WithContext(ctx), relations)
	if err := tx.First(&post, id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &post, nil
}

func (r *GormPostRepository) List(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	if q.Offset < 0 {
		return []*models.Post{}, nil
	}
	tx := preloadPost(r.filter(ctx, q), q.Relations).
		Order("created_at DESC").
		Order("id DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var posts []*models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *GormPostRepository) Count(ctx context.Context, q PostQuery) (int64, error) {
	var n int64
	err := r.filter(ctx, q).Count(&n).Error
	return n, err
}

func (r *GormPostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *GormPostRepository) Update(ctx context.Context, post *models.Post) error {
	return saveAll(r.db.WithContext(ctx), post, "slug")
}

// Delete relies on ON DELETE CASCADE to remove comments.
func (r *GormPostRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(r.db.WithContext(ctx), &models.Post{}, id)
}

func (r *GormPostRepository) filter(ctx context.Context, q PostQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Post{})
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.UserID != 0 {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	return tx
}

func preloadPost(tx *gorm.DB, relations []string) *gorm.DB {
	if hasRelation(relations, RelOwner) {
		tx = tx.Preload(RelOwner)
	}
	if hasRelation(relations, RelComments) || hasRelation(relations, RelCommentAuthors) {
		tx = tx.Preload(RelComments, oldestFirst)
	}
	if hasRelation(relations, RelCommentAuthors) {
		tx = tx.Preload(RelCommentAuthors)
	}
	return tx
}

func oldestFirst(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at ASC").Order("id ASC")
}

// GormCommentRepository implements CommentRepository on a relational database.
type GormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
	return translateError(err, "")
}

func (r *GormCommentRepository) GetByID(ctx context.Context, id int64, relations ...string) (*models.Comment, error) {
	var comment models.Comment
	tx := r.db.WithContext(ctx)
	for _, rel := range []string{RelOwner, RelPost} {
		if hasRelation(relations, rel) {
			tx = tx.Preload(rel)
		}
	}
	if err := tx.First(&comment, id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &comment, nil
}

func (r *GormCommentRepository) ListByPost(ctx context.Context, postID int64, q CommentQuery) ([]*models.Comment, error) {
	tx := oldestFirst(r.db.WithContext(ctx).Where("post_id = ?", postID))
	if q.ApprovedOnly {
		tx = tx.Where("approved = ?", true)
	}
	for _, rel := range []string{RelOwner, RelPost} {
		if hasRelation(q.Relations, rel) {
			tx = tx.Preload(rel)
		}
	}

	var comments []*models.Comment
	if err := tx.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *GormCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return saveAll(r.db.WithContext(ctx), comment, "")
}

func (r *GormCommentRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(r.db.WithContext(ctx), &models.Comment{}, id)
}

// saveAll writes every column of model, including zero values, and reports
// ErrNotFound when no row matched.
func saveAll(tx *gorm.DB, model interface{}, uniqueField string) error {
	res := tx.Model(model).Select("*").Omit(clause.Associations).Updates(model)
	if res.Error != nil {
		return translateError(res.Error, uniqueField)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(tx *gorm.DB, model interface{}, id int64) error {
	res := tx.Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
