package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

// ListCategories возвращает категории, упорядоченные по sort.
func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "storage.ListCategories"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, sort, created_at FROM categories ORDER BY sort ASC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Sort, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListCategoryTree возвращает категории вместе с подкатегориями.
func (s *Storage) ListCategoryTree(ctx context.Context) ([]models.Category, error) {
	const op = "storage.ListCategoryTree"
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, category_id, name, sort, created_at FROM subcategories ORDER BY sort ASC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	byCategory := make(map[int64][]models.Subcategory)
	for rows.Next() {
		var sc models.Subcategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.Sort, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		byCategory[sc.CategoryID] = append(byCategory[sc.CategoryID], sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range categories {
		categories[i].Subcategories = byCategory[categories[i].ID]
	}
	return categories, nil
}

// CreateCategory создаёт категорию.
func (s *Storage) CreateCategory(ctx context.Context, name string, sort int) (*models.Category, error) {
	const op = "storage.CreateCategory"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	c := models.Category{Name: name, Sort: sort}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO categories (name, sort) VALUES ($1, $2) RETURNING id, created_at`,
		name, sort).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &c, nil
}

// UpdateCategory меняет имя категории и, если sort не nil, её порядок.
func (s *Storage) UpdateCategory(ctx context.Context, id int64, name string, sort *int) (*models.Category, error) {
	const op = "storage.UpdateCategory"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var c models.Category
	err := s.DB.QueryRowContext(ctx,
		`UPDATE categories SET name = $2, sort = COALESCE($3, sort)
		 WHERE id = $1
		 RETURNING id, name, sort, created_at`,
		id, name, sort).Scan(&c.ID, &c.Name, &c.Sort, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &c, nil
}

// DeleteCategory удаляет категорию вместе с подкатегориями.
func (s *Storage) DeleteCategory(ctx context.Context, id int64) error {
	const op = "storage.DeleteCategory"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSubcategories возвращает подкатегории категории.
func (s *Storage) ListSubcategories(ctx context.Context, categoryID int64) ([]models.Subcategory, error) {
	const op = "storage.ListSubcategories"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, category_id, name, sort, created_at
		 FROM subcategories
		 WHERE category_id = $1
		 ORDER BY sort ASC, id DESC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subcategory, 0)
	for rows.Next() {
		var sc models.Subcategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.Sort, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateSubcategory создаёт подкатегорию в категории categoryID.
func (s *Storage) CreateSubcategory(ctx context.Context, categoryID int64, name string, sort int) (*models.Subcategory, error) {
	const op = "storage.CreateSubcategory"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	sc := models.Subcategory{CategoryID: categoryID, Name: name, Sort: sort}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO subcategories (category_id, name, sort) VALUES ($1, $2, $3) RETURNING id, created_at`,
		categoryID, name, sort).Scan(&sc.ID, &sc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &sc, nil
}

// UpdateSubcategory меняет имя подкатегории и, если sort не nil, её порядок.
func (s *Storage) UpdateSubcategory(ctx context.Context, id int64, name string, sort *int) (*models.Subcategory, error) {
	const op = "storage.UpdateSubcategory"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var sc models.Subcategory
	err := s.DB.QueryRowContext(ctx,
		`UPDATE subcategories SET name = $2, sort = COALESCE($3, sort)
		 WHERE id = $1
		 RETURNING id, category_id, name, sort, created_at`,
		id, name, sort).Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.Sort, &sc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &sc, nil
}

// DeleteSubcategory удаляет подкатегорию.
func (s *Storage) DeleteSubcategory(ctx context.Context, id int64) error {
	const op = "storage.DeleteSubcategory"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListTags возвращает все метки по возрастанию идентификатора.
func (s *Storage) ListTags(ctx context.Context) ([]models.Tag, error) {
	const op = "storage.ListTags"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateTag создаёт метку.
func (s *Storage) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	const op = "storage.CreateTag"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	t := models.Tag{Name: name}
	if err := s.DB.QueryRowContext(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id`, name).Scan(&t.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &t, nil
}

// UpdateTag переименовывает метку.
func (s *Storage) UpdateTag(ctx context.Context, id int64, name string) (*models.Tag, error) {
	const op = "storage.UpdateTag"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var t models.Tag
	err := s.DB.QueryRowContext(ctx, `UPDATE tags SET name = $2 WHERE id = $1 RETURNING id, name`, id, name).
		Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &t, nil
}

// DeleteTag удаляет метку и её привязки к ресурсам.
func (s *Storage) DeleteTag(ctx context.Context, id int64) error {
	const op = "storage.DeleteTag"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSiteSettings возвращает настройки сайта или nil, если строки нет.
func (s *Storage) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	const op = "storage.GetSiteSettings"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var st models.SiteSettings
	err := s.DB.QueryRowContext(ctx,
		`SELECT site_name, site_logo, site_slogan, site_keywords, site_description,
		        hero_image, footer_text, site_subtitle
		 FROM site_settings LIMIT 1`).
		Scan(&st.SiteName, &st.SiteLogo, &st.SiteSlogan, &st.SiteKeywords, &st.SiteDescription,
			&st.HeroImage, &st.FooterText, &st.SiteSubtitle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &st, nil
}
