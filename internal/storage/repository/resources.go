package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/resource-store/internal/models"
)

// GetResource возвращает ресурс с категорией, подкатегорией, метками и ссылками.
func (s *Storage) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	const op = "storage.GetResource"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var (
		r                models.Resource
		cover            sql.NullString
		vipLimit         sql.NullInt32
		catID, subID     sql.NullInt64
		catName, subName sql.NullString
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT r.id, r.title, r.cover, r.content, r.price, r.is_vip_only, r.vip_daily_limit,
		        c.id, c.name, sc.id, sc.name, r.download_count, r.view_count, r.created_at
		 FROM resources r
		 LEFT JOIN categories c ON c.id = r.category_id
		 LEFT JOIN subcategories sc ON sc.id = r.subcategory_id
		 WHERE r.id = $1`, id).
		Scan(&r.ID, &r.Title, &cover, &r.Content, &r.Price, &r.IsVipOnly, &vipLimit,
			&catID, &catName, &subID, &subName, &r.DownloadCount, &r.ViewCount, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	r.Cover = ptrString(cover)
	r.VipDailyLimit = ptrInt(vipLimit)
	if catID.Valid {
		r.Category = &models.Ref{ID: catID.Int64, Name: catName.String}
	}
	if subID.Valid {
		r.Subcategory = &models.Ref{ID: subID.Int64, Name: subName.String}
	}

	if r.Tags, err = s.resourceTags(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if r.Downloads, err = s.resourceDownloads(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

func (s *Storage) resourceTags(ctx context.Context, resourceID int64) ([]models.Tag, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT t.id, t.name FROM resource_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.resource_id = $1 ORDER BY t.id`, resourceID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	tags := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Storage) resourceDownloads(ctx context.Context, resourceID int64) ([]models.Download, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, url, code FROM resource_downloads WHERE resource_id = $1 ORDER BY id`, resourceID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	downloads := make([]models.Download, 0)
	for rows.Next() {
		var d models.Download
		var code sql.NullString
		if err := rows.Scan(&d.ID, &d.URL, &code); err != nil {
			return nil, err
		}
		d.Code = ptrString(code)
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

var resourceOrder = map[string]string{
	models.SortLatest:    "r.created_at DESC, r.id DESC",
	models.SortDownloads: "r.download_count DESC, r.id DESC",
	models.SortViews:     "r.view_count DESC, r.id DESC",
}

// ListResources возвращает страницу ресурсов по фильтру.
func (s *Storage) ListResources(ctx context.Context, f models.ResourceFilter) ([]models.ResourceSummary, int, error) {
	const op = "storage.ListResources"
	if err := ctxDone(ctx, op); err != nil {
		return nil, 0, err
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoryID != nil {
		add("r.category_id = $%d", *f.CategoryID)
	}
	if f.SubcategoryID != nil {
		add("r.subcategory_id = $%d", *f.SubcategoryID)
	}
	if f.TagID != nil {
		add("EXISTS (SELECT 1 FROM resource_tags rt WHERE rt.resource_id = r.id AND rt.tag_id = $%d)", *f.TagID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	order, ok := resourceOrder[f.Sort]
	if !ok {
		order = resourceOrder[models.SortLatest]
	}
	args = append(args, f.Size, offset(f.Page, f.Size))
	query := fmt.Sprintf(
		`SELECT r.id, r.title, r.cover, r.price, r.is_vip_only, r.category_id, r.subcategory_id,
		        r.download_count, r.view_count, r.created_at
		 FROM resources r%s
		 ORDER BY %s
		 LIMIT $%d OFFSET $%d`, where, order, len(args)-1, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.ResourceSummary, 0, f.Size)
	for rows.Next() {
		var (
			r            models.ResourceSummary
			cover        sql.NullString
			catID, subID sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Title, &cover, &r.Price, &r.IsVipOnly, &catID, &subID,
			&r.DownloadCount, &r.ViewCount, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		r.Cover = ptrString(cover)
		r.CategoryID = ptrInt64(catID)
		r.SubcategoryID = ptrInt64(subID)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ResourceNeighbours возвращает ближайшие ресурсы с меньшим и большим id.
func (s *Storage) ResourceNeighbours(ctx context.Context, id int64) (*models.Neighbours, error) {
	const op = "storage.ResourceNeighbours"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	one := func(query string) (*models.Ref, error) {
		var ref models.Ref
		err := s.DB.QueryRowContext(ctx, query, id).Scan(&ref.ID, &ref.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &ref, nil
	}

	var (
		n   models.Neighbours
		err error
	)
	if n.Prev, err = one(`SELECT id, title FROM resources WHERE id < $1 ORDER BY id DESC LIMIT 1`); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n.Next, err = one(`SELECT id, title FROM resources WHERE id > $1 ORDER BY id ASC LIMIT 1`); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &n, nil
}

// IncrementResourceViews увеличивает счётчик просмотров ресурса и
// возвращает новое значение.
func (s *Storage) IncrementResourceViews(ctx context.Context, id int64) (int, error) {
	const op = "storage.IncrementResourceViews"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var views int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE resources SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`, id).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return views, nil
}
