package models

import "time"

// Category раздел каталога верхнего уровня.
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Sort          int           `json:"sort"`
	CreatedAt     time.Time     `json:"createdAt"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// Subcategory подраздел, принадлежащий категории.
type Subcategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"categoryId"`
	Name       string    `json:"name"`
	Sort       int       `json:"sort"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Tag метка ресурса.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ref краткая ссылка на сущность: идентификатор и название.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Download ссылка на скачивание ресурса с кодом извлечения.
type Download struct {
	ID   int64   `json:"id"`
	URL  string  `json:"url"`
	Code *string `json:"code"`
}

// Resource продаваемый цифровой ресурс.
type Resource struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Cover         *string    `json:"cover"`
	Content       string     `json:"content"`
	Price         float64    `json:"price"`
	IsVipOnly     bool       `json:"isVipOnly"`
	VipDailyLimit *int       `json:"vipDailyLimit"`
	Category      *Ref       `json:"category"`
	Subcategory   *Ref       `json:"subcategory"`
	Tags          []Tag      `json:"tags"`
	Downloads     []Download `json:"downloads"`
	DownloadCount int        `json:"downloadCount"`
	ViewCount     int        `json:"viewCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ResourceSummary элемент списка ресурсов без содержимого и ссылок.
type ResourceSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Cover         *string   `json:"cover"`
	Price         float64   `json:"price"`
	IsVipOnly     bool      `json:"isVipOnly"`
	CategoryID    *int64    `json:"categoryId"`
	SubcategoryID *int64    `json:"subcategoryId"`
	DownloadCount int       `json:"downloadCount"`
	ViewCount     int       `json:"viewCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Сортировки списка ресурсов.
const (
	SortLatest    = "latest"
	SortDownloads = "downloads"
	SortViews     = "views"
)

// ResourceFilter параметры постраничной выборки ресурсов.
type ResourceFilter struct {
	CategoryID    *int64
	SubcategoryID *int64
	TagID         *int64
	Sort          string
	Page          int
	Size          int
}

// Page страница результатов.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// Neighbours соседние ресурсы по идентификатору.
type Neighbours struct {
	Prev *Ref `json:"prev"`
	Next *Ref `json:"next"`
}
