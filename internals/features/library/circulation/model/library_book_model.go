package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Model: library_books
   ========================= */

// LibraryBook: satu judul buku per sekolah. AvailableCopies hanyalah cache
// proyeksi — nilai sebenarnya selalu total dikurangi loan aktif, dihitung
// ulang oleh reconciliation.
type LibraryBook struct {
	LibraryBookID       uuid.UUID `gorm:"column:library_book_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"library_book_id"`
	LibraryBookSchoolID uuid.UUID `gorm:"column:library_book_school_id;type:uuid;not null;index" json:"library_book_school_id"`

	LibraryBookTitle  string `gorm:"column:library_book_title;size:200;not null" json:"library_book_title"`
	LibraryBookAuthor string `gorm:"column:library_book_author;size:120" json:"library_book_author,omitempty"`
	LibraryBookISBN   string `gorm:"column:library_book_isbn;size:20;index" json:"library_book_isbn,omitempty"`

	LibraryBookTotalCopies     int `gorm:"column:library_book_total_copies;not null;default:1" json:"library_book_total_copies"`
	LibraryBookAvailableCopies int `gorm:"column:library_book_available_copies;not null;default:1" json:"library_book_available_copies"`

	LibraryBookCreatedAt time.Time  `gorm:"column:library_book_created_at;type:timestamptz;not null;default:now()" json:"library_book_created_at"`
	LibraryBookUpdatedAt time.Time  `gorm:"column:library_book_updated_at;type:timestamptz;not null;default:now()" json:"library_book_updated_at"`
	LibraryBookDeletedAt *time.Time `gorm:"column:library_book_deleted_at;type:timestamptz" json:"library_book_deleted_at,omitempty"`
}

func (LibraryBook) TableName() string { return "library_books" }

func (b *LibraryBook) BeforeCreate(tx *gorm.DB) error {
	b.LibraryBookUpdatedAt = time.Now().UTC()
	return nil
}
func (b *LibraryBook) BeforeUpdate(tx *gorm.DB) error {
	b.LibraryBookUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Scopes
   ========================= */

func ScopeAliveBooks(db *gorm.DB) *gorm.DB {
	return db.Where("library_book_deleted_at IS NULL")
}

func ScopeBooksBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("library_book_school_id = ?", schoolID)
	}
}
