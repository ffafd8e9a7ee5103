package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Patient represents a person receiving treatment at the practice
type Patient struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string         `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(255);not null" json:"last_name"`
	Document  string         `gorm:"type:varchar(50);uniqueIndex" json:"document"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Address   string         `gorm:"type:text" json:"address"`
	BirthDate *time.Time     `json:"birth_date,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Dentist represents a practitioner
type Dentist struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string         `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(255);not null" json:"last_name"`
	License   string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"license"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Treatment is a billable catalog entry for a dental procedure
type Treatment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
