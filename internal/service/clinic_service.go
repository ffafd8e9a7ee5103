package service

import (
	"context"
	"errors"
	"fmt"

	"dentalcare/internal/apperr"
	"dentalcare/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type UpsertPatientRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Document  string `json:"document" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type UpsertDentistRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	License   string `json:"license" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
}

type UpsertTreatmentRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
}

// ClinicService is the thin pass-through CRUD over the practice's domain
// entities. Deliberately plumbing: direct field copying, no business rules.
type ClinicService interface {
	CreatePatient(ctx context.Context, req UpsertPatientRequest) (*model.Patient, error)
	ListPatients(ctx context.Context, page, limit int) ([]model.Patient, int64, error)
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	UpdatePatient(ctx context.Context, id string, req UpsertPatientRequest) (*model.Patient, error)
	DeletePatient(ctx context.Context, id string) error

	CreateDentist(ctx context.Context, req UpsertDentistRequest) (*model.Dentist, error)
	ListDentists(ctx context.Context, page, limit int) ([]model.Dentist, int64, error)

	CreateTreatment(ctx context.Context, req UpsertTreatmentRequest) (*model.Treatment, error)
	ListTreatments(ctx context.Context, page, limit int) ([]model.Treatment, int64, error)
}

type clinicService struct {
	db *gorm.DB
}

// NewClinicService returns a new instance of ClinicService
func NewClinicService(db *gorm.DB) ClinicService {
	return &clinicService{db: db}
}

func (s *clinicService) CreatePatient(ctx context.Context, req UpsertPatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Document:  req.Document,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	if err := s.db.WithContext(ctx).Create(patient).Error; err != nil {
		return nil, apperr.Persistence("create patient", err)
	}
	return patient, nil
}

func (s *clinicService) ListPatients(ctx context.Context, page, limit int) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64

	if err := s.db.WithContext(ctx).Model(&model.Patient{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence("count patients", err)
	}
	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Order("last_name ASC").Offset(offset).Limit(limit).Find(&patients).Error; err != nil {
		return nil, 0, apperr.Persistence("list patients", err)
	}
	return patients, total, nil
}

func (s *clinicService) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	var patient model.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: patient %s", apperr.ErrNotFound, id)
		}
		return nil, apperr.Persistence("load patient", err)
	}
	return &patient, nil
}

func (s *clinicService) UpdatePatient(ctx context.Context, id string, req UpsertPatientRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	patient.FirstName = req.FirstName
	patient.LastName = req.LastName
	patient.Document = req.Document
	patient.Email = req.Email
	patient.Phone = req.Phone
	patient.Address = req.Address

	if err := s.db.WithContext(ctx).Save(patient).Error; err != nil {
		return nil, apperr.Persistence("update patient", err)
	}
	return patient, nil
}

func (s *clinicService) DeletePatient(ctx context.Context, id string) error {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Patient{}).Error; err != nil {
		return apperr.Persistence("delete patient", err)
	}
	return nil
}

func (s *clinicService) CreateDentist(ctx context.Context, req UpsertDentistRequest) (*model.Dentist, error) {
	dentist := &model.Dentist{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		License:   req.License,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := s.db.WithContext(ctx).Create(dentist).Error; err != nil {
		return nil, apperr.Persistence("create dentist", err)
	}
	return dentist, nil
}

func (s *clinicService) ListDentists(ctx context.Context, page, limit int) ([]model.Dentist, int64, error) {
	var dentists []model.Dentist
	var total int64

	if err := s.db.WithContext(ctx).Model(&model.Dentist{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence("count dentists", err)
	}
	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Order("last_name ASC").Offset(offset).Limit(limit).Find(&dentists).Error; err != nil {
		return nil, 0, apperr.Persistence("list dentists", err)
	}
	return dentists, total, nil
}

func (s *clinicService) CreateTreatment(ctx context.Context, req UpsertTreatmentRequest) (*model.Treatment, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price", apperr.ErrInvalidInput)
	}

	treatment := &model.Treatment{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(treatment).Error; err != nil {
		return nil, apperr.Persistence("create treatment", err)
	}
	return treatment, nil
}

func (s *clinicService) ListTreatments(ctx context.Context, page, limit int) ([]model.Treatment, int64, error) {
	var treatments []model.Treatment
	var total int64

	if err := s.db.WithContext(ctx).Model(&model.Treatment{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence("count treatments", err)
	}
	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Order("code ASC").Offset(offset).Limit(limit).Find(&treatments).Error; err != nil {
		return nil, 0, apperr.Persistence("list treatments", err)
	}
	return treatments, total, nil
}
